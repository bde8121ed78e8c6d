package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"gopkg.in/yaml.v3"
)

// GroupFile is the YAML layout read by LoadGroups:
//
//	groups:
//	  - slug: cats
//	    title: Cats
//	    description: Everything feline.
type GroupFile struct {
	Groups []models.Group `yaml:"groups"`
}

// BuiltInGroups are created by the seeder when no group file is given.
var BuiltInGroups = []models.Group{
	{Slug: "general", Title: "General", Description: "Anything goes."},
	{Slug: "books", Title: "Books", Description: "Reading lists and reviews."},
	{Slug: "travel", Title: "Travel", Description: "Trips, maps and photos."},
	{Slug: "food", Title: "Food", Description: "Recipes and restaurants."},
	{Slug: "tech", Title: "Technology", Description: "Gadgets, code and the web."},
}

// LoadGroups decodes and validates a group file. Slugs must be unique
// within the file.
func LoadGroups(r io.Reader) ([]models.Group, error) {
	var file GroupFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode groups: %w", err)
	}

	seen := make(map[string]bool, len(file.Groups))
	for i := range file.Groups {
		g := &file.Groups[i]
		g.Slug = strings.TrimSpace(g.Slug)
		g.Title = strings.TrimSpace(g.Title)
		if err := validation.ValidateGroupSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("group %d: %w", i+1, err)
		}
		if g.Title == "" {
			return nil, fmt.Errorf("group %q: title is required", g.Slug)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("group %q: duplicate slug", g.Slug)
		}
		seen[g.Slug] = true
	}
	return file.Groups, nil
}

// LoadGroupsFile reads LoadGroups input from path.
func LoadGroupsFile(path string) ([]models.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadGroups(f)
}

// UpsertGroups creates or refreshes groups by slug.
func UpsertGroups(ctx context.Context, repo repository.GroupRepository, groups []models.Group) error {
	for i := range groups {
		g := groups[i]
		if err := repo.Upsert(ctx, &g); err != nil {
			return fmt.Errorf("upsert group %q: %w", g.Slug, err)
		}
	}
	return nil
}
