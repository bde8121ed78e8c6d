// Command groups creates or updates groups from a YAML file.
//
// Usage:
//
//	go run ./cmd/groups -file groups.yml
//	go run ./cmd/groups -file groups.yml -dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/seed"
)

func main() {
	file := flag.String("file", "groups.yml", "YAML file with a top-level 'groups' list")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	flag.Parse()

	if err := run(*file, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "groups: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, dryRun bool) error {
	groups, err := seed.LoadGroupsFile(path)
	if err != nil {
		return err
	}
	if dryRun {
		for _, g := range groups {
			fmt.Printf("%s\t%s\n", g.Slug, g.Title)
		}
		fmt.Printf("%d groups valid\n", len(groups))
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := seed.UpsertGroups(context.Background(), repository.NewGroupRepository(db), groups); err != nil {
		return err
	}
	fmt.Printf("%d groups upserted\n", len(groups))
	return nil
}
