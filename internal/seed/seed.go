// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	NumComments int
	// FollowsPerUser is an upper bound; self follows are skipped.
	FollowsPerUser int
	// Groups replaces BuiltInGroups when set.
	Groups []models.Group
	Clean  bool
	// Seed makes generated data reproducible; zero picks a random seed.
	Seed int64
}

// Summary reports what Seed created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seed populates the database with fake users, groups, posts, comments and
// follows. Follows go through the relationship service so the same rules
// apply as for real users.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log := middleware.LoggerFromContext(ctx)
	if opts.Clean {
		if err := ClearAll(ctx, db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Seed)
	groupRepo := repository.NewGroupRepository(db)
	relations := service.NewRelationshipService(
		repository.NewFollowRepository(db), repository.NewUserRepository(db))
	summary := &Summary{}

	groups := opts.Groups
	if groups == nil {
		groups = BuiltInGroups
	}
	if err := UpsertGroups(ctx, groupRepo, groups); err != nil {
		return nil, err
	}
	stored, err := groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summary.Groups = len(stored)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)
	log.Info("seeded users", zap.Int("count", len(users)))
	if len(users) == 0 {
		return summary, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		var group *models.Group
		// roughly a third of posts stay ungrouped
		if len(stored) > 0 && f.rng.Intn(3) > 0 {
			group = &stored[f.rng.Intn(len(stored))]
		}
		posts = append(posts, f.BuildPost(Pick(f, users), group))
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)
	log.Info("seeded posts", zap.Int("count", len(posts)))

	if len(posts) > 0 {
		for i := 0; i < opts.NumComments; i++ {
			if _, err := f.CreateComment(ctx, Pick(f, posts), Pick(f, users)); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	for _, u := range users {
		for i := 0; i < opts.FollowsPerUser; i++ {
			created, err := relations.FollowIdempotent(ctx, u.ID, Pick(f, users).ID)
			if err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			if created {
				summary.Follows++
			}
		}
	}

	log.Info("seeding complete",
		zap.Int("users", summary.Users),
		zap.Int("groups", summary.Groups),
		zap.Int("posts", summary.Posts),
		zap.Int("comments", summary.Comments),
		zap.Int("follows", summary.Follows))
	return summary, nil
}

// ClearAll deletes every row of the domain tables, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	tables := []interface{}{
		&models.Comment{},
		&models.Follow{},
		&models.Post{},
		&models.Group{},
		&models.User{},
	}
	var errs []error
	for _, t := range tables {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(t).Error; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
