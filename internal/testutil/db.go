// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB returns a migrated in-memory database that is closed when the
// test ends. Foreign keys are enforced so referential actions behave like Postgres.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open("file::memory:?_foreign_keys=on"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection would see a fresh empty memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given id and username.
func CreateUser(t testing.TB, db *gorm.DB, id uint, username string) models.User {
	t.Helper()
	u := models.User{ID: id, Username: username, DisplayName: username}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// CreateGroup inserts a group whose title is derived from slug.
func CreateGroup(t testing.TB, db *gorm.DB, slug string) models.Group {
	t.Helper()
	g := models.Group{Slug: slug, Title: "Group " + slug, Description: "about " + slug}
	require.NoError(t, db.Create(&g).Error)
	return g
}

// CreatePosts inserts n posts by author with strictly increasing creation
// times, so the newest post is the last one created.
func CreatePosts(t testing.TB, db *gorm.DB, authorID uint, groupID *uint, n int) []models.Post {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := models.Post{
			Text:      fmt.Sprintf("post %d by %d", i, authorID),
			AuthorID:  authorID,
			GroupID:   groupID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&p).Error)
		posts = append(posts, p)
	}
	return posts
}
