package database

import (
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:?_foreign_keys=on"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite is pinned to a single connection regardless of config
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: DriverSQLite, DBSQLitePath: "test.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector(&config.Config{DBDriver: DriverPostgres, DBHost: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestAutoMigrate_ReferentialActions(t *testing.T) {
	db := openMemoryDB(t)

	author := models.User{ID: 1, Username: "leo"}
	reader := models.User{ID: 2, Username: "ana"}
	require.NoError(t, db.Create(&author).Error)
	require.NoError(t, db.Create(&reader).Error)

	group := models.Group{Slug: "cats", Title: "Cats"}
	require.NoError(t, db.Create(&group).Error)

	post := models.Post{Text: "hello", AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "hi", PostID: post.ID, AuthorID: reader.ID}).Error)

	// deleting the group keeps the post and clears its group
	require.NoError(t, db.Delete(&group).Error)
	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.GroupID)

	// deleting the author removes their posts and the comments under them
	require.NoError(t, db.Delete(&author).Error)
	var posts, comments int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
}

func TestAutoMigrate_FollowConstraints(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, db.Create(&models.User{ID: 1, Username: "a"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Username: "b"}).Error)

	require.NoError(t, db.Create(&models.Follow{UserID: 1, AuthorID: 2}).Error)

	err := db.Create(&models.Follow{UserID: 1, AuthorID: 2}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.Follow{UserID: 1, AuthorID: 1}).Error
	assert.Error(t, err)

	var count int64
	db.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
