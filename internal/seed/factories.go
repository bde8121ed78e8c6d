package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	rng     *rand.Rand
	maxDays int
	// user ids come from the identity provider, so the factory hands them out
	nextUserID uint
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		rng:     rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		maxDays: 90,
	}
}

func (f *Factory) allocUserID(ctx context.Context) (uint, error) {
	if f.nextUserID == 0 {
		var maxID uint
		if err := f.db.WithContext(ctx).Model(&models.User{}).
			Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return 0, err
		}
		f.nextUserID = maxID + 1
	}
	id := f.nextUserID
	f.nextUserID++
	return id, nil
}

// pastTime returns a creation time spread over the last maxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a user mirror with a fake username.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	id, err := f.allocUserID(ctx)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:          id,
		Username:    fmt.Sprintf("%s%d", f.faker.Username(), id),
		DisplayName: f.faker.Name(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author without persisting it.
func (f *Factory) BuildPost(author *models.User, group *models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:      f.faker.Paragraph(1, 3, 12, "\n"),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in a single insert.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Omit("Author", "Group").CreateInBatches(posts, 100).Error
}

// CreateComment persists a comment on post by author.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Text:     f.faker.Sentence(f.rng.Intn(12) + 3),
		PostID:   post.ID,
		AuthorID: author.ID,
	}
	if post.CreatedAt.Before(time.Now()) {
		comment.CreatedAt = post.CreatedAt.Add(time.Since(post.CreatedAt) / 2)
	}
	if err := f.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Pick returns a random element of items.
func Pick[T any](f *Factory, items []T) T {
	return items[f.rng.Intn(len(items))]
}
