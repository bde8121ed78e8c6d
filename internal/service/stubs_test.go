package service

import (
	"context"

	"inkwell/internal/models"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	updateFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, models.PostFilter, int, int) ([]models.Post, error)
	countFn   func(context.Context, models.PostFilter) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f models.PostFilter, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, f models.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ models.PostFilter, _, _ int) ([]models.Post, error) {
			return nil, nil
		},
		countFn: func(_ context.Context, _ models.PostFilter) (int64, error) { return 0, nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	groups map[uint]models.Group
}

func (s *groupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, models.NewNotFoundError("Group", id)
	}
	return &g, nil
}
func (s *groupRepoStub) GetBySlug(_ context.Context, slug string) (*models.Group, error) {
	for _, g := range s.groups {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, models.NewNotFoundError("Group", slug)
}
func (s *groupRepoStub) List(_ context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out, nil
}
func (s *groupRepoStub) Upsert(_ context.Context, g *models.Group) error {
	s.groups[g.ID] = *g
	return nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

// userRepoStub is a stub for repository.UserRepository keyed by username.
type userRepoStub struct {
	users map[string]models.User
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, models.NewNotFoundError("User", username)
	}
	return &u, nil
}
func (s *userRepoStub) Upsert(_ context.Context, u *models.User) error {
	s.users[u.Username] = *u
	return nil
}

type edge struct{ user, author uint }

// followRepoStub keeps edges in memory and enforces the same rules as the store.
type followRepoStub struct {
	edges     map[edge]bool
	createErr error
	creates   int
}

func newFollowRepoStub() *followRepoStub {
	return &followRepoStub{edges: map[edge]bool{}}
}

func (s *followRepoStub) Create(_ context.Context, userID, authorID uint) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if userID == authorID {
		return models.ErrSelfFollow
	}
	if s.edges[edge{userID, authorID}] {
		return models.ErrDuplicateFollow
	}
	s.edges[edge{userID, authorID}] = true
	return nil
}
func (s *followRepoStub) Delete(_ context.Context, userID, authorID uint) error {
	if !s.edges[edge{userID, authorID}] {
		return models.NewNotFoundError("Follow", authorID)
	}
	delete(s.edges, edge{userID, authorID})
	return nil
}
func (s *followRepoStub) Exists(_ context.Context, userID, authorID uint) (bool, error) {
	return s.edges[edge{userID, authorID}], nil
}
