package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/UkralStul/blog-service/internal/storage/inmemory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stepClock выдаёт строго возрастающее время, по секунде на вызов.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	store       storage.Storage
	credentials *CredentialManager
	posts       *PostManager
	comments    *CommentManager
}

func newTestEnv(t *testing.T, extra ...Option) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, inmemory.New(), extra...)
}

func newTestEnvWithStore(t *testing.T, store storage.Storage, extra ...Option) *testEnv {
	t.Helper()
	clock := newStepClock()
	opts := append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock.Now),
	}, extra...)

	credentials, err := NewCredentialManager(store, NewBcryptHasher(bcrypt.MinCost), opts...)
	require.NoError(t, err)

	posts := NewPostManager(store, opts...)
	return &testEnv{
		store:       store,
		credentials: credentials,
		posts:       posts,
		comments:    NewCommentManager(store, posts, opts...),
	}
}

// account регистрирует, подтверждает и логинит аккаунт.
func (e *testEnv) account(t *testing.T, email string) *domain.Account {
	t.Helper()
	ctx := context.Background()
	_, err := e.credentials.Register(ctx, email, "secret-pw")
	require.NoError(t, err)
	require.NoError(t, e.credentials.ConfirmEmail(ctx, email))
	a, err := e.credentials.Login(ctx, email, "secret-pw")
	require.NoError(t, err)
	return a
}

func (e *testEnv) publishedPost(t *testing.T, author *domain.Account) *domain.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), author.ID, "Title", "Body", true)
	require.NoError(t, err)
	return post
}

func (e *testEnv) draftPost(t *testing.T, author *domain.Account) *domain.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), author.ID, "Title", "Body", false)
	require.NoError(t, err)
	return post
}
