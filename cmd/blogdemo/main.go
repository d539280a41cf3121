package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/UkralStul/blog-service/internal/cache"
	"github.com/UkralStul/blog-service/internal/config"
	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/platform/logger"
	"github.com/UkralStul/blog-service/internal/service"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/UkralStul/blog-service/internal/storage/inmemory"
	"github.com/UkralStul/blog-service/internal/storage/sqlstore"
	"github.com/joho/godotenv"
)

type app struct {
	credentials *service.CredentialManager
	posts       *service.PostManager
	comments    *service.CommentManager
	log         *slog.Logger
}

func main() {
	configDir := flag.String("config", ".", "Directory with optional config.yaml")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}
	if err := run(context.Background(), *configDir); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.Setup(os.Stdout, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer closeStore()
	l.Info("storage ready", "driver", cfg.Storage.Driver)

	opts := []service.Option{service.WithLogger(l)}
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			// Без кэша лента читается прямо из хранилища
			l.Warn("redis unavailable, continuing without feed cache", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, service.WithFeedCache(cache.NewRedis(client, cfg.Cache.TTL)))
		}
	}

	credentials, err := service.NewCredentialManager(store, service.NewBcryptHasher(cfg.Auth.BcryptCost), opts...)
	if err != nil {
		return fmt.Errorf("failed to set up credentials: %w", err)
	}
	posts := service.NewPostManager(store, opts...)
	a := &app{
		credentials: credentials,
		posts:       posts,
		comments:    service.NewCommentManager(store, posts, opts...),
		log:         l,
	}
	return a.fillWithDemoData(ctx)
}

func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	level := logger.GormLevel(cfg.Log.Level)
	switch cfg.Storage.Driver {
	case "postgres":
		s, err := sqlstore.OpenPostgres(cfg.Storage.DSN, level)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "sqlite":
		s, err := sqlstore.OpenSQLite(cfg.Storage.DSN, level)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return inmemory.New(), func() {}, nil
	}
}

// fillWithDemoData проводит двух пользователей через полный цикл поста и комментариев.
func (a *app) fillWithDemoData(ctx context.Context) error {
	author, err := a.signUp(ctx, "author@example.com", "author-pw")
	if err != nil {
		return err
	}
	reader, err := a.signUp(ctx, "reader@example.com", "reader-pw")
	if err != nil {
		return err
	}

	post, err := a.posts.Create(ctx, author.ID, "Threaded comments in Go", "Storing trees as rows with parent ids.", false)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if _, err := a.posts.Publish(ctx, author.ID, post.ID); err != nil {
		return fmt.Errorf("publish post: %w", err)
	}

	root, err := a.comments.Comment(ctx, post.ID, reader.ID, "Great post!")
	if err != nil {
		return fmt.Errorf("comment: %w", err)
	}
	if _, err := a.comments.Reply(ctx, root.ID, author.ID, "Thanks!"); err != nil {
		return fmt.Errorf("reply: %w", err)
	}

	// Пока есть комментарии, пост нельзя вернуть в черновики
	_, err = a.posts.MoveToDraft(ctx, author.ID, post.ID)
	if !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("move to drafts with comments: expected conflict, got %v", err)
	}
	a.log.Info("move to drafts blocked", "reason", err.Error())

	removed, err := a.comments.DeleteComment(ctx, root.ID, reader.ID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if _, err := a.posts.MoveToDraft(ctx, author.ID, post.ID); err != nil {
		return fmt.Errorf("move to drafts: %w", err)
	}

	drafts, err := a.posts.ViewDrafts(ctx, author.ID)
	if err != nil {
		return fmt.Errorf("view drafts: %w", err)
	}
	a.log.Info("demo data filled",
		"post_id", post.ID,
		"comments_removed", len(removed),
		"author_drafts", len(drafts))
	return nil
}

func (a *app) signUp(ctx context.Context, email, password string) (*domain.Account, error) {
	if _, err := a.credentials.Register(ctx, email, password); err != nil && !errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	if err := a.credentials.ConfirmEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("confirm %s: %w", email, err)
	}
	account, err := a.credentials.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", email, err)
	}
	return account, nil
}
