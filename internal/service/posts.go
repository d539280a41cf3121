package service

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
)

// Posts - жизненный цикл постов: черновик, публикация, мягкое удаление.
type Posts interface {
	Create(ctx context.Context, authorID, title, body string, publish bool) (*domain.Post, error)
	Edit(ctx context.Context, callerID, postID, title, body string) (*domain.Post, error)
	Publish(ctx context.Context, callerID, postID string) (*domain.Post, error)
	MoveToDraft(ctx context.Context, callerID, postID string) (*domain.Post, error)
	Delete(ctx context.Context, callerID, postID string) error
	Get(ctx context.Context, postID string) (*domain.Post, error)
	ViewPublished(ctx context.Context) ([]*domain.Post, error)
	ViewDrafts(ctx context.Context, accountID string) ([]*domain.Post, error)
}

// CommentableChecker отвечает, открыт ли пост для публичных комментариев.
type CommentableChecker interface {
	EnsureCommentable(post *domain.Post) error
}

// PostManager реализует Posts.
//
// Удалённый пост считается исчезнувшим: любые переходы из него дают ErrNotFound.
// Чужой пост даёт ErrPermission, проверка существования идёт раньше.
type PostManager struct {
	store storage.Storage
	opts  options
}

var (
	_ Posts              = (*PostManager)(nil)
	_ CommentableChecker = (*PostManager)(nil)
)

func NewPostManager(store storage.Storage, opts ...Option) *PostManager {
	return &PostManager{store: store, opts: newOptions(opts)}
}

func (m *PostManager) Create(ctx context.Context, authorID, title, body string, publish bool) (*domain.Post, error) {
	if err := check(postInput{Title: title, Body: body}); err != nil {
		return nil, err
	}

	now := m.opts.now()
	post := &domain.Post{
		AuthorID:    authorID,
		Title:       title,
		Body:        body,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsPublished: publish,
	}
	if publish {
		post.PublishedAt = &now
	}
	if err := m.store.CreatePost(ctx, post); err != nil {
		return nil, translate("create post", err)
	}

	if publish {
		m.invalidateFeed(ctx)
	}
	m.opts.logger.InfoContext(ctx, "post created", "post_id", post.ID, "state", post.State())
	return post, nil
}

func (m *PostManager) Edit(ctx context.Context, callerID, postID, title, body string) (*domain.Post, error) {
	if err := check(postInput{Title: title, Body: body}); err != nil {
		return nil, err
	}
	return m.transition(ctx, "edit post", callerID, postID, func(p *domain.Post, _ int64, now time.Time) error {
		if p.IsPublished {
			return domain.Conflictf("published post cannot be edited, move it to drafts first")
		}
		p.Title = title
		p.Body = body
		p.UpdatedAt = now
		return nil
	})
}

func (m *PostManager) Publish(ctx context.Context, callerID, postID string) (*domain.Post, error) {
	post, err := m.transition(ctx, "publish post", callerID, postID, func(p *domain.Post, _ int64, now time.Time) error {
		if p.IsPublished {
			return domain.Conflictf("post is already published")
		}
		p.IsPublished = true
		p.PublishedAt = &now
		p.UpdatedAt = now
		return nil
	})
	if err == nil {
		m.invalidateFeed(ctx)
	}
	return post, err
}

func (m *PostManager) MoveToDraft(ctx context.Context, callerID, postID string) (*domain.Post, error) {
	post, err := m.transition(ctx, "move post to drafts", callerID, postID, func(p *domain.Post, comments int64, now time.Time) error {
		if !p.IsPublished {
			return domain.Conflictf("post is already a draft")
		}
		// Учитываются комментарии любого уровня, не только корневые
		if comments > 0 {
			return domain.Conflictf("post has %d comments and cannot be moved to drafts", comments)
		}
		p.IsPublished = false
		p.PublishedAt = nil
		p.UpdatedAt = now
		return nil
	})
	if err == nil {
		m.invalidateFeed(ctx)
	}
	return post, err
}

// Delete - мягкое удаление: строка остаётся, пост становится терминальным.
func (m *PostManager) Delete(ctx context.Context, callerID, postID string) error {
	_, err := m.transition(ctx, "delete post", callerID, postID, func(p *domain.Post, _ int64, now time.Time) error {
		p.IsDeleted = true
		p.IsPublished = false
		p.PublishedAt = nil
		p.UpdatedAt = now
		return nil
	})
	if err == nil {
		m.invalidateFeed(ctx)
	}
	return err
}

// Get возвращает неудалённый пост в любом состоянии.
func (m *PostManager) Get(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := m.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, translate("get post", err)
	}
	if post.IsDeleted {
		return nil, domain.NotFoundf("post not found")
	}
	return post, nil
}

// ViewPublished возвращает опубликованные посты, новые первыми.
func (m *PostManager) ViewPublished(ctx context.Context) ([]*domain.Post, error) {
	if posts, ok, err := m.opts.feed.Published(ctx); err != nil {
		m.opts.logger.WarnContext(ctx, "feed cache read failed", "error", err)
	} else if ok {
		return posts, nil
	}

	// Поколение читается до хранилища: переход, завершившийся после чтения,
	// сменит поколение, и устаревший снимок не попадёт в кэш
	gen, genErr := m.opts.feed.Generation(ctx)
	if genErr != nil {
		m.opts.logger.WarnContext(ctx, "feed cache read failed", "error", genErr)
	}

	posts, err := m.store.GetPublishedPosts(ctx)
	if err != nil {
		return nil, translate("view published", err)
	}
	if genErr == nil {
		if err := m.opts.feed.StorePublished(ctx, gen, posts); err != nil {
			m.opts.logger.WarnContext(ctx, "feed cache write failed", "error", err)
		}
	}
	return posts, nil
}

// ViewDrafts возвращает черновики аккаунта, последние изменённые первыми.
func (m *PostManager) ViewDrafts(ctx context.Context, accountID string) ([]*domain.Post, error) {
	posts, err := m.store.GetDraftPosts(ctx, accountID)
	if err != nil {
		return nil, translate("view drafts", err)
	}
	return posts, nil
}

// EnsureCommentable: черновики и удалённые посты для комментариев не существуют.
func (m *PostManager) EnsureCommentable(post *domain.Post) error {
	if post == nil || !post.Commentable() {
		return domain.NotFoundf("post not found or not published")
	}
	return nil
}

type transitionFunc func(p *domain.Post, comments int64, now time.Time) error

// transition выполняет чтение, проверку и запись поста одной транзакцией.
func (m *PostManager) transition(ctx context.Context, op, callerID, postID string, apply transitionFunc) (*domain.Post, error) {
	now := m.opts.now()
	post, err := m.store.UpdatePost(ctx, postID, func(p *domain.Post, comments int64) error {
		if p.IsDeleted {
			return domain.NotFoundf("post not found")
		}
		if p.AuthorID != callerID {
			return domain.Permissionf("post belongs to another account")
		}
		return apply(p, comments, now)
	})
	if err != nil {
		err = translate(op, err)
		if !errors.Is(err, domain.ErrStorage) {
			m.opts.logger.DebugContext(ctx, op+" rejected", "post_id", postID, "error", err)
		}
		return nil, err
	}

	m.opts.logger.InfoContext(ctx, op, "post_id", post.ID, "state", post.State())
	return post, nil
}

func (m *PostManager) invalidateFeed(ctx context.Context) {
	if err := m.opts.feed.Invalidate(ctx); err != nil {
		m.opts.logger.WarnContext(ctx, "feed cache invalidation failed", "error", err)
	}
}
