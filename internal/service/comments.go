package service

import (
	"context"

	"github.com/UkralStul/blog-service/internal/dataloader"
	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
)

// Comments - комментарии, ответы и каскадное удаление веток.
type Comments interface {
	Comment(ctx context.Context, postID, callerID, content string) (*domain.Comment, error)
	Reply(ctx context.Context, parentID, callerID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID, callerID string) ([]string, error)
	Thread(ctx context.Context, postID string) ([]*domain.ThreadNode, error)
}

// CommentManager реализует Comments.
// Состояние поста проверяется только через CommentableChecker.
type CommentManager struct {
	store storage.Storage
	posts CommentableChecker
	opts  options
}

var _ Comments = (*CommentManager)(nil)

func NewCommentManager(store storage.Storage, posts CommentableChecker, opts ...Option) *CommentManager {
	return &CommentManager{store: store, posts: posts, opts: newOptions(opts)}
}

// Comment оставляет корневой комментарий к опубликованному посту.
func (m *CommentManager) Comment(ctx context.Context, postID, callerID, content string) (*domain.Comment, error) {
	comment := &domain.Comment{
		AuthorID:  callerID,
		PostID:    postID,
		Content:   content,
		CreatedAt: m.opts.now(),
	}

	// Сначала пост: комментарий к черновику - NotFound даже с пустым текстом
	post, err := m.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, translate("comment", err)
	}
	if err := m.posts.EnsureCommentable(post); err != nil {
		return nil, err
	}
	if err := check(commentInput{Content: content}); err != nil {
		return nil, err
	}

	// Повторная проверка под блокировкой поста внутри транзакции вставки
	err = m.store.CreateComment(ctx, comment, func(post *domain.Post, _ *domain.Comment) error {
		return m.posts.EnsureCommentable(post)
	})
	if err != nil {
		return nil, translate("comment", err)
	}

	m.opts.logger.InfoContext(ctx, "comment created", "comment_id", comment.ID, "post_id", postID)
	return comment, nil
}

// Reply отвечает на комментарий. Пост берётся у родителя.
// Состояние поста здесь намеренно не проверяется, в отличие от Comment:
// ответ в ветку под черновиком или удалённым постом принимается.
func (m *CommentManager) Reply(ctx context.Context, parentID, callerID, content string) (*domain.Comment, error) {
	parent, err := m.store.GetCommentByID(ctx, parentID)
	if err != nil {
		return nil, translate("reply", err)
	}
	if err := check(commentInput{Content: content}); err != nil {
		return nil, err
	}

	reply := &domain.Comment{
		AuthorID:  callerID,
		PostID:    parent.PostID,
		ParentID:  &parent.ID,
		Content:   content,
		CreatedAt: m.opts.now(),
	}
	err = m.store.CreateComment(ctx, reply, func(_ *domain.Post, p *domain.Comment) error {
		// Родителя могли удалить между чтением и вставкой
		if p == nil {
			return domain.NotFoundf("comment not found")
		}
		return nil
	})
	if err != nil {
		return nil, translate("reply", err)
	}

	m.opts.logger.InfoContext(ctx, "reply created", "comment_id", reply.ID, "parent_id", parentID)
	return reply, nil
}

// DeleteComment удаляет комментарий автора вместе со всеми ответами,
// кто бы их ни написал. Возвращает id удалённых комментариев.
func (m *CommentManager) DeleteComment(ctx context.Context, commentID, callerID string) ([]string, error) {
	deleted, err := m.store.DeleteCommentTree(ctx, commentID, func(c *domain.Comment) error {
		if c.AuthorID != callerID {
			return domain.Permissionf("comment belongs to another account")
		}
		return nil
	})
	if err != nil {
		return nil, translate("delete comment", err)
	}

	m.opts.logger.InfoContext(ctx, "comment thread deleted", "comment_id", commentID, "removed", len(deleted))
	return deleted, nil
}

// Thread собирает дерево комментариев опубликованного поста уровень за уровнем.
func (m *CommentManager) Thread(ctx context.Context, postID string) ([]*domain.ThreadNode, error) {
	post, err := m.store.GetPostByID(ctx, postID)
	if err != nil {
		return nil, translate("thread", err)
	}
	if err := m.posts.EnsureCommentable(post); err != nil {
		return nil, err
	}

	roots, err := m.store.GetRootComments(ctx, postID)
	if err != nil {
		return nil, translate("thread", err)
	}

	loaders := dataloader.For(ctx)
	if loaders == nil {
		loaders = dataloader.NewLoaders(m.store)
	}

	tree := make([]*domain.ThreadNode, 0, len(roots))
	level := make([]*domain.ThreadNode, 0, len(roots))
	for _, c := range roots {
		node := &domain.ThreadNode{Comment: c, Replies: []*domain.ThreadNode{}}
		tree = append(tree, node)
		level = append(level, node)
	}

	for len(level) > 0 {
		ids := make([]string, len(level))
		for i, node := range level {
			ids[i] = node.Comment.ID
		}
		children, err := loaders.Children(ctx, ids)
		if err != nil {
			return nil, translate("thread", err)
		}

		var next []*domain.ThreadNode
		for _, node := range level {
			for _, c := range children[node.Comment.ID] {
				child := &domain.ThreadNode{Comment: c, Replies: []*domain.ThreadNode{}}
				node.Replies = append(node.Replies, child)
				next = append(next, child)
			}
		}
		level = next
	}
	return tree, nil
}
