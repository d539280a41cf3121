package storage

import (
	"context"

	"github.com/UkralStul/blog-service/internal/domain"
)

// PostMutation проверяет и изменяет пост внутри транзакции хранилища.
// comments - число комментариев поста на любом уровне вложенности, прочитанное
// в той же транзакции. Ошибка отменяет транзакцию и возвращается как есть.
type PostMutation func(post *domain.Post, comments int64) error

// CommentGuard проверяет предусловия вставки комментария под блокировкой поста.
// parent равен nil для корневого комментария или если родитель уже удалён.
type CommentGuard func(post *domain.Post, parent *domain.Comment) error

// CommentDeleteGuard проверяет удаляемый комментарий перед каскадным удалением.
type CommentDeleteGuard func(comment *domain.Comment) error

// Storage определяет контракт для хранилищ.
// Каждый метод выполняется в одной транзакции.
type Storage interface {
	// CreateAccount возвращает ErrDuplicate, если email уже занят.
	// Уникальность обеспечивается самим хранилищем при вставке.
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	ConfirmAccountEmail(ctx context.Context, email string) (*domain.Account, error)

	CreatePost(ctx context.Context, post *domain.Post) error
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, mutate PostMutation) (*domain.Post, error)
	GetPublishedPosts(ctx context.Context) ([]*domain.Post, error)
	GetDraftPosts(ctx context.Context, authorID string) ([]*domain.Post, error)

	CreateComment(ctx context.Context, comment *domain.Comment, guard CommentGuard) error
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	// DeleteCommentTree удаляет комментарий и всё поддерево ответов.
	// Возвращает id удалённых комментариев.
	DeleteCommentTree(ctx context.Context, id string, guard CommentDeleteGuard) ([]string, error)
	GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error)

	// Метод для Dataloader'ов
	GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error)
}
