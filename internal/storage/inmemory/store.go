package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти.
// Один мьютекс на всё хранилище даёт атомарность каждой операции.
// Наружу отдаются только копии записей.
type Store struct {
	mu               sync.RWMutex
	accounts         map[string]*domain.Account
	accountsByEmail  map[string]string // map[email]accountID, уникальный индекс
	posts            map[string]*domain.Post
	comments         map[string]*domain.Comment
	commentsByPost   map[string][]string // map[postID][]commentID (только корневые)
	commentsByParent map[string][]string // map[parentID][]commentID
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		accounts:         make(map[string]*domain.Account),
		accountsByEmail:  make(map[string]string),
		posts:            make(map[string]*domain.Post),
		comments:         make(map[string]*domain.Comment),
		commentsByPost:   make(map[string][]string),
		commentsByParent: make(map[string][]string),
	}
}

// === Account Methods ===

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.accountsByEmail[account.Email]; taken {
		return storage.ErrEmailExists
	}
	account.ID = uuid.NewString()
	stored := *account
	s.accounts[account.ID] = &stored
	s.accountsByEmail[account.Email] = account.ID
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	out := *account
	return &out, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountsByEmail[email]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	out := *s.accounts[id]
	return &out, nil
}

func (s *Store) ConfirmAccountEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.accountsByEmail[email]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	account := s.accounts[id]
	account.EmailConfirmed = true
	out := *account
	return &out, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[post.AuthorID]; !ok {
		return storage.ErrAccountNotFound
	}
	post.ID = uuid.NewString()
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}
	return clonePost(post), nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, mutate storage.PostMutation) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrPostNotFound
	}

	// Мутация применяется к копии, чтобы ошибка не оставила частичных изменений
	draft := clonePost(post)
	if err := mutate(draft, s.countComments(id)); err != nil {
		return nil, err
	}
	draft.ID = post.ID
	draft.AuthorID = post.AuthorID
	s.posts[id] = draft
	return clonePost(draft), nil
}

func (s *Store) GetPublishedPosts(ctx context.Context) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.IsPublished && !p.IsDeleted {
			posts = append(posts, clonePost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(*posts[j].PublishedAt)
	})
	return posts, nil
}

func (s *Store) GetDraftPosts(ctx context.Context, authorID string) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0)
	for _, p := range s.posts {
		if p.AuthorID == authorID && !p.IsPublished && !p.IsDeleted {
			posts = append(posts, clonePost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].UpdatedAt.After(posts[j].UpdatedAt)
	})
	return posts, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment, guard storage.CommentGuard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return storage.ErrPostNotFound
	}

	var parent *domain.Comment
	if comment.ParentID != nil {
		if p, ok := s.comments[*comment.ParentID]; ok {
			c := *p
			parent = &c
		}
	}
	if err := guard(clonePost(post), parent); err != nil {
		return err
	}
	if _, ok := s.accounts[comment.AuthorID]; !ok {
		return storage.ErrAccountNotFound
	}

	comment.ID = uuid.NewString()
	stored := *comment
	s.comments[comment.ID] = &stored

	// Обновление индексов для иерархии
	if comment.ParentID == nil {
		s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment.ID)
	} else {
		s.commentsByParent[*comment.ParentID] = append(s.commentsByParent[*comment.ParentID], comment.ID)
	}
	return nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	out := *comment
	return &out, nil
}

func (s *Store) DeleteCommentTree(ctx context.Context, id string, guard storage.CommentDeleteGuard) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrCommentNotFound
	}
	c := *root
	if err := guard(&c); err != nil {
		return nil, err
	}

	// Обход в ширину по индексу детей
	subtree := []string{id}
	for i := 0; i < len(subtree); i++ {
		subtree = append(subtree, s.commentsByParent[subtree[i]]...)
	}

	if root.ParentID == nil {
		s.commentsByPost[root.PostID] = without(s.commentsByPost[root.PostID], id)
	} else {
		s.commentsByParent[*root.ParentID] = without(s.commentsByParent[*root.ParentID], id)
	}
	for _, cid := range subtree {
		delete(s.comments, cid)
		delete(s.commentsByParent, cid)
	}
	return subtree, nil
}

func (s *Store) GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.commentsByPost[postID]), nil
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string][]*domain.Comment, len(parentIDs))
	for _, pID := range parentIDs {
		// Важно: Dataloader'у нужны отсортированные данные для консистентности
		results[pID] = s.collect(s.commentsByParent[pID])
	}
	return results, nil
}

// countComments считает все комментарии поста, включая ответы.
func (s *Store) countComments(postID string) int64 {
	var n int64
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// collect копирует комментарии по id и сортирует по времени создания.
func (s *Store) collect(ids []string) []*domain.Comment {
	out := make([]*domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func clonePost(p *domain.Post) *domain.Post {
	out := *p
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		out.PublishedAt = &t
	}
	out.Comments = nil
	return &out
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
