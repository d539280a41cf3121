package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Коды ошибок PostgreSQL
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// Store реализует интерфейс Storage поверх реляционной БД через GORM.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// OpenPostgres подключается к PostgreSQL.
func OpenPostgres(dsn string, logLevel logger.LogLevel) (*Store, error) {
	return Open(postgres.Open(dsn), logLevel)
}

// OpenSQLite открывает базу SQLite. Соединение одно: SQLite
// сериализует запись, а in-memory база живёт только внутри соединения.
func OpenSQLite(dsn string, logLevel logger.LogLevel) (*Store, error) {
	db, err := connect(sqlite.Open(dsn), logLevel)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// В SQLite внешние ключи по умолчанию не проверяются
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return migrate(db)
}

// Open создает хранилище для произвольного диалекта и выполняет миграцию схемы.
func Open(dialector gorm.Dialector, logLevel logger.LogLevel) (*Store, error) {
	db, err := connect(dialector, logLevel)
	if err != nil {
		return nil, err
	}
	return migrate(db)
}

func connect(dialector gorm.Dialector, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB) (*Store, error) {
	// Порядок важен: внешние ключи ссылаются на уже созданные таблицы
	if err := db.AutoMigrate(&domain.Account{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Account Methods ===

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	account.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return storage.ErrEmailExists
		}
		return err
	}
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, storage.ErrAccountNotFound)
	}
	return &account, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.WithContext(ctx).First(&account, "email = ?", email).Error; err != nil {
		return nil, notFound(err, storage.ErrAccountNotFound)
	}
	return &account, nil
}

func (s *Store) ConfirmAccountEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "email = ?", email).Error; err != nil {
			return notFound(err, storage.ErrAccountNotFound)
		}
		if account.EmailConfirmed {
			return nil
		}
		account.EmailConfirmed = true
		return tx.Model(&account).Update("email_confirmed", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) error {
	post.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrAccountNotFound
		}
		return err
	}
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err, storage.ErrPostNotFound)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, mutate storage.PostMutation) (*domain.Post, error) {
	var post domain.Post
	// Используем транзакцию для атомарности операции чтения-записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error; err != nil {
			return notFound(err, storage.ErrPostNotFound)
		}

		var comments int64
		if err := tx.Model(&domain.Comment{}).Where("post_id = ?", id).Count(&comments).Error; err != nil {
			return err
		}

		authorID := post.AuthorID
		if err := mutate(&post, comments); err != nil {
			return err
		}
		post.ID, post.AuthorID = id, authorID
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) GetPublishedPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Where("is_published = ? AND is_deleted = ?", true, false).
		Order("published_at DESC").
		Find(&posts).Error
	return posts, err
}

func (s *Store) GetDraftPosts(ctx context.Context, authorID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ? AND is_published = ? AND is_deleted = ?", authorID, false, false).
		Order("updated_at DESC").
		Find(&posts).Error
	return posts, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment, guard storage.CommentGuard) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокировка строки поста сериализует вставку с переводом поста в черновик
		var post domain.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", comment.PostID).Error; err != nil {
			return notFound(err, storage.ErrPostNotFound)
		}

		var parent *domain.Comment
		if comment.ParentID != nil {
			var p domain.Comment
			err := tx.First(&p, "id = ?", *comment.ParentID).Error
			switch {
			case err == nil:
				parent = &p
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if err := guard(&post, parent); err != nil {
			return err
		}

		comment.ID = uuid.NewString()
		if err := tx.Create(comment).Error; err != nil {
			if isForeignKeyViolation(err) {
				return storage.ErrAccountNotFound
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, storage.ErrCommentNotFound)
	}
	return &comment, nil
}

// subtreeQuery собирает комментарий и всех потомков с глубиной относительно корня.
const subtreeQuery = `
WITH RECURSIVE subtree(id, depth) AS (
	SELECT id, 0 FROM comments WHERE id = ?
	UNION ALL
	SELECT c.id, s.depth + 1 FROM comments c JOIN subtree s ON c.parent_id = s.id
)
SELECT id, depth FROM subtree ORDER BY depth DESC`

type subtreeRow struct {
	ID    string
	Depth int
}

func (s *Store) DeleteCommentTree(ctx context.Context, id string, guard storage.CommentDeleteGuard) ([]string, error) {
	var deleted []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root domain.Comment
		if err := tx.First(&root, "id = ?", id).Error; err != nil {
			return notFound(err, storage.ErrCommentNotFound)
		}
		if err := guard(&root); err != nil {
			return err
		}

		// Та же блокировка поста, что и при вставке: ответ не "переживёт" удаление родителя
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&domain.Post{}, "id = ?", root.PostID).Error; err != nil {
			return err
		}

		var rows []subtreeRow
		if err := tx.Raw(subtreeQuery, id).Scan(&rows).Error; err != nil {
			return err
		}

		// Удаляем от листьев к корню: самоссылка объявлена как RESTRICT
		for len(rows) > 0 {
			depth := rows[0].Depth
			var level []string
			for len(rows) > 0 && rows[0].Depth == depth {
				level = append(level, rows[0].ID)
				rows = rows[1:]
			}
			if err := tx.Where("id IN ?", level).Delete(&domain.Comment{}).Error; err != nil {
				return err
			}
			deleted = append(deleted, level...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *Store) GetRootComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// === Dataloader Method ===

func (s *Store) GetCommentsByParentIDs(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	var comments []*domain.Comment
	// Загружаем все дочерние комментарии для всех переданных parentID одним запросом
	err := s.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("parent_id, created_at ASC"). // Сортируем для правильной группировки и порядка
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string][]*domain.Comment, len(parentIDs))
	for _, c := range comments {
		if c.ParentID != nil {
			result[*c.ParentID] = append(result[*c.ParentID], c)
		}
	}
	return result, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isUniqueViolation распознаёт нарушение уникальности как после трансляции
// ошибок GORM, так и по коду драйвера.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	var liteErr sqlite3.Error
	return errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == foreignKeyViolationCode
	}
	var liteErr sqlite3.Error
	return errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
