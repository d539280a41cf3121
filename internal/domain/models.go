package domain

import "time"

// Ограничения длины полей, общие для валидации и схемы хранилища.
const (
	MaxEmailLength   = 200
	MaxNameLength    = 100
	MaxPasswordBytes = 72 // предел входа bcrypt
	MaxTitleLength   = 200
	MaxBodyLength    = 2000
	MaxCommentLength = 300
)

// Account представляет зарегистрированного пользователя.
type Account struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string    `json:"email" gorm:"type:varchar(200);not null;uniqueIndex"`
	DisplayName    string    `json:"displayName" gorm:"type:varchar(100);not null"`
	PasswordHash   string    `json:"-" gorm:"type:varchar(100);not null"`
	RegisteredAt   time.Time `json:"registeredAt" gorm:"not null"`
	EmailConfirmed bool      `json:"emailConfirmed" gorm:"not null;default:false"`

	Posts    []*Post    `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"` // gorm only
	Comments []*Comment `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"` // gorm only
}

// PostState - вычисляемое состояние жизненного цикла поста.
type PostState string

const (
	PostDraft     PostState = "draft"
	PostPublished PostState = "published"
	PostDeleted   PostState = "deleted"
)

// Post представляет пост в системе.
type Post struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID    string     `json:"authorId" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"type:varchar(200);not null"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	IsPublished bool       `json:"isPublished" gorm:"not null;default:false"`
	IsDeleted   bool       `json:"isDeleted" gorm:"not null;default:false"`

	Comments []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"` // gorm only
}

// State возвращает текущее состояние поста.
func (p *Post) State() PostState {
	switch {
	case p.IsDeleted:
		return PostDeleted
	case p.IsPublished:
		return PostPublished
	default:
		return PostDraft
	}
}

// Commentable сообщает, можно ли публично комментировать пост.
func (p *Post) Commentable() bool {
	return p.State() == PostPublished
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID  string    `json:"authorId" gorm:"type:uuid;not null;index"`
	PostID    string    `json:"postId" gorm:"type:uuid;not null;index"`
	ParentID  *string   `json:"parentCommentId,omitempty" gorm:"type:uuid;index"`
	Content   string    `json:"content" gorm:"type:varchar(300);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime:false"`

	Replies []*Comment `json:"-" gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"` // gorm only
}

// IsRoot сообщает, что комментарий оставлен к посту, а не в ответ.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// ThreadNode - комментарий вместе с ответами, собранный по индексам parent id.
type ThreadNode struct {
	Comment *Comment      `json:"comment"`
	Replies []*ThreadNode `json:"replies"`
}
