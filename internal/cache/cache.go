// Package cache - кэш ленты опубликованных постов.
package cache

import (
	"context"

	"github.com/UkralStul/blog-service/internal/domain"
)

// FeedCache хранит ленту опубликованных постов.
// Ошибки кэша не должны ломать операции: вызывающий логирует их и идёт в хранилище.
//
// Заполнение идёт в три шага: Generation до чтения хранилища, чтение,
// StorePublished с тем же поколением. Invalidate меняет поколение, поэтому
// снимок, прочитанный до записи, в кэш уже не попадёт.
type FeedCache interface {
	// Published возвращает закэшированную ленту; ok=false при промахе.
	Published(ctx context.Context) (posts []*domain.Post, ok bool, err error)
	// Generation возвращает текущее поколение ленты.
	Generation(ctx context.Context) (int64, error)
	// StorePublished сохраняет ленту, только если поколение не изменилось.
	StorePublished(ctx context.Context, generation int64, posts []*domain.Post) error
	Invalidate(ctx context.Context) error
}

// Nop - кэш, который ничего не хранит.
type Nop struct{}

func (Nop) Published(context.Context) ([]*domain.Post, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context) (int64, error) { return 0, nil }
func (Nop) StorePublished(context.Context, int64, []*domain.Post) error { return nil }
func (Nop) Invalidate(context.Context) error { return nil }
