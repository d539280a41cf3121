package dataloader

import (
	"context"
	"fmt"
	"time"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
// Результаты кэшируются на время жизни Loaders, поэтому их создают на одно чтение.
type Loaders struct {
	ChildrenByCommentID *dataloader.Loader
}

// NewLoaders создает лоадеры поверх хранилища.
func NewLoaders(store storage.Storage) *Loaders {
	// Создаем батч-функцию для лоадера
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		parentIDs := keys.Keys()

		// Вызываем метод хранилища, который делает ОДИН запрос к БД
		commentsMap, err := store.GetCommentsByParentIDs(ctx, parentIDs)
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Формируем результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, parentID := range parentIDs {
			results[i] = &dataloader.Result{Data: commentsMap[parentID]}
		}
		return results
	}

	return &Loaders{
		ChildrenByCommentID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// WithLoaders помещает лоадеры в контекст.
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, key, loaders)
}

// For извлекает лоадеры из контекста. Возвращает nil, если их там нет.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// Children загружает ответы для набора комментариев одним батчем.
func (l *Loaders) Children(ctx context.Context, parentIDs []string) (map[string][]*domain.Comment, error) {
	if len(parentIDs) == 0 {
		return map[string][]*domain.Comment{}, nil
	}

	thunk := l.ChildrenByCommentID.LoadMany(ctx, dataloader.NewKeysFromStrings(parentIDs))
	data, errs := thunk()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]*domain.Comment, len(parentIDs))
	for i, parentID := range parentIDs {
		children, ok := data[i].([]*domain.Comment)
		if !ok && data[i] != nil {
			return nil, fmt.Errorf("unexpected loader result %T for %s", data[i], parentID)
		}
		out[parentID] = children
	}
	return out, nil
}
