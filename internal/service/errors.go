package service

import (
	"errors"
	"fmt"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
)

// translate переводит ошибку хранилища в доменную.
// Доменные ошибки из guard-функций проходят без изменений, отсутствие записи
// становится ErrNotFound, всё остальное - инфраструктурный ErrStorage.
func translate(op string, err error) error {
	var derr *domain.Error
	switch {
	case errors.As(err, &derr):
		return err
	case errors.Is(err, storage.ErrAccountNotFound):
		return domain.NotFoundf("account not found")
	case errors.Is(err, storage.ErrPostNotFound):
		return domain.NotFoundf("post not found")
	case errors.Is(err, storage.ErrCommentNotFound):
		return domain.NotFoundf("comment not found")
	case errors.Is(err, storage.ErrNotFound):
		return domain.NotFoundf("%s: record not found", op)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
}
