package storage

import (
	"errors"
	"fmt"
)

// Общие ошибки хранилищ.
var (
	// ErrNotFound возвращается, если запрошенной записи нет.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate возвращается при нарушении ограничения уникальности.
	ErrDuplicate = errors.New("record already exists")

	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("%w: post", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("%w: comment", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)
