package domain

import (
	"errors"
	"fmt"
)

// Виды ошибок ядра. Проверяются через errors.Is.
var (
	// ErrValidation - вход не прошёл проверку формы, длины или обязательности.
	ErrValidation = errors.New("validation error")
	// ErrConflict - запрос корректен, но нарушает инвариант состояния.
	ErrConflict = errors.New("conflict")
	// ErrNotFound - сущность не существует или не видна в нужном состоянии.
	ErrNotFound = errors.New("not found")
	// ErrPermission - сущность существует, но принадлежит другому аккаунту.
	ErrPermission = errors.New("permission denied")
	// ErrAuth - неверные учётные данные или неподтверждённый email.
	ErrAuth = errors.New("authentication failed")

	// ErrStorage - инфраструктурный сбой хранилища, не доменная ошибка.
	ErrStorage = errors.New("storage failure")
)

// Error - доменная ошибка с видом и читаемым сообщением.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }
func Conflictf(format string, args ...any) error { return newError(ErrConflict, format, args...) }
func NotFoundf(format string, args ...any) error { return newError(ErrNotFound, format, args...) }
func Permissionf(format string, args ...any) error { return newError(ErrPermission, format, args...) }
func Authf(format string, args ...any) error { return newError(ErrAuth, format, args...) }

// KindOf возвращает вид ошибки или nil, если ошибка не относится ни к одному из них.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrPermission, ErrAuth, ErrStorage} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
