package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/storage"
)

// Credentials - регистрация, вход и подтверждение email.
type Credentials interface {
	Register(ctx context.Context, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*domain.Account, error)
	ConfirmEmail(ctx context.Context, email string) error
	Account(ctx context.Context, id string) (*domain.Account, error)
}

// CredentialManager реализует Credentials. От других менеджеров не зависит.
type CredentialManager struct {
	store  storage.Storage
	hasher PasswordHasher
	opts   options

	// dummyHash сравнивается с паролем, когда аккаунта нет, чтобы время
	// ответа не выдавало существование email
	dummyHash string
}

var _ Credentials = (*CredentialManager)(nil)

// NewCredentialManager заранее строит фиктивный дайджест тем же хешером.
func NewCredentialManager(store storage.Storage, hasher PasswordHasher, opts ...Option) (*CredentialManager, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &CredentialManager{
		store:     store,
		hasher:    hasher,
		opts:      newOptions(opts),
		dummyHash: dummy,
	}, nil
}

func (m *CredentialManager) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	if err := check(registerInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	if len(password) > domain.MaxPasswordBytes {
		return nil, domain.Validationf("password must be at most %d bytes", domain.MaxPasswordBytes)
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		Email:          email,
		DisplayName:    displayName(email),
		PasswordHash:   hash,
		RegisteredAt:   m.opts.now(),
		EmailConfirmed: false,
	}
	// Проверки существования нет: дубль отсекает уникальный индекс при вставке
	if err := m.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, domain.Conflictf("email %q is already taken", email)
		}
		return nil, translate("register", err)
	}

	m.opts.logger.InfoContext(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

func (m *CredentialManager) Login(ctx context.Context, email, password string) (*domain.Account, error) {
	account, err := m.store.GetAccountByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, translate("login", err)
	}

	if account == nil {
		_ = m.hasher.Compare(m.dummyHash, password)
		return nil, domain.Authf("invalid credentials")
	}
	if err := m.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, domain.Authf("invalid credentials")
	}
	if !account.EmailConfirmed {
		return nil, domain.Authf("email not confirmed")
	}
	return account, nil
}

// ConfirmEmail идемпотентна: повторное подтверждение не ошибка.
func (m *CredentialManager) ConfirmEmail(ctx context.Context, email string) error {
	account, err := m.store.ConfirmAccountEmail(ctx, email)
	if err != nil {
		return translate("confirm email", err)
	}
	m.opts.logger.InfoContext(ctx, "email confirmed", "account_id", account.ID)
	return nil
}

func (m *CredentialManager) Account(ctx context.Context, id string) (*domain.Account, error) {
	account, err := m.store.GetAccountByID(ctx, id)
	if err != nil {
		return nil, translate("get account", err)
	}
	return account, nil
}

// displayName - локальная часть email, обрезанная до domain.MaxNameLength символов.
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if r := []rune(local); len(r) > domain.MaxNameLength {
		return string(r[:domain.MaxNameLength])
	}
	return local
}
