package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher строит и сверяет необратимый дайджест пароля.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare возвращает nil, если пароль соответствует дайджесту.
	Compare(hash, password string) error
}

// BcryptHasher реализует PasswordHasher через bcrypt. Соль входит в дайджест.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает хешер; cost вне допустимого диапазона заменяется на bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
