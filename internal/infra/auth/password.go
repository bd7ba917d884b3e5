package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoAdminPassword = errors.New("admin password is not configured")

// BcryptVerifier confere a senha do painel contra um hash bcrypt.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier usa hash quando informado; senão gera o hash da senha em texto.
func NewBcryptVerifier(plain, hash string) (*BcryptVerifier, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, err
		}
		return &BcryptVerifier{hash: []byte(hash)}, nil
	}
	if plain == "" {
		return nil, ErrNoAdminPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &BcryptVerifier{hash: h}, nil
}

func (v *BcryptVerifier) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
}
