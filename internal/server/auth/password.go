package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns the bcrypt digest of password.
func HashPassword(password string, cost int) ([]byte, error) {
	if password == "" {
		return nil, common.ErrValidation
	}
	if len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, MaxPasswordBytes)
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// ComparePassword reports common.ErrInvalidCredentials when password does not
// match hash.
func ComparePassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return common.ErrInvalidCredentials
		}
		return err
	}
	return nil
}
