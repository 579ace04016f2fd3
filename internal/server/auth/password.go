package auth

import (
	"github.com/dmitrijs2005/messenger/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// SaltPassword derives a salted hash suitable for storage.
func SaltPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a candidate password against a stored salted hash
// and returns common.ErrUnauthorized on mismatch.
func VerifyPassword(saltedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(saltedPassword), []byte(password)); err != nil {
		return common.ErrUnauthorized
	}
	return nil
}
