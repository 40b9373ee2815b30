package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password bounds. bcrypt ignores bytes past 72, so the maximum stays below it.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 64
)

var ErrPasswordPolicy = errors.New("password must be 6-64 printable characters")

// ValidPassword accepts printable ASCII within the length bounds.
func ValidPassword(s string) bool {
	if l := len(s); l < MinPasswordLength || l > MaxPasswordLength {
		return false
	}
	for _, r := range s {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}

// HashPassword returns the bcrypt hash of an acceptable password.
func HashPassword(password string) (string, error) {
	if !ValidPassword(password) {
		return "", ErrPasswordPolicy
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if len(password) > MaxPasswordLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
