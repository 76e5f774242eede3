package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the floor of the password policy.
const MinPasswordLength = 8

// CheckPasswordPolicy reports whether the password has at least eight
// characters with one upper, one lower, one digit and one symbol.
func CheckPasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return ErrWeakPassword
	}

	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
