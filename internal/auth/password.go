package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the work factor the API has always used.
const bcryptCost = 10

// HashPassword derives a salted one-way hash from the plaintext.
// The plaintext must never be logged or persisted.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// Comparison is constant-time inside bcrypt.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
