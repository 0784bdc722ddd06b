package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the hashing cost for stored credentials.
const BcryptCost = 12

// BcryptHasher hashes passwords with bcrypt. It satisfies the lifecycle
// layer's PasswordHasher capability; the hasher is passed in explicitly
// rather than reached through a package global.
type BcryptHasher struct{}

// Hash hashes a password.
func (BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword verifies a password against its stored hash.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
