package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Work factor for password hashing. Deliberately above bcrypt.DefaultCost:
// login latency is an acceptable price for slower offline cracking.
const bcryptCost = 12

// Bcrypt password hasher
// Will be used as default one if caller not provide its own
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
