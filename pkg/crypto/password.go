// Package crypto wraps password hashing for the identity service.
package crypto

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the stored one-way form of a submitted password using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword checks plaintext against the stored hash. bcrypt performs the
// comparison in constant time.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}
