// Package password supplies the credential-hashing primitive consumed by
// the auth engine. The engine itself only sees the Hasher interface; this
// bcrypt implementation matches the hashes the user store already holds.
package password

import "golang.org/x/crypto/bcrypt"

// DefaultCost matches the cost the user store's existing hashes were
// produced with.
const DefaultCost = 12

// BcryptHasher hashes and verifies passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with DefaultCost.
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{cost: DefaultCost}
}

// NewBcryptHasherWithCost returns a hasher with an explicit cost,
// clamped to the bcrypt-supported range.
func NewBcryptHasherWithCost(cost int) BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. Any error, including a
// malformed hash, reads as a mismatch.
func (h BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
