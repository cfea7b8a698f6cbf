package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// BcryptHasher implements ports.CredentialHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside bcrypt's
// accepted range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches digest. A malformed digest never matches.
func (h *BcryptHasher) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
