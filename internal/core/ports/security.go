package ports

import (
	"context"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

// CredentialHasher hashes low-entropy, user-chosen passwords with an adaptive algorithm.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// SecretDigest hashes high-entropy machine-generated secrets.
type SecretDigest interface {
	Digest(secret string) string
	Verify(secret, storedDigest string) bool
}

// TokenIssuer mints and reads signed bearer tokens.
type TokenIssuer interface {
	GeneratePair(subject domain.TokenSubject) (domain.TokenPair, error)
	// DecodeUnverified parses claims without checking the signature. The
	// result may only be used to pick which directory to search.
	DecodeUnverified(token string) (*domain.Claims, error)
	Verify(token string) (*domain.Claims, error)
}

// LoginThrottle limits login attempts per key. Acquire must check and count
// in one atomic step; Reset is called after a successful login.
type LoginThrottle interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
