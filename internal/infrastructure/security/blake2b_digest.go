package security

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Blake2bDigest implements ports.SecretDigest as keyed BLAKE2b-256, hex encoded.
// The key is a server-side pepper and may be empty.
type Blake2bDigest struct {
	key []byte
}

func NewBlake2bDigest(pepper string) (*Blake2bDigest, error) {
	if len(pepper) > blake2b.Size {
		return nil, fmt.Errorf("refresh digest pepper must be at most %d bytes", blake2b.Size)
	}
	return &Blake2bDigest{key: []byte(pepper)}, nil
}

func (d *Blake2bDigest) Digest(secret string) string {
	// key length is checked in the constructor
	h, _ := blake2b.New256(d.key)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify re-digests secret and compares it with storedDigest in constant time.
func (d *Blake2bDigest) Verify(secret, storedDigest string) bool {
	computed := d.Digest(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}
