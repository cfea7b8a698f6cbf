package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", digest)

	assert.True(t, h.Compare("correct horse", digest))
	assert.False(t, h.Compare("wrong horse", digest))
	assert.False(t, h.Compare("correct horse", "not-a-bcrypt-digest"))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}

func TestBcryptHasher_RejectsOverlongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestBlake2bDigest_Deterministic(t *testing.T) {
	d, err := NewBlake2bDigest("pepper")
	require.NoError(t, err)

	first := d.Digest("secret-token")
	assert.Equal(t, first, d.Digest("secret-token"))
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, d.Digest("secret-tokeN"))
}

func TestBlake2bDigest_PepperChangesDigest(t *testing.T) {
	plain, err := NewBlake2bDigest("")
	require.NoError(t, err)
	peppered, err := NewBlake2bDigest("pepper")
	require.NoError(t, err)

	assert.NotEqual(t, plain.Digest("secret"), peppered.Digest("secret"))
}

func TestBlake2bDigest_Verify(t *testing.T) {
	d, err := NewBlake2bDigest("k")
	require.NoError(t, err)
	stored := d.Digest("refresh")

	assert.True(t, d.Verify("refresh", stored))
	assert.False(t, d.Verify("other", stored))
	assert.False(t, d.Verify("refresh", ""))
	assert.False(t, d.Verify("refresh", stored[:10]))
}

func TestNewBlake2bDigest_RejectsLongPepper(t *testing.T) {
	_, err := NewBlake2bDigest(strings.Repeat("p", 65))
	assert.Error(t, err)
}
