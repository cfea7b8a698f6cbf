package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

var testSubject = domain.TokenSubject{
	ID:       "64b7f0c2a1b2c3d4e5f60718",
	Email:    "a@x.com",
	Username: "alice",
	Kind:     domain.KindAdmin,
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func payload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	b, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestNewJWTIssuer_RequiresSecret(t *testing.T) {
	_, err := NewJWTIssuer("")
	assert.Error(t, err)
}

func TestGeneratePair_WireShape(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss, err := NewJWTIssuer("s3cret", WithNowFunc(fixedClock(now)), WithTokenExpiry(time.Hour, 48*time.Hour))
	require.NoError(t, err)

	pair, err := iss.GeneratePair(testSubject)
	require.NoError(t, err)

	access := payload(t, pair.AccessToken)
	assert.Equal(t, testSubject.ID, access["sub"])
	assert.Equal(t, "a@x.com", access["email"])
	assert.Equal(t, "alice", access["username"])
	assert.Equal(t, "admin", access["type"])
	assert.EqualValues(t, now.Unix(), access["iat"])
	assert.EqualValues(t, now.Add(time.Hour).Unix(), access["exp"])
	assert.NotContains(t, access, "tokenId")

	refresh := payload(t, pair.RefreshToken)
	assert.EqualValues(t, now.Add(48*time.Hour).Unix(), refresh["exp"])
	assert.NotEmpty(t, refresh["tokenId"])

	assert.Equal(t, now.Add(time.Hour), pair.AccessExpiresAt)
	assert.Equal(t, now.Add(48*time.Hour), pair.RefreshExpiresAt)
}

func TestGeneratePair_RefreshTokensNeverIdentical(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss, err := NewJWTIssuer("s3cret", WithNowFunc(fixedClock(now)))
	require.NoError(t, err)

	a, err := iss.GeneratePair(testSubject)
	require.NoError(t, err)
	b, err := iss.GeneratePair(testSubject)
	require.NoError(t, err)

	assert.Equal(t, a.AccessToken, b.AccessToken)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestVerify(t *testing.T) {
	now := time.Now()
	iss, err := NewJWTIssuer("s3cret", WithIssuer("console"), WithNowFunc(fixedClock(now)))
	require.NoError(t, err)
	pair, err := iss.GeneratePair(testSubject)
	require.NoError(t, err)

	claims, err := iss.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, testSubject.ID, claims.Subject)
	assert.Equal(t, domain.KindAdmin, claims.Kind)
	assert.True(t, claims.IsRefresh())

	claims, err = iss.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.IsRefresh())
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Now()
	iss, err := NewJWTIssuer("s3cret", WithNowFunc(fixedClock(now)))
	require.NoError(t, err)
	pair, err := iss.GeneratePair(testSubject)
	require.NoError(t, err)

	other, err := NewJWTIssuer("different", WithNowFunc(fixedClock(now)))
	require.NoError(t, err)
	later, err := NewJWTIssuer("s3cret", WithNowFunc(fixedClock(now.Add(8*24*time.Hour))))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "exp": now.Add(time.Hour).Unix()})
	noneRaw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *JWTIssuer
		raw    string
	}{
		{"wrong secret", other, pair.AccessToken},
		{"expired", later, pair.RefreshToken},
		{"garbage", iss, "not.a.jwt"},
		{"alg none", iss, noneRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Verify(tt.raw)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestDecodeUnverified(t *testing.T) {
	iss, err := NewJWTIssuer("s3cret")
	require.NoError(t, err)
	pair, err := iss.GeneratePair(domain.TokenSubject{ID: "u1", Kind: domain.KindOperative})
	require.NoError(t, err)

	other, err := NewJWTIssuer("anything")
	require.NoError(t, err)
	claims, err := other.DecodeUnverified(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.KindOperative, claims.Kind)
	assert.Equal(t, "u1", claims.Subject)

	_, err = other.DecodeUnverified("garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
