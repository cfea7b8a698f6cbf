package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// actorClaims is the wire shape of both tokens. TokenID is only set on refresh tokens.
type actorClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"type"`
	TokenID  string `json:"tokenId,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer implements ports.TokenIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type IssuerOption func(*JWTIssuer)

func WithTokenExpiry(accessTTL, refreshTTL time.Duration) IssuerOption {
	return func(i *JWTIssuer) {
		i.accessTTL = accessTTL
		i.refreshTTL = refreshTTL
	}
}

func WithIssuer(issuer string) IssuerOption {
	return func(i *JWTIssuer) {
		i.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *JWTIssuer) {
		i.nowFunc = now
	}
}

func NewJWTIssuer(secret string, options ...IssuerOption) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	i := &JWTIssuer{secret: []byte(secret)}
	for _, opt := range options {
		opt(i)
	}

	if i.accessTTL <= 0 {
		i.accessTTL = defaultAccessTTL
	}
	if i.refreshTTL <= 0 {
		i.refreshTTL = defaultRefreshTTL
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i, nil
}

// GeneratePair signs an access token and a refresh token for subject. Every
// refresh token gets a fresh random tokenId.
func (i *JWTIssuer) GeneratePair(subject domain.TokenSubject) (domain.TokenPair, error) {
	now := i.nowFunc().UTC()
	accessExp := now.Add(i.accessTTL)
	refreshExp := now.Add(i.refreshTTL)

	access, err := i.sign(i.claims(subject, now, accessExp, ""))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(i.claims(subject, now, refreshExp, uuid.NewString()))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp.Truncate(time.Second),
		RefreshExpiresAt: refreshExp.Truncate(time.Second),
	}, nil
}

// DecodeUnverified reads the claims without checking signature or expiry.
func (i *JWTIssuer) DecodeUnverified(raw string) (*domain.Claims, error) {
	var claims actorClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return toDomain(&claims), nil
}

// Verify checks the signature, algorithm, expiry and issuer of raw.
func (i *JWTIssuer) Verify(raw string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.nowFunc),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims actorClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return toDomain(&claims), nil
}

func (i *JWTIssuer) claims(subject domain.TokenSubject, now, exp time.Time, tokenID string) actorClaims {
	return actorClaims{
		Email:    subject.Email,
		Username: subject.Username,
		Type:     string(subject.Kind),
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func (i *JWTIssuer) sign(claims actorClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func toDomain(c *actorClaims) *domain.Claims {
	out := &domain.Claims{
		Subject:  c.Subject,
		Email:    c.Email,
		Username: c.Username,
		Kind:     domain.ActorKind(c.Type),
		TokenID:  c.TokenID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
