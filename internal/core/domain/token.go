package domain

import "time"

// TokenSubject carries the identity claims embedded in every token.
type TokenSubject struct {
	ID       string
	Email    string
	Username string
	Kind     ActorKind
}

// Claims is the decoded payload of an access or refresh token. TokenID is
// only present on refresh tokens.
type Claims struct {
	Subject   string
	Email     string
	Username  string
	Kind      ActorKind
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool {
	return c.TokenID != ""
}

// TokenPair is an access token and the refresh token that can renew it.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
