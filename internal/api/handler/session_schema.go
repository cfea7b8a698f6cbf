package handler

import (
	"time"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

type loginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	ActorKind string `json:"actor_kind" validate:"required,actor_kind"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	// ActorKind is optional; the token's own claims are used when it is empty.
	ActorKind string `json:"actor_kind,omitempty" validate:"omitempty,actor_kind"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type actorResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Enabled  bool   `json:"enabled"`
}

type tokensResponse struct {
	TokenType        string `json:"token_type"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}

type sessionResponse struct {
	Actor  actorResponse  `json:"actor"`
	Tokens tokensResponse `json:"tokens"`
}

type logoutResponse struct {
	Message             string `json:"message"`
	SessionsInvalidated int    `json:"sessions_invalidated"`
}

// normalizedKind canonicalises a validated actor_kind. An absent kind stays
// empty so Refresh can route by the token's own claim.
func normalizedKind(raw string) domain.ActorKind {
	kind, _ := domain.ParseActorKind(raw)
	return kind
}

func toActorResponse(a domain.ActorSummary) actorResponse {
	return actorResponse{
		ID:       a.ID,
		Kind:     string(a.Kind),
		Email:    a.Email,
		Username: a.Username,
		Enabled:  a.Enabled,
	}
}

func toSessionResponse(r *ports.SessionResult, now time.Time) sessionResponse {
	expiresIn := int64(r.Tokens.AccessExpiresAt.Sub(now).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return sessionResponse{
		Actor: toActorResponse(r.Actor),
		Tokens: tokensResponse{
			TokenType:        "Bearer",
			AccessToken:      r.Tokens.AccessToken,
			RefreshToken:     r.Tokens.RefreshToken,
			ExpiresIn:        expiresIn,
			AccessExpiresAt:  r.Tokens.AccessExpiresAt.UTC().Format(time.RFC3339),
			RefreshExpiresAt: r.Tokens.RefreshExpiresAt.UTC().Format(time.RFC3339),
		},
	}
}
