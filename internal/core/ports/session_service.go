package ports

import (
	"context"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

// LoginInput is the DTO passed from the transport layer to Login.
type LoginInput struct {
	Email    string
	Password string
	Kind     domain.ActorKind
}

// RefreshInput carries a refresh token. Kind is optional; when empty the
// token's own claims decide which directory is searched.
type RefreshInput struct {
	RefreshToken string
	Kind         domain.ActorKind
}

type LogoutInput struct {
	ActorID     string
	Kind        domain.ActorKind
	AllSessions bool
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type SetEnabledInput struct {
	ActorID string
	Kind    domain.ActorKind
	Enabled bool
}

// SessionResult is returned by every operation that opens a session.
type SessionResult struct {
	Actor  domain.ActorSummary
	Tokens domain.TokenPair
}

// SetEnabledResult reports the actor after the change and whether a live
// session was ended by it.
type SetEnabledResult struct {
	Actor               domain.ActorSummary
	SessionsInvalidated int
}

type LogoutResult struct {
	Message             string
	SessionsInvalidated int
}

// SessionService defines the session and credential lifecycle use cases.
type SessionService interface {
	Login(ctx context.Context, input LoginInput) (*SessionResult, error)
	Refresh(ctx context.Context, input RefreshInput) (*SessionResult, error)
	Logout(ctx context.Context, input LogoutInput) (*LogoutResult, error)
	RegisterUser(ctx context.Context, input RegisterInput) (*SessionResult, error)
	RegisterAdmin(ctx context.Context, input RegisterInput) (*SessionResult, error)
	SetEnabled(ctx context.Context, input SetEnabledInput) (*SetEnabledResult, error)
}
