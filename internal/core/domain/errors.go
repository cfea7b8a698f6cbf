package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrActorNotFound      = errors.New("actor not found")
	ErrActorExists        = errors.New("actor already exists")
	ErrValidation         = errors.New("validation failed")
	ErrTooManyAttempts    = errors.New("too many login attempts")

	// ErrSessionSuperseded means registration stored the actor but another
	// writer replaced its first session before it could be handed out.
	ErrSessionSuperseded = errors.New("account created but its session was superseded")
)

// ErrUnknownActorKind is returned when a request names an actor kind that has
// no directory registered for it.
var ErrUnknownActorKind = fmt.Errorf("%w: unknown actor kind", ErrValidation)
