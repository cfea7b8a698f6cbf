package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ActorKind identifies which directory an actor lives in.
type ActorKind string

const (
	KindAdmin     ActorKind = "admin"
	KindOperative ActorKind = "operative"
)

// MaxPasswordBytes is the longest password bcrypt will accept.
const MaxPasswordBytes = 72

const minPasswordLength = 8

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
	validate        = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", validUsername); err != nil {
		panic(fmt.Sprintf("domain: register username validation: %v", err))
	}
	return v
}

func validUsername(fl validator.FieldLevel) bool {
	return ValidUsername(fl.Field().String())
}

// ValidUsername reports whether s is 3-32 letters, digits, '_', '.' or '-'.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ParseActorKind converts a wire value into an ActorKind.
func ParseActorKind(s string) (ActorKind, error) {
	switch k := ActorKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAdmin, KindOperative:
		return k, nil
	default:
		return "", ErrUnknownActorKind
	}
}

func (k ActorKind) String() string { return string(k) }

// Actor is an authenticated principal. Administrators and operative users
// share this shape and differ only in the directory that stores them.
type Actor struct {
	ID             string     `json:"id"`
	Kind           ActorKind  `json:"kind"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	PasswordDigest string     `json:"-"`
	Enabled        bool       `json:"enabled"`
	RefreshDigest  *string    `json:"-"`
	RecoveryID     *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// NewActor validates the identity fields and returns an enabled actor with no
// active session. Email is normalised to lower case.
func NewActor(kind ActorKind, email, username string, now time.Time) (*Actor, error) {
	if _, err := ParseActorKind(string(kind)); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return nil, fmt.Errorf("%w: email is not a valid address", ErrValidation)
	}
	if err := validate.Var(username, "required,username"); err != nil {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of letters, digits, '_', '.' or '-'", ErrValidation)
	}

	now = now.UTC()
	return &Actor{
		Kind:      kind,
		Email:     email,
		Username:  username,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidatePassword enforces the plaintext password policy.
func ValidatePassword(password string) error {
	if err := validate.Var(password, fmt.Sprintf("required,min=%d", minPasswordLength)); err != nil {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	}
	return nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasSession reports whether the actor currently holds a refresh secret.
func (a *Actor) HasSession() bool {
	return a.RefreshDigest != nil && *a.RefreshDigest != ""
}

// Deleted reports whether the actor has been soft-deleted.
func (a *Actor) Deleted() bool {
	return a.DeletedAt != nil
}

// Subject returns the token claims describing this actor.
func (a *Actor) Subject() TokenSubject {
	return TokenSubject{
		ID:       a.ID,
		Email:    a.Email,
		Username: a.Username,
		Kind:     a.Kind,
	}
}

// ActorSummary is the outward view of an actor returned by session operations.
type ActorSummary struct {
	ID       string    `json:"id"`
	Kind     ActorKind `json:"kind"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Enabled  bool      `json:"enabled"`
}

func (a *Actor) Summary() ActorSummary {
	return ActorSummary{
		ID:       a.ID,
		Kind:     a.Kind,
		Email:    a.Email,
		Username: a.Username,
		Enabled:  a.Enabled,
	}
}
