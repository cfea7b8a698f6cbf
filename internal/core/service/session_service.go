package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

// pendingSubject stands in for the actor id on tokens minted before the actor exists.
const pendingSubject = "pending"

// Directories maps every supported actor kind to the directory that stores it.
type Directories map[domain.ActorKind]ports.ActorDirectory

// Security groups the stateless collaborators the session flows depend on.
type Security struct {
	Hasher ports.CredentialHasher
	Digest ports.SecretDigest
	Tokens ports.TokenIssuer
}

// SessionService implements ports.SessionService.
type SessionService struct {
	directories Directories
	hasher      ports.CredentialHasher
	digest      ports.SecretDigest
	tokens      ports.TokenIssuer
	throttle    ports.LoginThrottle
	audit       ports.SessionAudit
	log         zerolog.Logger
	nowFunc     func() time.Time

	// dummyDigest is compared against when the email is unknown so both
	// failure paths pay for one hash comparison.
	dummyDigest string
}

var _ ports.SessionService = (*SessionService)(nil)

type SessionOption func(*SessionService)

// WithLoginThrottle limits login attempts per kind and email until one succeeds.
func WithLoginThrottle(t ports.LoginThrottle) SessionOption {
	return func(s *SessionService) {
		s.throttle = t
	}
}

// WithSessionAudit sends every session transition to a.
func WithSessionAudit(a ports.SessionAudit) SessionOption {
	return func(s *SessionService) {
		s.audit = a
	}
}

func WithNowFunc(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		s.nowFunc = now
	}
}

// NewSessionService wires the session use cases. It hashes a random value up
// front to obtain the dummy digest, so construction costs one hash.
func NewSessionService(directories Directories, sec Security, log zerolog.Logger, options ...SessionOption) (*SessionService, error) {
	if len(directories) == 0 {
		return nil, errors.New("at least one actor directory is required")
	}
	for kind, dir := range directories {
		if dir == nil {
			return nil, fmt.Errorf("directory for %q is nil", kind)
		}
	}
	if sec.Hasher == nil || sec.Digest == nil || sec.Tokens == nil {
		return nil, errors.New("hasher, digest and token issuer are required")
	}

	dummy, err := sec.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("precompute dummy digest: %w", err)
	}

	s := &SessionService{
		directories: directories,
		hasher:      sec.Hasher,
		digest:      sec.Digest,
		tokens:      sec.Tokens,
		log:         log,
		nowFunc:     time.Now,
		dummyDigest: dummy,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login authenticates an actor by email and password and opens its session,
// replacing any session it already had.
func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.SessionResult, error) {
	dir, err := s.directory(in.Kind)
	if err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)
	throttleKey := string(in.Kind) + ":" + email

	if s.throttle != nil {
		allowed, terr := s.throttle.Acquire(ctx, throttleKey)
		if terr != nil {
			s.log.Warn().Err(terr).Str("actor_kind", in.Kind.String()).Msg("login throttle check failed, continuing")
		} else if !allowed {
			s.log.Warn().Str("actor_kind", in.Kind.String()).Str("email", email).Msg("login throttled")
			s.record(domain.EventLogin, in.Kind, "", email, false, "throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	actor, err := dir.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrActorNotFound) {
		return nil, fmt.Errorf("login: %w", err)
	}

	stored := s.dummyDigest
	if actor != nil {
		stored = actor.PasswordDigest
	}
	matched := s.hasher.Compare(in.Password, stored)

	if actor == nil || !matched {
		s.log.Debug().Str("actor_kind", in.Kind.String()).Msg("login rejected")
		s.record(domain.EventLogin, in.Kind, "", email, false, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if !actor.Enabled {
		s.record(domain.EventLogin, in.Kind, actor.ID, email, false, "disabled")
		return nil, domain.ErrAccountDisabled
	}

	if s.throttle != nil {
		if terr := s.throttle.Reset(ctx, throttleKey); terr != nil {
			s.log.Warn().Err(terr).Str("actor_kind", in.Kind.String()).Msg("login throttle reset failed")
		}
	}

	pair, digest, err := s.issue(actor)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if _, err := dir.Update(ctx, actor.ID, ports.ActorUpdate{RefreshDigest: &digest}); err != nil {
		return nil, fmt.Errorf("login: persist session: %w", err)
	}

	s.log.Info().Str("actor_kind", in.Kind.String()).Str("actor_id", actor.ID).Msg("login succeeded")
	s.record(domain.EventLogin, in.Kind, actor.ID, email, true, "")
	return &ports.SessionResult{Actor: actor.Summary(), Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair and rotates the stored
// digest. The presented token is unusable afterwards.
func (s *SessionService) Refresh(ctx context.Context, in ports.RefreshInput) (*ports.SessionResult, error) {
	if in.RefreshToken == "" {
		return nil, domain.ErrInvalidToken
	}

	kind := in.Kind
	if kind == "" {
		// Routing only: a forged claim cannot match a stored digest.
		claims, err := s.tokens.DecodeUnverified(in.RefreshToken)
		if err != nil {
			return nil, domain.ErrInvalidToken
		}
		kind = claims.Kind
		if _, ok := s.directories[kind]; !ok {
			return nil, domain.ErrInvalidToken
		}
		s.log.Debug().Str("actor_kind", kind.String()).Msg("refresh routed by unverified claims")
	}
	dir, err := s.directory(kind)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verify(in.RefreshToken)
	if err != nil || !claims.IsRefresh() || claims.Kind != kind {
		return nil, domain.ErrInvalidToken
	}

	presented := s.digest.Digest(in.RefreshToken)
	actor, err := dir.FindByRefreshDigest(ctx, presented)
	if errors.Is(err, domain.ErrActorNotFound) {
		s.record(domain.EventRefresh, kind, claims.Subject, "", false, "unknown_token")
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if actor.RefreshDigest == nil || !s.digest.Verify(in.RefreshToken, *actor.RefreshDigest) || actor.ID != claims.Subject {
		return nil, domain.ErrInvalidToken
	}
	if !actor.Enabled {
		s.record(domain.EventRefresh, kind, actor.ID, actor.Email, false, "disabled")
		return nil, domain.ErrAccountDisabled
	}

	pair, next, err := s.issue(actor)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	swapped, err := dir.SwapRefreshDigest(ctx, actor.ID, *actor.RefreshDigest, next)
	if err != nil {
		return nil, fmt.Errorf("refresh: rotate session: %w", err)
	}
	if !swapped {
		s.log.Warn().Str("actor_kind", kind.String()).Str("actor_id", actor.ID).Msg("refresh lost rotation race")
		s.record(domain.EventRefresh, kind, actor.ID, actor.Email, false, "rotation_race")
		return nil, domain.ErrInvalidToken
	}

	s.log.Info().Str("actor_kind", kind.String()).Str("actor_id", actor.ID).Msg("session rotated")
	s.record(domain.EventRefresh, kind, actor.ID, actor.Email, true, "")
	return &ports.SessionResult{Actor: actor.Summary(), Tokens: pair}, nil
}

// Logout clears the actor's refresh digest. Calling it again is harmless.
// Only one session is tracked per actor, so AllSessions changes nothing.
func (s *SessionService) Logout(ctx context.Context, in ports.LogoutInput) (*ports.LogoutResult, error) {
	dir, err := s.directory(in.Kind)
	if err != nil {
		return nil, err
	}
	actor, err := dir.FindByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	invalidated := 0
	if actor.HasSession() {
		invalidated = 1
	}
	if _, err := dir.Update(ctx, actor.ID, ports.ActorUpdate{ClearRefreshDigest: true}); err != nil {
		return nil, fmt.Errorf("logout: %w", err)
	}

	s.log.Info().
		Str("actor_kind", in.Kind.String()).
		Str("actor_id", actor.ID).
		Bool("all_sessions", in.AllSessions).
		Int("sessions_invalidated", invalidated).
		Msg("logged out")
	s.record(domain.EventLogout, in.Kind, actor.ID, actor.Email, true, "")
	return &ports.LogoutResult{Message: "logged out", SessionsInvalidated: invalidated}, nil
}

// RegisterUser creates an operative user with an active session.
func (s *SessionService) RegisterUser(ctx context.Context, in ports.RegisterInput) (*ports.SessionResult, error) {
	return s.register(ctx, domain.KindOperative, in)
}

// RegisterAdmin creates an administrator with an active session.
func (s *SessionService) RegisterAdmin(ctx context.Context, in ports.RegisterInput) (*ports.SessionResult, error) {
	return s.register(ctx, domain.KindAdmin, in)
}

// register stores the actor atomically with a preliminary session digest,
// then mints the pair for the real id and swaps its digest in. The returned
// refresh token is the one stored.
func (s *SessionService) register(ctx context.Context, kind domain.ActorKind, in ports.RegisterInput) (*ports.SessionResult, error) {
	dir, err := s.directory(kind)
	if err != nil {
		return nil, err
	}

	actor, err := domain.NewActor(kind, in.Email, in.Username, s.nowFunc())
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, dir, actor); err != nil {
		return nil, err
	}

	actor.PasswordDigest, err = s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	pending := actor.Subject()
	pending.ID = pendingSubject
	preliminary, err := s.tokens.GeneratePair(pending)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	preliminaryDigest := s.digest.Digest(preliminary.RefreshToken)

	created, err := dir.CreateWithRefreshDigest(ctx, actor, preliminaryDigest)
	if err != nil {
		if errors.Is(err, domain.ErrActorExists) {
			s.record(domain.EventRegister, kind, "", actor.Email, false, "conflict")
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	pair, finalDigest, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	swapped, err := dir.SwapRefreshDigest(ctx, created.ID, preliminaryDigest, finalDigest)
	if err != nil {
		return nil, fmt.Errorf("register: persist session: %w", err)
	}
	if !swapped {
		s.log.Warn().
			Str("actor_kind", kind.String()).
			Str("actor_id", created.ID).
			Str("email", created.Email).
			Msg("actor registered but its session was replaced before it was returned")
		s.record(domain.EventRegister, kind, created.ID, created.Email, false, "session_superseded")
		return nil, fmt.Errorf("register %s %s: %w", kind, created.ID, domain.ErrSessionSuperseded)
	}

	s.log.Info().Str("actor_kind", kind.String()).Str("actor_id", created.ID).Msg("actor registered")
	s.record(domain.EventRegister, kind, created.ID, created.Email, true, "")
	return &ports.SessionResult{Actor: created.Summary(), Tokens: pair}, nil
}

// SetEnabled flips the enabled flag. Disabling also ends the actor's session
// in the same update.
func (s *SessionService) SetEnabled(ctx context.Context, in ports.SetEnabledInput) (*ports.SetEnabledResult, error) {
	dir, err := s.directory(in.Kind)
	if err != nil {
		return nil, err
	}
	current, err := dir.FindByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	invalidated := 0
	if !in.Enabled && current.HasSession() {
		invalidated = 1
	}

	enabled := in.Enabled
	update := ports.ActorUpdate{Enabled: &enabled, ClearRefreshDigest: !enabled}
	updated, err := dir.Update(ctx, in.ActorID, update)
	if err != nil {
		if errors.Is(err, domain.ErrActorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("set enabled: %w", err)
	}

	eventType := domain.EventEnable
	if !enabled {
		eventType = domain.EventDisable
	}
	s.log.Info().Str("actor_kind", in.Kind.String()).Str("actor_id", updated.ID).Bool("enabled", enabled).Msg("actor access changed")
	s.record(eventType, in.Kind, updated.ID, updated.Email, true, "")

	return &ports.SetEnabledResult{Actor: updated.Summary(), SessionsInvalidated: invalidated}, nil
}

func (s *SessionService) directory(kind domain.ActorKind) (ports.ActorDirectory, error) {
	dir, ok := s.directories[kind]
	if !ok {
		return nil, domain.ErrUnknownActorKind
	}
	return dir, nil
}

func (s *SessionService) ensureUnique(ctx context.Context, dir ports.ActorDirectory, actor *domain.Actor) error {
	if _, err := dir.FindByEmail(ctx, actor.Email); err == nil {
		return domain.ErrActorExists
	} else if !errors.Is(err, domain.ErrActorNotFound) {
		return fmt.Errorf("register: %w", err)
	}
	if _, err := dir.FindByUsername(ctx, actor.Username); err == nil {
		return domain.ErrActorExists
	} else if !errors.Is(err, domain.ErrActorNotFound) {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// issue mints a pair for actor and digests its refresh token.
func (s *SessionService) issue(actor *domain.Actor) (domain.TokenPair, string, error) {
	pair, err := s.tokens.GeneratePair(actor.Subject())
	if err != nil {
		return domain.TokenPair{}, "", err
	}
	return pair, s.digest.Digest(pair.RefreshToken), nil
}

func (s *SessionService) record(t domain.SessionEventType, kind domain.ActorKind, actorID, email string, success bool, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.SessionEvent{
		Type:      t,
		Kind:      kind,
		ActorID:   actorID,
		Email:     email,
		Success:   success,
		Reason:    reason,
		Timestamp: s.nowFunc().UTC(),
	})
}
