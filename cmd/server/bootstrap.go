package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
	"github.com/pricewatch/console-auth/internal/pkg/config"
)

type adminRegistrar interface {
	RegisterAdmin(ctx context.Context, in ports.RegisterInput) (*ports.SessionResult, error)
}

// bootstrapAdmin creates the configured administrator when no administrator
// with that email exists yet. It reports whether an account was created.
func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, admins ports.ActorDirectory, sessions adminRegistrar, log zerolog.Logger) (bool, error) {
	if cfg.Email == "" {
		return false, nil
	}

	_, err := admins.FindByEmail(ctx, domain.NormalizeEmail(cfg.Email))
	switch {
	case err == nil:
		log.Debug().Str("email", cfg.Email).Msg("bootstrap admin already present")
		return false, nil
	case !errors.Is(err, domain.ErrActorNotFound):
		return false, fmt.Errorf("bootstrap admin lookup: %w", err)
	}

	res, err := sessions.RegisterAdmin(ctx, ports.RegisterInput{
		Email:    cfg.Email,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info().Str("actor_id", res.Actor.ID).Str("email", res.Actor.Email).Msg("bootstrap admin created")
	return true, nil
}
