// @title           Console Auth API
// @version         1.0
// @description     Session and credential lifecycle for console administrators and operative users.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch/console-auth/internal/api"
	"github.com/pricewatch/console-auth/internal/api/handler"
	"github.com/pricewatch/console-auth/internal/core/service"
	mongodb "github.com/pricewatch/console-auth/internal/infrastructure/db/mongo"
	redisdb "github.com/pricewatch/console-auth/internal/infrastructure/db/redis"
	"github.com/pricewatch/console-auth/internal/infrastructure/queue"
	"github.com/pricewatch/console-auth/internal/infrastructure/security"
	"github.com/pricewatch/console-auth/internal/infrastructure/token"
	"github.com/pricewatch/console-auth/internal/pkg/config"
	"github.com/pricewatch/console-auth/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "console-auth",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongodb.Open(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	rdb, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	digest, err := security.NewBlake2bDigest(cfg.Security.RefreshDigestPepper)
	if err != nil {
		return err
	}
	issuer, err := token.NewJWTIssuer(cfg.Token.Secret,
		token.WithIssuer(cfg.Token.Issuer),
		token.WithTokenExpiry(cfg.Token.AccessTTL, cfg.Token.RefreshTTL),
	)
	if err != nil {
		return err
	}

	audit := queue.NewDispatcher(cfg.Audit.Workers, store.Audit, logger.Component("audit"))
	// Close drains the queues, so workers must outlive the signal context.
	audit.Start(context.WithoutCancel(ctx))
	defer audit.Close()

	opts := []service.SessionOption{service.WithSessionAudit(audit)}
	if cfg.Throttle.MaxFailures > 0 {
		opts = append(opts, service.WithLoginThrottle(redisdb.NewLoginThrottle(rdb, cfg.Throttle.MaxFailures, cfg.Throttle.Window)))
	}

	sessions, err := service.NewSessionService(
		store.Directories(),
		service.Security{
			Hasher: security.NewBcryptHasher(cfg.Security.BcryptCost),
			Digest: digest,
			Tokens: issuer,
		},
		logger.Component("sessions"),
		opts...,
	)
	if err != nil {
		return err
	}

	if _, err := bootstrapAdmin(ctx, cfg.Bootstrap, store.Admins, sessions, log); err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Sessions: sessions,
		Tokens:   issuer,
		Checks: map[string]handler.DependencyCheck{
			"mongo": store.Ping,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
