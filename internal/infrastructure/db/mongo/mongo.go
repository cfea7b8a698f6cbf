package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
	"github.com/pricewatch/console-auth/internal/pkg/config"
)

const (
	appName               = "console-auth"
	defaultConnectTimeout = 10 * time.Second
)

// Store owns the MongoDB client and the collections built on it: one actor
// directory per kind and the session audit trail.
type Store struct {
	client     *mongo.Client
	Admins     *ActorDirectory
	Operatives *ActorDirectory
	Audit      ports.AuditRepository
}

// Open connects to MongoDB, verifies the primary is reachable and creates the
// actor indexes. The client is disconnected again if any step fails.
func Open(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(openCtx, options.Client().ApplyURI(cfg.URI).SetAppName(appName))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	store := newStore(client, client.Database(cfg.Database))
	if err := store.Ping(openCtx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if err := store.EnsureIndexes(openCtx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return store, nil
}

func newStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:     client,
		Admins:     NewActorDirectory(db, domain.KindAdmin),
		Operatives: NewActorDirectory(db, domain.KindOperative),
		Audit:      NewAuditRepository(db),
	}
}

// Directories maps each actor kind to its collection.
func (s *Store) Directories() map[domain.ActorKind]ports.ActorDirectory {
	return map[domain.ActorKind]ports.ActorDirectory{
		domain.KindAdmin:     s.Admins,
		domain.KindOperative: s.Operatives,
	}
}

// EnsureIndexes creates the unique indexes of every actor collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, dir := range []*ActorDirectory{s.Admins, s.Operatives} {
		if err := dir.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Ping is the readiness check for the actor store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
