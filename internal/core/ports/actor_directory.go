package ports

import (
	"context"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

// ActorUpdate lists the fields Update may change. Nil pointers are left untouched.
type ActorUpdate struct {
	Enabled            *bool
	RefreshDigest      *string
	ClearRefreshDigest bool
}

// ActorDirectory stores the actors of one kind. Soft-deleted actors are
// invisible to every method; lookups that match nothing return
// domain.ErrActorNotFound.
type ActorDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.Actor, error)
	FindByUsername(ctx context.Context, username string) (*domain.Actor, error)
	FindByID(ctx context.Context, id string) (*domain.Actor, error)
	// FindByRefreshDigest is an indexed equality lookup on the stored digest.
	FindByRefreshDigest(ctx context.Context, digest string) (*domain.Actor, error)
	Update(ctx context.Context, id string, update ActorUpdate) (*domain.Actor, error)
	// SwapRefreshDigest replaces the stored digest only if it still equals
	// current. It reports false when another writer got there first.
	SwapRefreshDigest(ctx context.Context, id, current, next string) (bool, error)
	// CreateWithRefreshDigest inserts the actor together with its first
	// session digest. Duplicate email or username yields domain.ErrActorExists.
	CreateWithRefreshDigest(ctx context.Context, actor *domain.Actor, digest string) (*domain.Actor, error)
}
