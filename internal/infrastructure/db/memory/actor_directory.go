// Package memory holds an in-process ActorDirectory used by tests and local runs
// without MongoDB.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

var _ ports.ActorDirectory = (*ActorDirectory)(nil)

// ActorDirectory keeps actors of one kind in memory. The refresh digest is
// indexed so FindByRefreshDigest is a map lookup.
type ActorDirectory struct {
	kind     domain.ActorKind
	actors   map[string]*domain.Actor
	byDigest map[string]string
	lock     sync.RWMutex
	nowFunc  func() time.Time
}

func NewActorDirectory(kind domain.ActorKind) *ActorDirectory {
	return &ActorDirectory{
		kind:     kind,
		actors:   make(map[string]*domain.Actor),
		byDigest: make(map[string]string),
		nowFunc:  time.Now,
	}
}

func (d *ActorDirectory) FindByEmail(_ context.Context, email string) (*domain.Actor, error) {
	email = domain.NormalizeEmail(email)
	return d.find(func(a *domain.Actor) bool { return a.Email == email })
}

func (d *ActorDirectory) FindByUsername(_ context.Context, username string) (*domain.Actor, error) {
	return d.find(func(a *domain.Actor) bool { return a.Username == username })
}

func (d *ActorDirectory) FindByID(_ context.Context, id string) (*domain.Actor, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	a, ok := d.actors[id]
	if !ok || a.Deleted() {
		return nil, domain.ErrActorNotFound
	}
	return cloneActor(a), nil
}

func (d *ActorDirectory) FindByRefreshDigest(_ context.Context, digest string) (*domain.Actor, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	id, ok := d.byDigest[digest]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	a := d.actors[id]
	if a.Deleted() {
		return nil, domain.ErrActorNotFound
	}
	return cloneActor(a), nil
}

func (d *ActorDirectory) Update(_ context.Context, id string, update ports.ActorUpdate) (*domain.Actor, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	a, ok := d.actors[id]
	if !ok || a.Deleted() {
		return nil, domain.ErrActorNotFound
	}

	if update.Enabled != nil {
		a.Enabled = *update.Enabled
	}
	switch {
	case update.ClearRefreshDigest:
		d.setDigest(a, nil)
	case update.RefreshDigest != nil:
		digest := *update.RefreshDigest
		d.setDigest(a, &digest)
	}
	a.UpdatedAt = d.nowFunc().UTC()
	return cloneActor(a), nil
}

func (d *ActorDirectory) SwapRefreshDigest(_ context.Context, id, current, next string) (bool, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	a, ok := d.actors[id]
	if !ok || a.Deleted() || a.RefreshDigest == nil || *a.RefreshDigest != current {
		return false, nil
	}
	d.setDigest(a, &next)
	a.UpdatedAt = d.nowFunc().UTC()
	return true, nil
}

func (d *ActorDirectory) CreateWithRefreshDigest(_ context.Context, actor *domain.Actor, digest string) (*domain.Actor, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, existing := range d.actors {
		if existing.Email == actor.Email || existing.Username == actor.Username {
			return nil, domain.ErrActorExists
		}
	}
	if _, taken := d.byDigest[digest]; taken {
		return nil, domain.ErrActorExists
	}

	stored := cloneActor(actor)
	stored.ID = uuid.NewString()
	stored.Kind = d.kind
	d.actors[stored.ID] = stored
	d.setDigest(stored, &digest)
	return cloneActor(stored), nil
}

// SoftDelete marks the actor deleted. Session operations no longer see it.
func (d *ActorDirectory) SoftDelete(id string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	a, ok := d.actors[id]
	if !ok {
		return domain.ErrActorNotFound
	}
	now := d.nowFunc().UTC()
	a.DeletedAt = &now
	return nil
}

func (d *ActorDirectory) find(match func(*domain.Actor) bool) (*domain.Actor, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	for _, a := range d.actors {
		if !a.Deleted() && match(a) {
			return cloneActor(a), nil
		}
	}
	return nil, domain.ErrActorNotFound
}

// setDigest keeps the digest index in step with the actor. Caller holds the write lock.
func (d *ActorDirectory) setDigest(a *domain.Actor, digest *string) {
	if a.RefreshDigest != nil {
		delete(d.byDigest, *a.RefreshDigest)
	}
	a.RefreshDigest = digest
	if digest != nil {
		d.byDigest[*digest] = a.ID
	}
}

func cloneActor(a *domain.Actor) *domain.Actor {
	cp := *a
	if a.RefreshDigest != nil {
		v := *a.RefreshDigest
		cp.RefreshDigest = &v
	}
	if a.RecoveryID != nil {
		v := *a.RecoveryID
		cp.RecoveryID = &v
	}
	if a.DeletedAt != nil {
		v := *a.DeletedAt
		cp.DeletedAt = &v
	}
	return &cp
}
