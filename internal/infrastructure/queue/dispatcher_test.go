package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

type memoryAuditRepo struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (r *memoryAuditRepo) InsertEvent(_ context.Context, e *domain.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *memoryAuditRepo) snapshot() []domain.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.SessionEvent(nil), r.events...)
}

func TestDispatcher_PreservesPerActorOrder(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start(context.Background())

	types := []domain.SessionEventType{domain.EventRegister, domain.EventLogin, domain.EventRefresh, domain.EventLogout}
	for _, typ := range types {
		d.Record(domain.SessionEvent{Type: typ, Kind: domain.KindAdmin, ActorID: "a1", Timestamp: time.Now()})
		d.Record(domain.SessionEvent{Type: typ, Kind: domain.KindOperative, ActorID: "o1", Timestamp: time.Now()})
	}
	d.Close()

	var admin []domain.SessionEventType
	for _, e := range repo.snapshot() {
		if e.ActorID == "a1" {
			admin = append(admin, e.Type)
		}
	}
	assert.Equal(t, types, admin)
	assert.Len(t, repo.snapshot(), 8)
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, &memoryAuditRepo{}, zerolog.Nop())
	require.Len(t, d.workers, defaultWorkers)

	first := d.shardIndex("admin:a1")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("admin:a1"))
	}
}

func TestDispatcher_InsertErrorsDoNotStopWorkers(t *testing.T) {
	repo := &memoryAuditRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Record(domain.SessionEvent{Type: domain.EventLogin, ActorID: "x"})
	d.Close()

	assert.Empty(t, repo.snapshot())
}

func TestDispatcher_RecordAfterCloseIsDropped(t *testing.T) {
	repo := &memoryAuditRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.NotPanics(t, func() {
		d.Record(domain.SessionEvent{Type: domain.EventLogin, ActorID: "x"})
	})
	assert.Empty(t, repo.snapshot())
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	d := NewDispatcher(1, &memoryAuditRepo{}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.SessionEvent{Type: domain.EventLogin, ActorID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
