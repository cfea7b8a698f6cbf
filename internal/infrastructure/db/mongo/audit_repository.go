package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

const sessionEventsCollection = "session_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{coll: db.Collection(sessionEventsCollection)}
}

// InsertEvent appends a session event to the session_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	doc := bson.M{
		"type":        string(event.Type),
		"actor_kind":  string(event.Kind),
		"success":     event.Success,
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.ActorID != "" {
		doc["actor_id"] = event.ActorID
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}
