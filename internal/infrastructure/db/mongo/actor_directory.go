package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

// CollectionFor returns the collection that stores actors of kind.
func CollectionFor(kind domain.ActorKind) string {
	switch kind {
	case domain.KindAdmin:
		return "administrators"
	default:
		return "operative_users"
	}
}

// ActorDirectory implements ports.ActorDirectory for one actor kind.
type ActorDirectory struct {
	kind    domain.ActorKind
	coll    *mongo.Collection
	nowFunc func() time.Time
}

var _ ports.ActorDirectory = (*ActorDirectory)(nil)

func NewActorDirectory(db *mongo.Database, kind domain.ActorKind) *ActorDirectory {
	return &ActorDirectory{
		kind:    kind,
		coll:    db.Collection(CollectionFor(kind)),
		nowFunc: time.Now,
	}
}

type actorDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Username       string             `bson:"username"`
	PasswordDigest string             `bson:"password_digest"`
	Enabled        bool               `bson:"enabled"`
	RefreshDigest  *string            `bson:"refresh_digest,omitempty"`
	RecoveryID     *string            `bson:"recovery_id,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
	DeletedAt      *time.Time         `bson:"deleted_at,omitempty"`
}

// EnsureIndexes creates the unique indexes the directory relies on. The
// refresh digest index is partial so actors without a session do not collide.
func (r *ActorDirectory) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "refresh_digest", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"refresh_digest": bson.M{"$exists": true}}),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.coll.Name(), err)
	}
	return nil
}

func (r *ActorDirectory) FindByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *ActorDirectory) FindByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *ActorDirectory) FindByID(ctx context.Context, id string) (*domain.Actor, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrActorNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ActorDirectory) FindByRefreshDigest(ctx context.Context, digest string) (*domain.Actor, error) {
	if digest == "" {
		return nil, domain.ErrActorNotFound
	}
	return r.findOne(ctx, bson.M{"refresh_digest": digest})
}

func (r *ActorDirectory) Update(ctx context.Context, id string, update ports.ActorUpdate) (*domain.Actor, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrActorNotFound
	}

	set := bson.M{"updated_at": r.nowFunc().UTC()}
	if update.Enabled != nil {
		set["enabled"] = *update.Enabled
	}
	doc := bson.M{"$set": set}
	switch {
	case update.ClearRefreshDigest:
		doc["$unset"] = bson.M{"refresh_digest": ""}
	case update.RefreshDigest != nil:
		set["refresh_digest"] = *update.RefreshDigest
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out actorDocument
	err = r.coll.FindOneAndUpdate(ctx, active(bson.M{"_id": oid}), doc, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrActorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update actor: %w", err)
	}
	return r.toDomain(&out), nil
}

func (r *ActorDirectory) SwapRefreshDigest(ctx context.Context, id, current, next string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	filter := active(bson.M{"_id": oid, "refresh_digest": current})
	update := bson.M{"$set": bson.M{"refresh_digest": next, "updated_at": r.nowFunc().UTC()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("swap refresh digest: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// CreateWithRefreshDigest inserts the actor and its first digest in one document write.
func (r *ActorDirectory) CreateWithRefreshDigest(ctx context.Context, actor *domain.Actor, digest string) (*domain.Actor, error) {
	doc := actorDocument{
		Email:          actor.Email,
		Username:       actor.Username,
		PasswordDigest: actor.PasswordDigest,
		Enabled:        actor.Enabled,
		RefreshDigest:  &digest,
		RecoveryID:     actor.RecoveryID,
		CreatedAt:      actor.CreatedAt.UTC(),
		UpdatedAt:      actor.UpdatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrActorExists
		}
		return nil, fmt.Errorf("insert actor: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return r.toDomain(&doc), nil
}

func (r *ActorDirectory) findOne(ctx context.Context, filter bson.M) (*domain.Actor, error) {
	var doc actorDocument
	if err := r.coll.FindOne(ctx, active(filter)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrActorNotFound
		}
		return nil, fmt.Errorf("find actor: %w", err)
	}
	return r.toDomain(&doc), nil
}

// active restricts filter to actors that have not been soft-deleted.
func active(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

func (r *ActorDirectory) toDomain(doc *actorDocument) *domain.Actor {
	return &domain.Actor{
		ID:             doc.ID.Hex(),
		Kind:           r.kind,
		Email:          doc.Email,
		Username:       doc.Username,
		PasswordDigest: doc.PasswordDigest,
		Enabled:        doc.Enabled,
		RefreshDigest:  doc.RefreshDigest,
		RecoveryID:     doc.RecoveryID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		DeletedAt:      doc.DeletedAt,
	}
}
