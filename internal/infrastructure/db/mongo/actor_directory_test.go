package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/core/ports"
)

func actorDoc(id primitive.ObjectID, digest string) bson.D {
	d := bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: "a@x.com"},
		{Key: "username", Value: "alice"},
		{Key: "password_digest", Value: "$2a$04$hash"},
		{Key: "enabled", Value: true},
		{Key: "created_at", Value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Key: "updated_at", Value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	if digest != "" {
		d = append(d, bson.E{Key: "refresh_digest", Value: digest})
	}
	return d
}

func TestActorDirectory_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("by email", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.administrators", mtest.FirstBatch, actorDoc(id, "abc")))

		a, err := dir.FindByEmail(context.Background(), "A@X.com")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), a.ID)
		assert.Equal(mt, domain.KindAdmin, a.Kind)
		assert.Equal(mt, "alice", a.Username)
		require.NotNil(mt, a.RefreshDigest)
		assert.Equal(mt, "abc", *a.RefreshDigest)
		assert.True(mt, a.Enabled)
	})

	mt.Run("by refresh digest not found", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.operative_users", mtest.FirstBatch))

		_, err := dir.FindByRefreshDigest(context.Background(), "missing")
		assert.ErrorIs(mt, err, domain.ErrActorNotFound)
	})

	mt.Run("by malformed id", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		_, err := dir.FindByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, domain.ErrActorNotFound)
	})

	mt.Run("store error", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom"}))

		_, err := dir.FindByUsername(context.Background(), "alice")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, domain.ErrActorNotFound)
	})
}

func TestActorDirectory_CreateWithRefreshDigest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		actor, err := domain.NewActor(domain.KindAdmin, "a@x.com", "alice", time.Now())
		require.NoError(mt, err)
		created, err := dir.CreateWithRefreshDigest(context.Background(), actor, "digest")
		require.NoError(mt, err)
		assert.NotEmpty(mt, created.ID)
		require.NotNil(mt, created.RefreshDigest)
		assert.Equal(mt, "digest", *created.RefreshDigest)
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindAdmin)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		actor, err := domain.NewActor(domain.KindAdmin, "a@x.com", "alice", time.Now())
		require.NoError(mt, err)
		_, err = dir.CreateWithRefreshDigest(context.Background(), actor, "digest")
		assert.ErrorIs(mt, err, domain.ErrActorExists)
	})
}

func TestActorDirectory_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("disable clears digest", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		doc := actorDoc(id, "")
		doc[4] = bson.E{Key: "enabled", Value: false}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: doc}})

		disabled := false
		a, err := dir.Update(context.Background(), id.Hex(), ports.ActorUpdate{Enabled: &disabled, ClearRefreshDigest: true})
		require.NoError(mt, err)
		assert.False(mt, a.Enabled)
		assert.Nil(mt, a.RefreshDigest)
	})

	mt.Run("not found", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := dir.Update(context.Background(), id.Hex(), ports.ActorUpdate{ClearRefreshDigest: true})
		assert.ErrorIs(mt, err, domain.ErrActorNotFound)
	})
}

func TestActorDirectory_SwapRefreshDigest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("matched", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		ok, err := dir.SwapRefreshDigest(context.Background(), id.Hex(), "old", "new")
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("lost race", func(mt *mtest.T) {
		dir := NewActorDirectory(mt.DB, domain.KindOperative)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		ok, err := dir.SwapRefreshDigest(context.Background(), id.Hex(), "old", "new")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})
}

func TestAuditRepository_InsertEvent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.InsertEvent(context.Background(), &domain.SessionEvent{
			Type:      domain.EventLogin,
			Kind:      domain.KindAdmin,
			ActorID:   "abc",
			Success:   true,
			Timestamp: time.Now(),
		})
		assert.NoError(mt, err)
	})
}

func TestCollectionFor(t *testing.T) {
	assert.Equal(t, "administrators", CollectionFor(domain.KindAdmin))
	assert.Equal(t, "operative_users", CollectionFor(domain.KindOperative))
}
