package mongodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/biileprince/ReferX/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// recorderCache tracks cache traffic so tests can assert what the
// repository writes and drops. Every read misses.
type recorderCache struct {
	mu      sync.Mutex
	sets    []string
	deletes []string
}

func (c *recorderCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("cache miss")
}

func (c *recorderCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = append(c.sets, key)
	return nil
}

func (c *recorderCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, keys...)
	return nil
}

func TestCreateLeavesCacheCold(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	// Create runs inside transactions; an uncommitted insert must never be
	// readable through the cache.
	mt.Run("no cache writes on insert", func(mt *mtest.T) {
		cache := &recorderCache{}
		repo := NewUserRepository(mt.DB, cache)

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), &models.User{
			Name:  "Ama",
			Email: "ama@example.com",
		})
		require.NoError(mt, err)
		assert.Empty(mt, cache.sets)
	})
}

func TestDeleteDropsBothCacheKeys(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("id and email keys invalidated", func(mt *mtest.T) {
		cache := &recorderCache{}
		repo := NewUserRepository(mt.DB, cache)

		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "referx.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "email", Value: "ama@example.com"},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		require.NoError(mt, repo.Delete(context.Background(), id))
		assert.Contains(mt, cache.deletes, "user_id_"+id.Hex())
		assert.Contains(mt, cache.deletes, "user_email_ama@example.com")
	})

	mt.Run("missing document is a no-op", func(mt *mtest.T) {
		cache := &recorderCache{}
		repo := NewUserRepository(mt.DB, cache)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "referx.users", mtest.FirstBatch))

		require.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID()))
		assert.Empty(mt, cache.deletes)
	})
}
