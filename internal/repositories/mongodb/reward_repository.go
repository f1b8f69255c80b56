package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rewardRepository struct {
	collection *mongo.Collection
}

func NewRewardRepository(db *mongo.Database) interfaces.RewardRepository {
	return &rewardRepository{
		collection: db.Collection("rewards"),
	}
}

func (r *rewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	reward.CreatedAt = time.Now()
	reward.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, reward)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	return nil
}

func (r *rewardRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error) {
	var reward models.Reward
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reward)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	return &reward, nil
}

func (r *rewardRepository) ListActive(ctx context.Context) ([]*models.Reward, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{"isActive": true},
		options.Find().SetSort(bson.M{"pointsRequired": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer cursor.Close(ctx)

	var rewards []*models.Reward
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, fmt.Errorf("failed to decode rewards: %w", err)
	}

	return rewards, nil
}

func (r *rewardRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Reward, error) {
	if len(ids) == 0 {
		return []*models.Reward{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}
	defer cursor.Close(ctx)

	var rewards []*models.Reward
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, fmt.Errorf("failed to decode rewards: %w", err)
	}

	return rewards, nil
}
