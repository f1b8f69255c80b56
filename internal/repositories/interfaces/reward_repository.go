package interfaces

import (
	"context"

	"github.com/biileprince/ReferX/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reward, error)
	ListActive(ctx context.Context) ([]*models.Reward, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Reward, error)
}
