package interfaces

import (
	"context"
	"time"

	"github.com/biileprince/ReferX/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Basic CRUD. Delete is a hard delete, used only as compensating
	// cleanup when registration fails after a partial commit.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	ExistsByReferralCode(ctx context.Context, code string) (bool, error)
	AddIPAddress(ctx context.Context, id primitive.ObjectID, record models.IPRecord) error
	IncrementPoints(ctx context.Context, id primitive.ObjectID, delta int) error

	// ClaimReward atomically debits points and appends the claim record,
	// conditional on the balance covering the cost. Returns ErrNotFound
	// when no document matched (missing user or insufficient balance).
	ClaimReward(ctx context.Context, id primitive.ObjectID, rewardID primitive.ObjectID, points int) (*models.User, error)

	// Fraud heuristics support.
	CountCreatedFromIPSince(ctx context.Context, ip string, since time.Time) (int64, error)
	CountByIP(ctx context.Context, ip string) (int64, error)

	TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)

	// PruneIPAddresses removes IP history entries older than the cutoff
	// from every account and reports how many accounts were touched.
	PruneIPAddresses(ctx context.Context, olderThan time.Time) (int64, error)
}
