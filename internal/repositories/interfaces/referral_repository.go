package interfaces

import (
	"context"
	"time"

	"github.com/biileprince/ReferX/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	// Create returns ErrDuplicatePendingReferral when the partial unique
	// index on (referrer, refereeEmail, status=pending) rejects the insert.
	Create(ctx context.Context, referral *models.Referral) error

	ListByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int) ([]*models.Referral, error)
	FindPendingByEmail(ctx context.Context, email string) ([]*models.Referral, error)

	// Complete marks a referral completed and links the verified referee.
	Complete(ctx context.Context, id primitive.ObjectID, referee primitive.ObjectID) error

	ExistsByReferrerAndEmail(ctx context.Context, referrer primitive.ObjectID, email string) (bool, error)
	ExistsByReferrerAndIPSince(ctx context.Context, referrer primitive.ObjectID, ip string, since time.Time) (bool, error)

	CountByReferrer(ctx context.Context, referrer primitive.ObjectID) (int64, error)
	CountByReferrerAndStatus(ctx context.Context, referrer primitive.ObjectID, status models.ReferralStatus) (int64, error)

	// DeleteByEmail removes orphaned rows during registration rollback.
	DeleteByEmail(ctx context.Context, email string) error
}
