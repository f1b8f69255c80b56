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

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
	}
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	if referral.Status == "" {
		referral.Status = models.ReferralStatusPending
	}
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		if dup := translateDuplicateErr(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}

	return nil
}

func (r *referralRepository) ListByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int) ([]*models.Referral, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"referrer": referrer}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode referrals: %w", err)
	}

	return referrals, nil
}

func (r *referralRepository) FindPendingByEmail(ctx context.Context, email string) ([]*models.Referral, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"refereeEmail": email,
		"status":       models.ReferralStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find pending referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var referrals []*models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode pending referrals: %w", err)
	}

	return referrals, nil
}

func (r *referralRepository) Complete(ctx context.Context, id primitive.ObjectID, referee primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.ReferralStatusPending},
		bson.M{"$set": bson.M{
			"status":    models.ReferralStatusCompleted,
			"referee":   referee,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete referral: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}

func (r *referralRepository) ExistsByReferrerAndEmail(ctx context.Context, referrer primitive.ObjectID, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"referrer":     referrer,
		"refereeEmail": email,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check referral existence: %w", err)
	}
	return count > 0, nil
}

func (r *referralRepository) ExistsByReferrerAndIPSince(ctx context.Context, referrer primitive.ObjectID, ip string, since time.Time) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"referrer":  referrer,
		"refereeIP": ip,
		"createdAt": bson.M{"$gte": since},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check referral ip throttle: %w", err)
	}
	return count > 0, nil
}

func (r *referralRepository) CountByReferrer(ctx context.Context, referrer primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"referrer": referrer})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

func (r *referralRepository) CountByReferrerAndStatus(ctx context.Context, referrer primitive.ObjectID, status models.ReferralStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"referrer": referrer,
		"status":   status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals by status: %w", err)
	}
	return count, nil
}

func (r *referralRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"refereeEmail": email})
	if err != nil {
		return fmt.Errorf("failed to delete referrals by email: %w", err)
	}
	return nil
}
