package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the workflows rely on. The partial
// unique index on pending referrals enforces at-most-one pending referral
// per (referrer, refereeEmail) at the data layer, closing the race between
// the duplicate check and the insert.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "referralCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ipAddresses.ip", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("referrals").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "referrer", Value: 1}, {Key: "refereeEmail", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
		{
			Keys: bson.D{{Key: "refereeEmail", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "referrer", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("rewards").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "isActive", Value: 1}},
	})

	return err
}
