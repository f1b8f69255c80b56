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

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection("users"),
		cache:      cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.IPAddresses == nil {
		user.IPAddresses = []models.IPRecord{}
	}
	if user.Rewards == nil {
		user.Rewards = []models.RewardClaim{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if dup := translateDuplicateErr(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	// Not cached here: Create runs inside transactions, and an aborted
	// insert must not be readable. The read paths warm the cache.
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.userFromCache(ctx, "user_id_"+id.Hex()); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	r.cacheUser(ctx, &user)

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user := r.userFromCache(ctx, "user_email_"+email); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	r.cacheUser(ctx, &user)

	return &user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updatedAt"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateUserCache(ctx, id)

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	// Read the document first: the email key can only be invalidated
	// while the row still exists.
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	r.dropCachedUser(ctx, &user)

	return nil
}

func (r *userRepository) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"referralCode": code})
	if err != nil {
		return false, fmt.Errorf("failed to count referral codes: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) AddIPAddress(ctx context.Context, id primitive.ObjectID, record models.IPRecord) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"ipAddresses": record},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to record ip address: %w", err)
	}

	r.invalidateUserCache(ctx, id)

	return nil
}

func (r *userRepository) IncrementPoints(ctx context.Context, id primitive.ObjectID, delta int) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"points": delta},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment points: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	r.invalidateUserCache(ctx, id)

	return nil
}

func (r *userRepository) ClaimReward(ctx context.Context, id primitive.ObjectID, rewardID primitive.ObjectID, points int) (*models.User, error) {
	claim := models.RewardClaim{
		RewardID:  rewardID,
		ClaimedAt: time.Now(),
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "points": bson.M{"$gte": points}},
		bson.M{
			"$inc":  bson.M{"points": -points},
			"$push": bson.M{"rewards": claim},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim reward: %w", err)
	}

	r.invalidateUserCache(ctx, id)

	return &user, nil
}

func (r *userRepository) CountCreatedFromIPSince(ctx context.Context, ip string, since time.Time) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"ipAddresses.ip": ip,
		"createdAt":      bson.M{"$gt": since},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations from ip: %w", err)
	}
	return count, nil
}

func (r *userRepository) CountByIP(ctx context.Context, ip string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"ipAddresses.ip": ip})
	if err != nil {
		return 0, fmt.Errorf("failed to count users by ip: %w", err)
	}
	return count, nil
}

func (r *userRepository) TopByPoints(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"points": bson.M{"$gt": 0}}}},
		{{Key: "$sort", Value: bson.M{"points": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"name":         1,
			"points":       1,
			"referralCode": 1,
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.LeaderboardEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}

	return entries, nil
}

func (r *userRepository) PruneIPAddresses(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{},
		bson.M{"$pull": bson.M{"ipAddresses": bson.M{"timestamp": bson.M{"$lt": olderThan}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune ip addresses: %w", err)
	}

	return result.ModifiedCount, nil
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, "user_id_"+user.ID.Hex(), user, userCacheTTL)
	r.cache.Set(ctx, "user_email_"+user.Email, user, userCacheTTL)
}

func (r *userRepository) userFromCache(ctx context.Context, key string) *models.User {
	if r.cache == nil {
		return nil
	}
	var user models.User
	if err := r.cache.Get(ctx, key, &user); err != nil {
		return nil
	}
	return &user
}

func (r *userRepository) dropCachedUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, "user_id_"+user.ID.Hex(), "user_email_"+user.Email)
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	// The email key is dropped alongside the id key; we need the email to
	// build it, so fetch bypassing the cache.
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err == nil {
		r.dropCachedUser(ctx, &user)
		return
	}
	r.cache.Delete(ctx, "user_id_"+id.Hex())
}
