package services

import (
	"context"
	"errors"
	"time"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateRewardRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=100"`
	Description    string `json:"description" validate:"max=500"`
	PointsRequired int    `json:"pointsRequired" validate:"required,gt=0"`
}

// ClaimedReward joins a claim history entry with its catalog entry. The
// reward pointer is nil when the catalog entry was since removed.
type ClaimedReward struct {
	Reward    *models.Reward `json:"reward"`
	ClaimedAt time.Time      `json:"claimedAt"`
}

type RewardService interface {
	ListRewards(ctx context.Context) ([]*models.Reward, error)
	CreateReward(ctx context.Context, req *CreateRewardRequest) (*models.Reward, error)
	// ClaimReward debits the cost and appends the claim atomically;
	// returns the account with its new balance.
	ClaimReward(ctx context.Context, userID, rewardID primitive.ObjectID) (*models.User, error)
	ClaimHistory(ctx context.Context, userID primitive.ObjectID) ([]*ClaimedReward, error)
}

type rewardService struct {
	rewardRepo interfaces.RewardRepository
	userRepo   interfaces.UserRepository
	logger     *logger.Logger
}

func NewRewardService(
	rewardRepo interfaces.RewardRepository,
	userRepo interfaces.UserRepository,
	log *logger.Logger,
) RewardService {
	return &rewardService{
		rewardRepo: rewardRepo,
		userRepo:   userRepo,
		logger:     log,
	}
}

func (s *rewardService) ListRewards(ctx context.Context) ([]*models.Reward, error) {
	rewards, err := s.rewardRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = []*models.Reward{}
	}
	return rewards, nil
}

func (s *rewardService) CreateReward(ctx context.Context, req *CreateRewardRequest) (*models.Reward, error) {
	reward := &models.Reward{
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		IsActive:       true,
	}

	if err := s.rewardRepo.Create(ctx, reward); err != nil {
		return nil, err
	}

	s.logger.WithField("reward", reward.Name).Info("reward created")

	return reward, nil
}

func (s *rewardService) ClaimReward(ctx context.Context, userID, rewardID primitive.ObjectID) (*models.User, error) {
	reward, err := s.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}

	user, err := s.userRepo.ClaimReward(ctx, userID, reward.ID, reward.PointsRequired)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// The conditional update rejects both a missing account and an
			// insufficient balance; tell them apart for the caller.
			if _, lookupErr := s.userRepo.GetByID(ctx, userID); lookupErr != nil {
				return nil, ErrUserNotFound
			}
			return nil, ErrInsufficientPoints
		}
		return nil, err
	}

	s.logger.WithUserID(userID).WithField("reward", reward.Name).Info("reward claimed")

	return user, nil
}

func (s *rewardService) ClaimHistory(ctx context.Context, userID primitive.ObjectID) ([]*ClaimedReward, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(user.Rewards))
	for _, claim := range user.Rewards {
		ids = append(ids, claim.RewardID)
	}

	rewards, err := s.rewardRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*models.Reward, len(rewards))
	for _, reward := range rewards {
		byID[reward.ID] = reward
	}

	history := make([]*ClaimedReward, 0, len(user.Rewards))
	for _, claim := range user.Rewards {
		history = append(history, &ClaimedReward{
			Reward:    byID[claim.RewardID],
			ClaimedAt: claim.ClaimedAt,
		})
	}

	return history, nil
}
