package services

import (
	"context"
	"errors"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardStats summarizes an account's referral performance.
type DashboardStats struct {
	Points             int     `json:"points"`
	ReferralCode       string  `json:"referralCode"`
	TotalReferrals     int64   `json:"totalReferrals"`
	CompletedReferrals int64   `json:"completedReferrals"`
	PendingReferrals   int64   `json:"pendingReferrals"`
	ConversionRate     float64 `json:"conversionRate"`
}

type DashboardService interface {
	Stats(ctx context.Context, userID primitive.ObjectID) (*DashboardStats, error)
	RecentReferrals(ctx context.Context, userID primitive.ObjectID) ([]*models.Referral, error)
}

type dashboardService struct {
	userRepo     interfaces.UserRepository
	referralRepo interfaces.ReferralRepository
	logger       *logger.Logger
}

func NewDashboardService(
	userRepo interfaces.UserRepository,
	referralRepo interfaces.ReferralRepository,
	log *logger.Logger,
) DashboardService {
	return &dashboardService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		logger:       log,
	}
}

func (s *dashboardService) Stats(ctx context.Context, userID primitive.ObjectID) (*DashboardStats, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	total, err := s.referralRepo.CountByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.referralRepo.CountByReferrerAndStatus(ctx, userID, models.ReferralStatusCompleted)
	if err != nil {
		return nil, err
	}

	pending, err := s.referralRepo.CountByReferrerAndStatus(ctx, userID, models.ReferralStatusPending)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Points:             user.Points,
		ReferralCode:       user.ReferralCode,
		TotalReferrals:     total,
		CompletedReferrals: completed,
		PendingReferrals:   pending,
	}
	if total > 0 {
		stats.ConversionRate = float64(completed) / float64(total) * 100
	}

	return stats, nil
}

func (s *dashboardService) RecentReferrals(ctx context.Context, userID primitive.ObjectID) ([]*models.Referral, error) {
	referrals, err := s.referralRepo.ListByReferrer(ctx, userID, utils.RecentReferralsLimit)
	if err != nil {
		return nil, err
	}
	if referrals == nil {
		referrals = []*models.Referral{}
	}
	return referrals, nil
}
