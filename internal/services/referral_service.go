package services

import (
	"context"
	"errors"
	"time"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubmitReferralRequest struct {
	RefereeEmail string `json:"refereeEmail" validate:"required,email"`
	RefereeName  string `json:"refereeName" validate:"required,min=2,max=100"`
}

const (
	leaderboardCacheKey = "leaderboard"
	leaderboardCacheTTL = time.Minute
)

type ReferralService interface {
	// SubmitReferral records a pending referral after the fraud guards
	// pass. Points are credited only when the referee verifies.
	SubmitReferral(ctx context.Context, referrer *models.User, req *SubmitReferralRequest, ip string) (*models.Referral, error)
	ListReferrals(ctx context.Context, referrer primitive.ObjectID) ([]*models.Referral, error)
	Leaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error)
}

type referralService struct {
	referralRepo interfaces.ReferralRepository
	userRepo     interfaces.UserRepository
	cache        CacheService
	logger       *logger.Logger
}

func NewReferralService(
	referralRepo interfaces.ReferralRepository,
	userRepo interfaces.UserRepository,
	cache CacheService,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		cache:        cache,
		logger:       log,
	}
}

func (s *referralService) SubmitReferral(ctx context.Context, referrer *models.User, req *SubmitReferralRequest, ip string) (*models.Referral, error) {
	refereeEmail := normalizeEmail(req.RefereeEmail)

	for _, guard := range s.referralGuards() {
		if err := guard(ctx, referrer, refereeEmail, ip); err != nil {
			return nil, err
		}
	}

	referral := &models.Referral{
		Referrer:      referrer.ID,
		RefereeEmail:  refereeEmail,
		RefereeName:   req.RefereeName,
		RefereeIP:     ip,
		Status:        models.ReferralStatusPending,
		PointsAwarded: utils.ReferralSignupBonus,
	}

	if err := s.referralRepo.Create(ctx, referral); err != nil {
		if errors.Is(err, interfaces.ErrDuplicatePendingReferral) {
			return nil, ErrDuplicateReferral
		}
		return nil, err
	}

	s.logger.WithUserID(referrer.ID).WithField("referee_email", refereeEmail).Info("referral submitted")

	return referral, nil
}

func (s *referralService) ListReferrals(ctx context.Context, referrer primitive.ObjectID) ([]*models.Referral, error) {
	referrals, err := s.referralRepo.ListByReferrer(ctx, referrer, 0)
	if err != nil {
		return nil, err
	}
	if referrals == nil {
		referrals = []*models.Referral{}
	}
	return referrals, nil
}

func (s *referralService) Leaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	if s.cache != nil {
		var cached []*models.LeaderboardEntry
		if err := s.cache.Get(ctx, leaderboardCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	entries, err := s.userRepo.TopByPoints(ctx, utils.LeaderboardSize)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.LeaderboardEntry{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, leaderboardCacheKey, entries, leaderboardCacheTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache leaderboard")
		}
	}

	return entries, nil
}
