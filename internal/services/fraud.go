package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
)

const (
	// Window within which a referrer may not submit two referrals from the
	// same client address.
	referralIPWindow = 24 * time.Hour

	// Accounts allowed to share one client address before submissions from
	// it are rejected.
	maxAccountsPerIP = 2
)

// referralGuard is one fraud heuristic. Guards run in order and the first
// rejection wins; a nil error means the submission passed that check.
type referralGuard func(ctx context.Context, referrer *models.User, refereeEmail, ip string) error

func (s *referralService) referralGuards() []referralGuard {
	return []referralGuard{
		s.guardSelfReferral,
		s.guardDuplicateReferral,
		s.guardIPThrottle,
		s.guardEmailRegistered,
		s.guardSameDevice,
		s.guardSharedDevice,
	}
}

func (s *referralService) guardSelfReferral(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	if strings.EqualFold(referrer.Email, refereeEmail) {
		return ErrSelfReferral
	}
	return nil
}

func (s *referralService) guardEmailRegistered(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	_, err := s.userRepo.GetByEmail(ctx, refereeEmail)
	if err == nil {
		return ErrEmailAlreadyRegistered
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil
	}
	return err
}

func (s *referralService) guardDuplicateReferral(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	exists, err := s.referralRepo.ExistsByReferrerAndEmail(ctx, referrer.ID, refereeEmail)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReferral
	}
	return nil
}

func (s *referralService) guardIPThrottle(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	since := time.Now().Add(-referralIPWindow)
	throttled, err := s.referralRepo.ExistsByReferrerAndIPSince(ctx, referrer.ID, ip, since)
	if err != nil {
		return err
	}
	if throttled {
		return ErrReferralIPThrottled
	}
	return nil
}

// guardSameDevice rejects submissions coming from an address already in
// the referrer's own history: a referral staged from the referrer's own
// device is presumed to be the referrer signing themselves up.
func (s *referralService) guardSameDevice(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	if referrer.HasIP(ip) {
		return ErrSameDeviceReferral
	}
	return nil
}

func (s *referralService) guardSharedDevice(ctx context.Context, referrer *models.User, refereeEmail, ip string) error {
	count, err := s.userRepo.CountByIP(ctx, ip)
	if err != nil {
		return err
	}
	if count > maxAccountsPerIP {
		return ErrDeviceShared
	}
	return nil
}
