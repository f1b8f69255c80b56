package interfaces

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Unique-index violations, split by index so callers can report the
	// right conflict.
	ErrDuplicateEmail           = errors.New("duplicate email")
	ErrDuplicateReferralCode    = errors.New("duplicate referral code")
	ErrDuplicatePendingReferral = errors.New("duplicate pending referral")
)
