package services

import "errors"

var (
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrWeakPassword          = errors.New("password does not meet the policy")
	ErrEmailTaken            = errors.New("email already registered")
	ErrReferralCodeExhausted = errors.New("could not allocate a unique referral code")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRefreshExpired        = errors.New("refresh token expired")
	ErrUserNotFound          = errors.New("user not found")
	ErrRewardNotFound        = errors.New("reward not found")
	ErrRewardInactive        = errors.New("reward is not active")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrOAuthStateMismatch    = errors.New("oauth state mismatch")
	ErrOAuthEmailNotVerified = errors.New("oauth email not verified by provider")
)

// Referral fraud rejections. Each maps to a distinct client-facing
// message; the guard chain returns the first one that fires.
var (
	ErrSelfReferral           = errors.New("you cannot refer yourself")
	ErrDuplicateReferral      = errors.New("this person has already been referred")
	ErrReferralIPThrottled    = errors.New("a referral from this address was already submitted recently")
	ErrEmailAlreadyRegistered = errors.New("this email is already registered")
	ErrSameDeviceReferral     = errors.New("referral and signup came from the same device")
	ErrDeviceShared           = errors.New("too many accounts share this device")
	ErrTooManyRegistrations   = errors.New("too many registrations from this address")
)
