package utils

const (
	AppName = "ReferX"

	// Referral codes are 8 uppercase hex characters; this format is part of
	// the public API and must not change.
	ReferralCodeLength      = 8
	MaxReferralCodeAttempts = 10

	// Points credited to the referrer when a referral completes.
	ReferralSignupBonus = 30

	LeaderboardSize      = 5
	RecentReferralsLimit = 5

	// Gin context keys set by the auth middleware.
	ContextUserID = "user_id"
	ContextUser   = "user"

	RefreshTokenCookie = "refreshToken"
)
