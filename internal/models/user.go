package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// IPRecord is one sighting of a client address, kept for fraud heuristics.
// Entries older than six months are pruned by the daily sweep.
type IPRecord struct {
	IP        string    `json:"ip" bson:"ip"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	UserAgent string    `json:"userAgent" bson:"userAgent"`
}

// RewardClaim is an entry in the user's claimed-reward history.
type RewardClaim struct {
	RewardID  primitive.ObjectID `json:"reward" bson:"reward"`
	ClaimedAt time.Time          `json:"claimedAt" bson:"claimedAt"`
}

type User struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name" validate:"required"`
	Email               string             `json:"email" bson:"email" validate:"required,email"`
	Password            string             `json:"-" bson:"password"`
	Points              int                `json:"points" bson:"points"`
	ReferralCode        string             `json:"referralCode" bson:"referralCode"`
	IPAddresses         []IPRecord         `json:"-" bson:"ipAddresses"`
	Rewards             []RewardClaim      `json:"rewards" bson:"rewards"`
	IsVerified          bool               `json:"isVerified" bson:"isVerified"`
	VerificationToken   string             `json:"-" bson:"verificationToken,omitempty"`
	RefreshToken        string             `json:"-" bson:"refreshToken,omitempty"`
	ResetPasswordToken  string             `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time         `json:"-" bson:"resetPasswordExpire,omitempty"`
	Role                UserRole           `json:"role" bson:"role"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasIP reports whether the address already appears in the user's history.
func (u *User) HasIP(ip string) bool {
	for _, rec := range u.IPAddresses {
		if rec.IP == ip {
			return true
		}
	}
	return false
}

// Profile is the shape returned to the account owner.
type Profile struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Points       int                `json:"points"`
	ReferralCode string             `json:"referralCode"`
	IsVerified   bool               `json:"isVerified"`
	Role         UserRole           `json:"role"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Points:       u.Points,
		ReferralCode: u.ReferralCode,
		IsVerified:   u.IsVerified,
		Role:         u.Role,
	}
}

// LeaderboardEntry is the public projection used by the leaderboard.
type LeaderboardEntry struct {
	Name         string `json:"name" bson:"name"`
	Points       int    `json:"points" bson:"points"`
	ReferralCode string `json:"referralCode" bson:"referralCode"`
}
