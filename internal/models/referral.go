package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusRejected  ReferralStatus = "rejected"
)

// Referral links a referrer to a referred party. It exists before the
// referee necessarily has an account, so the email is the stable reference;
// Referee is filled in once the referred party verifies.
type Referral struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Referrer      primitive.ObjectID  `json:"referrer" bson:"referrer" validate:"required"`
	Referee       *primitive.ObjectID `json:"referee,omitempty" bson:"referee,omitempty"`
	RefereeEmail  string              `json:"refereeEmail" bson:"refereeEmail" validate:"required,email"`
	RefereeName   string              `json:"refereeName,omitempty" bson:"refereeName,omitempty"`
	RefereeIP     string              `json:"-" bson:"refereeIP,omitempty"`
	Status        ReferralStatus      `json:"status" bson:"status"`
	PointsAwarded int                 `json:"pointsAwarded" bson:"pointsAwarded"`
	RewardClaimed bool                `json:"rewardClaimed" bson:"rewardClaimed"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}
