package mongodb

import (
	"strings"

	"github.com/biileprince/ReferX/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

// translateDuplicateErr maps a mongo duplicate-key error onto the sentinel
// for the index that rejected the write, so callers can report the right
// conflict ("email already registered" vs "referral code collision").
func translateDuplicateErr(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "email_1"):
		return interfaces.ErrDuplicateEmail
	case strings.Contains(msg, "referralCode_1"):
		return interfaces.ErrDuplicateReferralCode
	case strings.Contains(msg, "referrer_1_refereeEmail_1"):
		return interfaces.ErrDuplicatePendingReferral
	}

	return err
}
