package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns an 8-character uppercase hex code
// (^[A-F0-9]{8}$). Uniqueness is the caller's problem; the registration
// workflow retries on collision.
func GenerateReferralCode() string {
	b := make([]byte, ReferralCodeLength/2)
	rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}

func GenerateRandomString(length int) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(alphanumeric)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = alphanumeric[num.Int64()]
	}

	return string(result)
}
