package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Passw0rd!", true},
		{"valid minimal", "aaaaaa1@", true},
		{"too short", "Pa1!", false},
		{"no digit", "Password!", false},
		{"no letter", "12345678!", false},
		{"no symbol", "Password1", false},
		{"disallowed character", "Passw0rd^", false},
		{"space", "Pass w0rd!", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd!", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Passw0rd!", hash)

	assert.True(t, CheckPassword("Passw0rd!", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("Passw0rd!", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
