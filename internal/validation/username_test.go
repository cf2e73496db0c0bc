package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername_Valid(t *testing.T) {
	for _, username := range []string{
		"alice",
		"ALICE",
		"AliceSmith",
		"alice_smith",
		"alice123",
		"123456",
		strings.Repeat("a", MaxUsernameLen),
	} {
		t.Run(username, func(t *testing.T) {
			assert.NoError(t, ValidateUsername(username))
		})
	}
}

func TestValidateUsername_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		username string
		errMsg   string
	}{
		{"empty", "", "username cannot be empty"},
		{"too short", "ab", "must be at least 3 characters"},
		{"too long", strings.Repeat("a", MaxUsernameLen+1), "must not exceed 32 characters"},
		{"with dash", "alice-smith", "can only contain"},
		{"with space", "alice smith", "can only contain"},
		{"with cyrillic", "алиса123", "can only contain"},
		{"with at sign", "alice@example", "can only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("password-123456"))
	assert.NoError(t, ValidatePassword(strings.Repeat("x", 12)))

	err := ValidatePassword("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password cannot be empty")

	err = ValidatePassword("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 12 characters")
}
