package models

import (
	"testing"
	"time"

	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/stretchr/testify/assert"
)

func TestAccessTokenIsValid(t *testing.T) {
	future := utils.UTCNow().Add(time.Hour)
	past := utils.UTCNow().Add(-time.Hour)

	tests := []struct {
		name  string
		token AccessToken
		want  bool
	}{
		{
			name:  "active without limits",
			token: AccessToken{IsActive: utils.ToPtr(true)},
			want:  true,
		},
		{
			name:  "inactive",
			token: AccessToken{IsActive: utils.ToPtr(false)},
			want:  false,
		},
		{
			name:  "nil active flag",
			token: AccessToken{},
			want:  false,
		},
		{
			name:  "active with future expiry",
			token: AccessToken{IsActive: utils.ToPtr(true), ExpiresAt: &future},
			want:  true,
		},
		{
			name:  "expired",
			token: AccessToken{IsActive: utils.ToPtr(true), ExpiresAt: &past},
			want:  false,
		},
		{
			name:  "uses remaining",
			token: AccessToken{IsActive: utils.ToPtr(true), MaxUses: utils.ToPtr(2), UseCount: 1},
			want:  true,
		},
		{
			name:  "exhausted",
			token: AccessToken{IsActive: utils.ToPtr(true), MaxUses: utils.ToPtr(2), UseCount: 2},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.IsValid())
		})
	}
}

func TestAccessTokenIsExhausted(t *testing.T) {
	unlimited := AccessToken{UseCount: 1000}
	assert.False(t, unlimited.IsExhausted())

	capped := AccessToken{MaxUses: utils.ToPtr(1), UseCount: 1}
	assert.True(t, capped.IsExhausted())
}

func TestAccessTokenIsExpired(t *testing.T) {
	open := AccessToken{}
	assert.False(t, open.IsExpired())

	past := utils.UTCNow().Add(-time.Minute)
	assert.True(t, (&AccessToken{ExpiresAt: &past}).IsExpired())
}
