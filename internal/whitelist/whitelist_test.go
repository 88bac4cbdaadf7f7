package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChecker_IsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{" MyBank ", "+233201234567", "Bank.com", "ceo@corp.example", ""}, zap.NewNop())

	tests := []struct {
		sender string
		want   bool
	}{
		{"MyBank", true},
		{"mybank", true},
		{"+233201234567", true},
		{"alerts@bank.com", true},
		{"ALERTS@BANK.COM", true},
		{"alerts@evil-bank.com", false},
		{"ceo@corp.example", true},
		{"cfo@corp.example", false},
		{"+15550001111", false},
		{"", false},
		{"bank.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsWhitelisted(tt.sender))
		})
	}
}

func TestChecker_Empty(t *testing.T) {
	checker := NewChecker(nil, nil)
	assert.False(t, checker.IsWhitelisted("anyone@bank.com"))
}
