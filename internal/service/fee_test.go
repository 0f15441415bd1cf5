package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/oselu/walletpay/internal/models"
)

func TestOwnershipFeePolicy(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	policy := NewOwnershipFeePolicy(decimal.RequireFromString("0.10"))

	sender := &models.Wallet{UserID: owner}

	t.Run("same owner pays no fee", func(t *testing.T) {
		receiver := &models.Wallet{UserID: owner}
		assert.True(t, policy.Rate(sender, receiver).IsZero())
	})

	t.Run("cross owner pays default rate", func(t *testing.T) {
		receiver := &models.Wallet{UserID: other}
		assert.Equal(t, "0.10", policy.Rate(sender, receiver).StringFixed(2))
	})
}
