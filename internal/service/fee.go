package service

import (
	"github.com/shopspring/decimal"

	"github.com/oselu/walletpay/internal/models"
)

// FeePolicy decides the fee rate for a proposed transfer.
type FeePolicy interface {
	Rate(sender, receiver *models.Wallet) decimal.Decimal
}

// OwnershipFeePolicy charges nothing between wallets of the same owner and a
// flat default rate otherwise. Pure function of ownership equality.
type OwnershipFeePolicy struct {
	defaultRate decimal.Decimal
}

func NewOwnershipFeePolicy(defaultRate decimal.Decimal) OwnershipFeePolicy {
	return OwnershipFeePolicy{defaultRate: defaultRate}
}

func (p OwnershipFeePolicy) Rate(sender, receiver *models.Wallet) decimal.Decimal {
	if sender.UserID == receiver.UserID {
		return decimal.Zero
	}
	return p.defaultRate
}
