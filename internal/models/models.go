package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Wallet struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	UserID     uuid.UUID       `json:"owner"`
	CreatedOn  time.Time       `json:"created_on"`
	ModifiedOn time.Time       `json:"modified_on"`
}

// Transaction records one transfer attempt between two wallets. Sender and
// receiver are rendered as wallet names on the wire, not nested objects.
// Fee holds the applied fee rate (0.00 or 0.10), not a fee amount.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Sender         string          `json:"sender"`
	Receiver       string          `json:"receiver"`
	SenderID       uuid.UUID       `json:"-"`
	ReceiverID     uuid.UUID       `json:"-"`
	TransferAmount decimal.Decimal `json:"transfer_amount"`
	Fee            decimal.Decimal `json:"fee"`
	Status         string          `json:"status"`
	Timestamp      time.Time       `json:"timestamp"`
}
