package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/observability"
	"github.com/oselu/walletpay/internal/repository"
)

// ErrInvalidAmount rejects non-positive or sub-cent transfer amounts before
// any wallet is resolved.
var ErrInvalidAmount = errors.New("transfer amount must be a positive amount with at most two decimal places")

// ValidatedTransfer carries everything settlement needs once validation has
// passed: both resolved wallets, the amount, the applied fee rate and the
// total the sender must cover.
type ValidatedTransfer struct {
	Sender   *models.Wallet
	Receiver *models.Wallet
	Amount   decimal.Decimal
	Rate     decimal.Decimal
	Required decimal.Decimal
}

// TransferService validates proposed transfers and settles them atomically.
type TransferService struct {
	store   *repository.Store
	wallets *WalletService
	fees    FeePolicy
}

func NewTransferService(store *repository.Store, wallets *WalletService, fees FeePolicy) *TransferService {
	return &TransferService{
		store:   store,
		wallets: wallets,
		fees:    fees,
	}
}

// AuthorizeSender confirms the requester owns the sender wallet before any
// validation runs. An absent sender wallet is reported as such; a sender
// wallet owned by someone else is a permission failure, not a 404, because
// wallet names are not secret to the transfer API.
func (s *TransferService) AuthorizeSender(ctx context.Context, requesterID uuid.UUID, senderName string) error {
	sender, err := s.store.Repo().GetWalletByName(ctx, senderName)
	if err != nil {
		if errors.Is(err, models.ErrWalletNotFound) {
			return models.ErrSenderNotFound
		}
		return err
	}
	if sender.UserID != requesterID {
		return models.ErrNotWalletOwner
	}
	return nil
}

// Validate checks a proposed transfer in a fixed order: receiver existence,
// sender existence, currency equality, then balance sufficiency including the
// fee. The order decides which error a malformed request gets. Bad amounts
// and self-transfers are rejected before any wallet is resolved.
func (s *TransferService) Validate(ctx context.Context, senderName, receiverName string, amount decimal.Decimal) (*ValidatedTransfer, error) {
	if !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}
	if senderName == receiverName {
		return nil, models.ErrSameWallet
	}

	repo := s.store.Repo()

	receiver, err := repo.GetWalletByName(ctx, receiverName)
	if err != nil {
		if errors.Is(err, models.ErrWalletNotFound) {
			return nil, models.ErrReceiverNotFound
		}
		return nil, err
	}
	sender, err := repo.GetWalletByName(ctx, senderName)
	if err != nil {
		if errors.Is(err, models.ErrWalletNotFound) {
			return nil, models.ErrSenderNotFound
		}
		return nil, err
	}

	if sender.Currency != receiver.Currency {
		return nil, models.ErrCurrencyMismatch
	}

	rate := s.fees.Rate(sender, receiver)
	required := domain.RequiredTotal(amount, rate)
	if sender.Balance.LessThan(required) {
		return nil, models.ErrInsufficientFunds
	}

	return &ValidatedTransfer{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Rate:     rate,
		Required: required,
	}, nil
}

// Transfer runs the full path: authorization, validation, settlement.
// Validation failures persist nothing. Once validation has passed a FAILED
// transaction row is committed before any balance moves; if settlement then
// cannot complete, that row remains as the auditable terminal state.
func (s *TransferService) Transfer(ctx context.Context, requesterID uuid.UUID, senderName, receiverName string, amount decimal.Decimal) (*models.Transaction, error) {
	if err := s.AuthorizeSender(ctx, requesterID, senderName); err != nil {
		return nil, err
	}

	validated, err := s.Validate(ctx, senderName, receiverName, amount)
	if err != nil {
		return nil, err
	}

	return s.Settle(ctx, validated)
}

// Settle applies a validated transfer. The sender debit, receiver credit and
// FAILED->PAID status flip happen in one database transaction with both
// wallet rows locked; either all three writes land or none do.
func (s *TransferService) Settle(ctx context.Context, validated *ValidatedTransfer) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:             uuid.New(),
		Sender:         validated.Sender.Name,
		Receiver:       validated.Receiver.Name,
		SenderID:       validated.Sender.ID,
		ReceiverID:     validated.Receiver.ID,
		TransferAmount: validated.Amount,
		Fee:            validated.Rate,
		Status:         domain.TxStatusFailed,
	}

	// The placeholder is committed on its own so the attempt is visible even
	// if the process dies mid-settlement.
	if err := s.store.Repo().CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	err := s.store.RunInTx(ctx, func(r *repository.Repository) error {
		// Lock both wallets in name order so two opposing transfers cannot
		// deadlock each other.
		first, second := validated.Sender.Name, validated.Receiver.Name
		if first > second {
			first, second = second, first
		}
		locked := make(map[string]*models.Wallet, 2)
		for _, name := range []string{first, second} {
			w, err := r.GetWalletByNameForUpdate(ctx, name)
			if err != nil {
				return err
			}
			locked[name] = w
		}
		sender := locked[validated.Sender.Name]
		receiver := locked[validated.Receiver.Name]

		// Re-check under the lock: another settlement may have drained the
		// sender between validation and here.
		if sender.Balance.LessThan(validated.Required) {
			return models.ErrInsufficientFunds
		}

		if err := r.AdjustWalletBalance(ctx, sender.ID, validated.Required.Neg()); err != nil {
			return err
		}
		// The fee is deducted from the sender only; the receiver gets the
		// plain amount and the difference is burned.
		if err := r.AdjustWalletBalance(ctx, receiver.ID, validated.Amount); err != nil {
			return err
		}
		return r.MarkTransactionPaid(ctx, txn.ID)
	})

	s.wallets.InvalidateCached(ctx, validated.Sender.Name, validated.Receiver.Name)

	if err != nil {
		observability.IncrementSettlement("failed")
		zap.L().Error("settlement failed, transaction left FAILED",
			zap.Error(err),
			zap.String("transaction_id", txn.ID.String()),
			zap.String("sender", validated.Sender.Name),
			zap.String("receiver", validated.Receiver.Name),
		)
		return nil, fmt.Errorf("settle transfer %s: %w", txn.ID, err)
	}

	observability.IncrementSettlement("paid")
	txn.Status = domain.TxStatusPaid
	return txn, nil
}
