package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/repository"
)

// TransactionService answers read queries over settled and failed transfers.
// Every query is scoped to wallets the requester owns; anything else is a
// not-found, never a permission hint.
type TransactionService struct {
	repo *repository.Repository
}

func NewTransactionService(repo *repository.Repository) *TransactionService {
	return &TransactionService{repo: repo}
}

// Get returns the transaction only when the requester owns the sender or the
// receiver wallet.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	wallets, err := s.repo.ListWalletsForOwner(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for _, w := range wallets {
		if w.ID == txn.SenderID || w.ID == txn.ReceiverID {
			return txn, nil
		}
	}
	return nil, models.ErrTransactionNotFound
}

// ListForWallet returns all transactions touching the named wallet, oldest
// first. Fails with ErrWalletNotFound unless the requester owns that wallet.
func (s *TransactionService) ListForWallet(ctx context.Context, walletName string, requesterID uuid.UUID) ([]models.Transaction, error) {
	wallet, err := s.repo.GetWalletByName(ctx, walletName)
	if err != nil {
		return nil, err
	}
	if wallet.UserID != requesterID {
		return nil, models.ErrWalletNotFound
	}
	return s.repo.ListTransactionsForWallet(ctx, wallet.ID)
}

// ListForUser returns the union of transactions touching any wallet the
// requester owns, oldest first.
func (s *TransactionService) ListForUser(ctx context.Context, requesterID uuid.UUID) ([]models.Transaction, error) {
	return s.repo.ListTransactionsForUser(ctx, requesterID)
}
