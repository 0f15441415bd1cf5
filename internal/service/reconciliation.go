package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/observability"
	"github.com/oselu/walletpay/internal/repository"
)

// ReconciliationService audits the invariants settlement is supposed to keep:
// no wallet below zero, and FAILED transactions should not linger forever.
// It only reads and reports; a FAILED row is a terminal audit state, never
// cleaned up automatically.
type ReconciliationService struct {
	repo             *repository.Repository
	staleFailedAfter time.Duration
}

func NewReconciliationService(repo *repository.Repository, staleFailedAfter time.Duration) *ReconciliationService {
	if staleFailedAfter <= 0 {
		staleFailedAfter = 24 * time.Hour
	}
	return &ReconciliationService{repo: repo, staleFailedAfter: staleFailedAfter}
}

func (s *ReconciliationService) Run(ctx context.Context) error {
	negative, err := s.repo.ListNegativeBalanceWallets(ctx)
	if err != nil {
		return fmt.Errorf("scan negative balances: %w", err)
	}
	for _, w := range negative {
		zap.L().Error("wallet balance below zero",
			zap.String("wallet", w.Name),
			zap.String("balance", w.Balance.StringFixed(2)),
		)
	}

	interval := fmt.Sprintf("%d seconds", int(s.staleFailedAfter.Seconds()))
	stale, err := s.repo.ListStaleFailedTransactions(ctx, interval)
	if err != nil {
		return fmt.Errorf("scan stale failed transactions: %w", err)
	}
	observability.SetStaleFailedCount(len(stale))
	for _, t := range stale {
		zap.L().Warn("stale FAILED transaction",
			zap.String("transaction_id", t.ID.String()),
			zap.String("sender", t.Sender),
			zap.String("receiver", t.Receiver),
			zap.Time("timestamp", t.Timestamp),
		)
	}

	return nil
}
