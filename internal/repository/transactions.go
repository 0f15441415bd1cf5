package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/models"
)

const transactionSelect = `
	SELECT t.id, s.name, r.name, t.sender_id, t.receiver_id,
	       t.transfer_amount::text, t.fee::text, t.status, t.timestamp
	FROM transactions t
	JOIN wallets s ON s.id = t.sender_id
	JOIN wallets r ON r.id = t.receiver_id`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	var amount, fee string
	err := row.Scan(&t.ID, &t.Sender, &t.Receiver, &t.SenderID, &t.ReceiverID, &amount, &fee, &t.Status, &t.Timestamp)
	if err != nil {
		return nil, err
	}
	if t.TransferAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse transfer_amount %q: %w", amount, err)
	}
	if t.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse fee %q: %w", fee, err)
	}
	return t, nil
}

// CreateTransaction inserts the pre-settlement record. Status is set by the
// caller; settlement creates it FAILED and flips it to PAID on commit.
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `INSERT INTO transactions (id, sender_id, receiver_id, transfer_amount, fee, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING timestamp`
	err := r.db.QueryRow(ctx, query,
		tx.ID, tx.SenderID, tx.ReceiverID,
		tx.TransferAmount.StringFixed(2), tx.Fee.StringFixed(2), tx.Status,
	).Scan(&tx.Timestamp)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// MarkTransactionPaid transitions FAILED -> PAID. It refuses to touch a row
// in any other state so a committed transaction is never rewritten.
func (r *Repository) MarkTransactionPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2 AND status = $3`,
		domain.TxStatusPaid, id, domain.TxStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("mark transaction paid: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("mark transaction paid affected %d rows", tag.RowsAffected())
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, transactionSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactionsForWallet returns every transaction in which the wallet is
// sender or receiver, oldest first.
func (r *Repository) ListTransactionsForWallet(ctx context.Context, walletID uuid.UUID) ([]models.Transaction, error) {
	query := transactionSelect + ` WHERE t.sender_id = $1 OR t.receiver_id = $1 ORDER BY t.timestamp`
	return r.listTransactions(ctx, query, walletID)
}

// ListTransactionsForUser returns the union of transactions touching any
// wallet owned by the user, oldest first.
func (r *Repository) ListTransactionsForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	query := transactionSelect + ` WHERE s.user_id = $1 OR r.user_id = $1 ORDER BY t.timestamp`
	return r.listTransactions(ctx, query, userID)
}

// ListStaleFailedTransactions returns FAILED rows older than the cutoff, for
// the reconciliation sweep.
func (r *Repository) ListStaleFailedTransactions(ctx context.Context, olderThan string) ([]models.Transaction, error) {
	query := transactionSelect + ` WHERE t.status = 'FAILED' AND t.timestamp < NOW() - $1::interval ORDER BY t.timestamp`
	return r.listTransactions(ctx, query, olderThan)
}

func (r *Repository) listTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// ListNegativeBalanceWallets reports wallets whose balance dropped below zero.
// Settlement validation should make this impossible; the reconciliation worker
// checks anyway.
func (r *Repository) ListNegativeBalanceWallets(ctx context.Context) ([]models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE balance < 0 ORDER BY modified_on`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list negative wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}
