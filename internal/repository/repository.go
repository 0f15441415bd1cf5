package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/oselu/walletpay/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every query below
// can run standalone or inside a settlement transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a Repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`
	err := r.db.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// LockUser takes a row lock on the user for the duration of the enclosing
// transaction. Wallet creation locks the owner so the per-user cap check and
// the insert cannot interleave with a concurrent creation.
func (r *Repository) LockUser(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrUserNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = $1`
	err := r.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, username, email, password_hash, role, created_at FROM users ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const walletColumns = `id, name, type, currency, balance::text, user_id, created_on, modified_on`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	var balance string
	if err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Currency, &balance, &w.UserID, &w.CreatedOn, &w.ModifiedOn); err != nil {
		return nil, err
	}
	var err error
	w.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return w, nil
}

func (r *Repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `INSERT INTO wallets (id, name, type, currency, balance, user_id, created_on, modified_on)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_on, modified_on`
	err := r.db.QueryRow(ctx, query,
		wallet.ID, wallet.Name, wallet.Type, wallet.Currency, wallet.Balance.StringFixed(2), wallet.UserID,
	).Scan(&wallet.CreatedOn, &wallet.ModifiedOn)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return models.ErrDuplicateName
		}
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (r *Repository) GetWalletByName(ctx context.Context, name string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE name = $1`
	w, err := scanWallet(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetWalletByNameForUpdate locks the wallet row for the duration of the
// enclosing transaction. Only meaningful on a Repository bound via WithTx.
func (r *Repository) GetWalletByNameForUpdate(ctx context.Context, name string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE name = $1 FOR UPDATE`
	w, err := scanWallet(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	return w, nil
}

func (r *Repository) ListWalletsForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY modified_on`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
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

func (r *Repository) CountWalletsForOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallets WHERE user_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return count, nil
}

// DeleteWallet removes the wallet only when owned by ownerID. A wallet that
// is sender or receiver of any transaction is protected by ON DELETE RESTRICT.
func (r *Repository) DeleteWallet(ctx context.Context, name string, ownerID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM wallets WHERE name = $1 AND user_id = $2`, name, ownerID)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return models.ErrReferentialRestriction
		}
		return fmt.Errorf("delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrWalletNotFound
	}
	return nil
}

// AdjustWalletBalance applies a signed delta to the stored balance and bumps
// modified_on. The relative update means the write stays correct even when
// several adjustments land on one row in the same transaction; the CHECK
// constraint rejects any adjustment that would go below zero.
func (r *Repository) AdjustWalletBalance(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, modified_on = NOW() WHERE id = $2`,
		delta.StringFixed(2), walletID,
	)
	if err != nil {
		return fmt.Errorf("adjust wallet balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("adjust wallet balance affected %d rows", tag.RowsAffected())
	}
	return nil
}
