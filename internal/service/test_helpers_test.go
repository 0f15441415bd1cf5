package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/oselu/walletpay/internal/db"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/repository"
)

// setupTestDB connects to the Postgres instance named by DATABASE_URL,
// applies the schema if missing and truncates all tables. Tests needing a
// database are skipped when DATABASE_URL is unset so the unit suite stands
// alone.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set; skipping database-backed test")
	}

	pool, err := pgxpool.New(context.Background(), connString)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(pool.Close)

	ensureSchema(t, pool)

	_, err = pool.Exec(context.Background(), "TRUNCATE TABLE transactions, wallets, users CASCADE")
	require.NoError(t, err, "truncate tables")

	return pool
}

func ensureSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	var exists *string
	err := pool.QueryRow(context.Background(), "SELECT to_regclass('transactions')::text").Scan(&exists)
	require.NoError(t, err)
	if exists != nil {
		return
	}

	sql, err := db.MigrationsFS.ReadFile("migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), string(sql))
	require.NoError(t, err, "apply schema")
}

func defaultBonuses() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("3.00"),
		"EUR": decimal.RequireFromString("3.00"),
		"RUB": decimal.RequireFromString("100.00"),
	}
}

func newTestWalletService(store *repository.Store) *WalletService {
	return NewWalletService(store, nil, time.Minute, defaultBonuses(), 8)
}

func newTestTransferService(store *repository.Store) *TransferService {
	wallets := newTestWalletService(store)
	fees := NewOwnershipFeePolicy(decimal.RequireFromString("0.10"))
	return NewTransferService(store, wallets, fees)
}

func createTestUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         "user",
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// createTestWallet inserts a wallet with a fixed name and balance, bypassing
// the creation bonus so scenarios control their starting funds.
func createTestWallet(t *testing.T, repo *repository.Repository, owner *models.User, name, currency, balance string) *models.Wallet {
	t.Helper()
	wallet := &models.Wallet{
		ID:       uuid.New(),
		Name:     name,
		Type:     "Visa",
		Currency: currency,
		Balance:  decimal.RequireFromString(balance),
		UserID:   owner.ID,
	}
	require.NoError(t, repo.CreateWallet(context.Background(), wallet))
	return wallet
}

func walletBalance(t *testing.T, repo *repository.Repository, name string) string {
	t.Helper()
	w, err := repo.GetWalletByName(context.Background(), name)
	require.NoError(t, err)
	return w.Balance.StringFixed(2)
}
