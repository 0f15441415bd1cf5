package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/api"
	"github.com/oselu/walletpay/internal/api/middleware"
	"github.com/oselu/walletpay/internal/config"
	"github.com/oselu/walletpay/internal/db"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/repository"
	"github.com/oselu/walletpay/internal/testutil/dblock"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "walletpay-test"
	testJWTAudience = "walletpay-api-test"
	testPassword    = "correct horse battery"
)

func TestMain(m *testing.M) {
	release := dblock.Acquire()
	middleware.SetJWTSecret(testJWTSecret)
	middleware.SetJWTValidation(testJWTIssuer, testJWTAudience)
	code := m.Run()
	release()
	os.Exit(code)
}

type testAPI struct {
	router http.Handler
	pool   *pgxpool.Pool
	repo   *repository.Repository
}

func setupAPI(t *testing.T) *testAPI {
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

	cfg := &config.Config{
		HTTPPort:           "0",
		JWTSecret:          testJWTSecret,
		JWTIssuer:          testJWTIssuer,
		JWTAudience:        testJWTAudience,
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
		WalletNameLength:   8,
		DefaultFeeRate:     decimal.RequireFromString("0.10"),
		WalletBonuses: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("3.00"),
			"EUR": decimal.RequireFromString("3.00"),
			"RUB": decimal.RequireFromString("100.00"),
		},
		WalletCacheTTL: time.Minute,
	}

	store := repository.NewStore(pool)
	a := api.NewRouter(cfg, zap.NewNop(), pool, store, nil)
	return &testAPI{router: a.Routes(), pool: pool, repo: store.Repo()}
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

func (a *testAPI) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	w := a.do(t, "POST", "/v1/register", "", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password":  testPassword,
		"password2": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return a.login(t, username)
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()

	w := a.do(t, "POST", "/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (a *testAPI) seedWallet(t *testing.T, token, name, currency, balance string) {
	t.Helper()

	// Wallet names come out of the generator; pin them for predictable
	// scenarios by rewriting the freshly created row.
	w := a.do(t, "POST", "/v1/wallets", token, map[string]string{
		"type":     "Visa",
		"currency": currency,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	_, err := a.pool.Exec(context.Background(),
		"UPDATE wallets SET name = $1, balance = $2 WHERE id = $3",
		name, balance, created.ID,
	)
	require.NoError(t, err)
}

func TestProblemDetailsOnUnauthorized(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, "GET", "/v1/wallets", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["type"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.NotEmpty(t, body["title"])
	assert.Equal(t, "/v1/wallets", body["instance"])
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, "POST", "/v1/register", "", map[string]string{
		"username":  "ada",
		"email":     "ada@example.com",
		"password":  testPassword,
		"password2": "something else",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "POST", "/v1/register", "", map[string]string{
		"username":  "ada",
		"email":     "ada@example.com",
		"password":  testPassword,
		"password2": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "user", created.Role)
	// The hash never leaves the server.
	assert.NotContains(t, w.Body.String(), "password")

	w = a.do(t, "POST", "/v1/register", "", map[string]string{
		"username":  "ada",
		"email":     "other@example.com",
		"password":  testPassword,
		"password2": testPassword,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	a := setupAPI(t)
	a.registerAndLogin(t, "ada")

	w := a.do(t, "POST", "/v1/auth/login", "", map[string]string{
		"username": "ada",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, "POST", "/v1/auth/login", "", map[string]string{
		"username": "nobody",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWalletLifecycle(t *testing.T) {
	a := setupAPI(t)
	adaToken := a.registerAndLogin(t, "ada")
	eveToken := a.registerAndLogin(t, "eve")

	w := a.do(t, "POST", "/v1/wallets", adaToken, map[string]string{
		"type":     "Visa",
		"currency": "USD",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	assert.Len(t, wallet.Name, 8)
	assert.Equal(t, "3.00", wallet.Balance.StringFixed(2))

	w = a.do(t, "GET", "/v1/wallets", adaToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallets []models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallets))
	require.Len(t, wallets, 1)

	w = a.do(t, "GET", "/v1/wallets/"+wallet.Name, adaToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user's wallet is indistinguishable from a missing one.
	w = a.do(t, "GET", "/v1/wallets/"+wallet.Name, eveToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, "DELETE", "/v1/wallets/"+wallet.Name, eveToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, "DELETE", "/v1/wallets/"+wallet.Name, adaToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, "GET", "/v1/wallets/"+wallet.Name, adaToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWalletCreateRejectsBadEnums(t *testing.T) {
	a := setupAPI(t)
	token := a.registerAndLogin(t, "ada")

	cases := []struct {
		name string
		body map[string]string
	}{
		{name: "bad_card_type", body: map[string]string{"type": "Amex", "currency": "USD"}},
		{name: "bad_currency", body: map[string]string{"type": "Visa", "currency": "GBP"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(t, "POST", "/v1/wallets", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTransferEndpoint(t *testing.T) {
	a := setupAPI(t)
	adaToken := a.registerAndLogin(t, "ada")
	eveToken := a.registerAndLogin(t, "eve")
	a.seedWallet(t, adaToken, "ADA1USD", "USD", "100.00")
	a.seedWallet(t, eveToken, "EVE1USD", "USD", "100.00")

	w := a.do(t, "POST", "/v1/transactions", adaToken, map[string]string{
		"sender":          "ADA1USD",
		"receiver":        "EVE1USD",
		"transfer_amount": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var txn models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txn))
	assert.Equal(t, "PAID", txn.Status)
	assert.Equal(t, "0.10", txn.Fee.StringFixed(2))

	w = a.do(t, "GET", "/v1/wallets/ADA1USD", adaToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sender models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sender))
	assert.Equal(t, "89.00", sender.Balance.StringFixed(2))
}

func TestTransferEndpointNumericAmount(t *testing.T) {
	a := setupAPI(t)
	adaToken := a.registerAndLogin(t, "ada")
	eveToken := a.registerAndLogin(t, "eve")
	a.seedWallet(t, adaToken, "ADA1USD", "USD", "100.00")
	a.seedWallet(t, eveToken, "EVE1USD", "USD", "100.00")

	// A bare JSON number works the same as the quoted form.
	w := a.do(t, "POST", "/v1/transactions", adaToken, map[string]any{
		"sender":          "ADA1USD",
		"receiver":        "EVE1USD",
		"transfer_amount": 10.50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var txn models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txn))
	assert.Equal(t, "PAID", txn.Status)
	assert.Equal(t, "10.50", txn.TransferAmount.StringFixed(2))

	// Booleans and other non-amount payloads still fail cleanly.
	w = a.do(t, "POST", "/v1/transactions", adaToken, map[string]any{
		"sender":          "ADA1USD",
		"receiver":        "EVE1USD",
		"transfer_amount": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestTransferEndpointFailures(t *testing.T) {
	a := setupAPI(t)
	adaToken := a.registerAndLogin(t, "ada")
	eveToken := a.registerAndLogin(t, "eve")
	a.seedWallet(t, adaToken, "ADA1USD", "USD", "100.00")
	a.seedWallet(t, adaToken, "ADA1RUB", "RUB", "100.00")
	a.seedWallet(t, eveToken, "EVE1USD", "USD", "100.00")

	cases := []struct {
		name   string
		token  string
		body   map[string]string
		status int
	}{
		{
			name:  "insufficient_funds",
			token: adaToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "EVE1USD", "transfer_amount": "95",
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "same_wallet",
			token: adaToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "ADA1USD", "transfer_amount": "10",
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "currency_mismatch",
			token: adaToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "ADA1RUB", "transfer_amount": "10",
			},
			status: http.StatusBadRequest,
		},
		{
			name:  "not_wallet_owner",
			token: eveToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "EVE1USD", "transfer_amount": "10",
			},
			status: http.StatusForbidden,
		},
		{
			name:  "receiver_missing",
			token: adaToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "MISSING1", "transfer_amount": "10",
			},
			status: http.StatusNotFound,
		},
		{
			name:  "malformed_amount",
			token: adaToken,
			body: map[string]string{
				"sender": "ADA1USD", "receiver": "EVE1USD", "transfer_amount": "ten",
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(t, "POST", "/v1/transactions", tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	// None of the failures moved money.
	w := a.do(t, "GET", "/v1/wallets/ADA1USD", adaToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))
	assert.Equal(t, "100.00", wallet.Balance.StringFixed(2))
}

func TestTransactionQueries(t *testing.T) {
	a := setupAPI(t)
	adaToken := a.registerAndLogin(t, "ada")
	eveToken := a.registerAndLogin(t, "eve")
	mallToken := a.registerAndLogin(t, "mallory")
	a.seedWallet(t, adaToken, "ADA1USD", "USD", "100.00")
	a.seedWallet(t, eveToken, "EVE1USD", "USD", "100.00")

	w := a.do(t, "POST", "/v1/transactions", adaToken, map[string]string{
		"sender": "ADA1USD", "receiver": "EVE1USD", "transfer_amount": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var txn models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txn))

	// Both participants see it, a bystander does not.
	for _, token := range []string{adaToken, eveToken} {
		w = a.do(t, "GET", "/v1/transactions/"+txn.ID.String(), token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w = a.do(t, "GET", "/v1/transactions/"+txn.ID.String(), mallToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, "GET", "/v1/transactions", adaToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	assert.Len(t, txns, 1)

	w = a.do(t, "GET", "/v1/transactions/wallet/ADA1USD", adaToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, "GET", "/v1/transactions/wallet/ADA1USD", eveToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListUsers(t *testing.T) {
	a := setupAPI(t)
	userToken := a.registerAndLogin(t, "ada")

	w := a.do(t, "GET", "/v1/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	a.registerAndLogin(t, "root")
	_, err := a.pool.Exec(context.Background(), "UPDATE users SET role = 'admin' WHERE username = 'root'")
	require.NoError(t, err)
	adminToken := a.login(t, "root")

	w = a.do(t, "GET", "/v1/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	a := setupAPI(t)

	for _, path := range []string{"/healthz", "/metrics", "/openapi.yaml"} {
		w := a.do(t, "GET", path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	a := setupAPI(t)
	token := a.registerAndLogin(t, "ada")

	w := a.do(t, "PUT", "/v1/wallets", token, map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
}
