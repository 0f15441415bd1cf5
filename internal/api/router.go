package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/api/handler"
	"github.com/oselu/walletpay/internal/api/middleware"
	"github.com/oselu/walletpay/internal/api/problem"
	"github.com/oselu/walletpay/internal/api/spec"
	"github.com/oselu/walletpay/internal/config"
	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/repository"
	"github.com/oselu/walletpay/internal/service"
)

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *pgxpool.Pool
	store  *repository.Store
	redis  redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, store *repository.Store, redisClient redis.Cmdable) *Router {
	return &Router{cfg: cfg, logger: logger, db: db, store: store, redis: redisClient}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(chiMiddleware.RealIP)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusMethodNotAllowed,
			problem.Type("request/method-not-allowed"),
			http.StatusText(http.StatusMethodNotAllowed),
			"operation not supported on this resource")
	})

	// Services
	repo := api.store.Repo()
	userSvc := service.NewUserService(repo)
	walletSvc := service.NewWalletService(api.store, api.redis, api.cfg.WalletCacheTTL, api.cfg.WalletBonuses, api.cfg.WalletNameLength)
	feePolicy := service.NewOwnershipFeePolicy(api.cfg.DefaultFeeRate)
	transferSvc := service.NewTransferService(api.store, walletSvc, feePolicy)
	transactionSvc := service.NewTransactionService(repo)

	// Handlers
	authHandler := handler.NewAuthHandler(userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	transactionHandler := handler.NewTransactionHandler(transferSvc, transactionSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/register", userHandler.Register)
		r.Post("/v1/auth/login", authHandler.Login)
	})

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/wallets", walletHandler.List)
		r.Post("/v1/wallets", walletHandler.Create)
		r.Get("/v1/wallets/{name}", walletHandler.Get)
		r.Delete("/v1/wallets/{name}", walletHandler.Delete)

		r.Get("/v1/transactions", transactionHandler.List)
		r.Post("/v1/transactions", transactionHandler.Create)
		r.Get("/v1/transactions/{id:[0-9a-fA-F-]{36}}", transactionHandler.Get)
		r.Get("/v1/transactions/wallet/{name}", transactionHandler.ListForWallet)

		r.With(middleware.RequireRole(domain.RoleAdmin)).Get("/v1/users", userHandler.List)
	})

	return r
}
