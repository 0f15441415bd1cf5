package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/repository"
)

// nameGenerationAttempts bounds retries when a generated wallet name collides
// with an existing one. With an 8-char A-Z0-9 alphabet collisions are
// vanishingly rare; more than a couple in a row means something is broken.
const nameGenerationAttempts = 3

// WalletService owns wallet records: creation with the per-user cap and the
// currency bonus, lookups, listing and owner-initiated deletion.
type WalletService struct {
	store      *repository.Store
	cache      *walletCache
	bonuses    map[string]decimal.Decimal
	nameLength int
}

func NewWalletService(store *repository.Store, redisClient redis.Cmdable, cacheTTL time.Duration, bonuses map[string]decimal.Decimal, nameLength int) *WalletService {
	if nameLength <= 0 {
		nameLength = domain.DefaultWalletNameLength
	}
	return &WalletService{
		store:      store,
		cache:      newWalletCache(redisClient, cacheTTL),
		bonuses:    bonuses,
		nameLength: nameLength,
	}
}

// Create opens a new wallet for ownerID with the bonus balance for its
// currency. Fails with ErrInvalidChoice on a bad enum and with
// ErrWalletLimitExceeded on the cap. The cap check and the insert run in one
// transaction holding the owner's row lock, so concurrent creations cannot
// both pass the count at the limit.
func (s *WalletService) Create(ctx context.Context, ownerID uuid.UUID, cardType, currency string) (*models.Wallet, error) {
	if !domain.ValidCardType(cardType) || !domain.ValidCurrency(currency) {
		return nil, models.ErrInvalidChoice
	}
	bonus, ok := s.bonuses[currency]
	if !ok {
		return nil, models.ErrInvalidChoice
	}

	for attempt := 0; attempt < nameGenerationAttempts; attempt++ {
		name, err := domain.GenerateWalletName(s.nameLength)
		if err != nil {
			return nil, fmt.Errorf("generate wallet name: %w", err)
		}

		wallet := &models.Wallet{
			ID:       uuid.New(),
			Name:     name,
			Type:     cardType,
			Currency: currency,
			Balance:  bonus,
			UserID:   ownerID,
		}
		err = s.store.RunInTx(ctx, func(r *repository.Repository) error {
			if err := r.LockUser(ctx, ownerID); err != nil {
				return err
			}
			count, err := r.CountWalletsForOwner(ctx, ownerID)
			if err != nil {
				return err
			}
			if count >= domain.MaxUserWallets {
				return models.ErrWalletLimitExceeded
			}
			return r.CreateWallet(ctx, wallet)
		})
		if err == nil {
			return wallet, nil
		}
		if errors.Is(err, models.ErrDuplicateName) {
			zap.L().Warn("wallet name collision, regenerating", zap.String("name", name))
			continue
		}
		return nil, err
	}
	return nil, models.ErrDuplicateName
}

// Get returns the wallet only when requester owns it; otherwise
// ErrWalletNotFound regardless of whether the wallet exists.
func (s *WalletService) Get(ctx context.Context, name string, requesterID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if wallet.UserID != requesterID {
		return nil, models.ErrWalletNotFound
	}
	return wallet, nil
}

// List returns the requester's wallets ordered by modification time.
func (s *WalletService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Wallet, error) {
	return s.store.Repo().ListWalletsForOwner(ctx, ownerID)
}

// Delete removes the named wallet when requester owns it. A wallet referenced
// by any transaction cannot be deleted.
func (s *WalletService) Delete(ctx context.Context, name string, requesterID uuid.UUID) error {
	if err := s.store.Repo().DeleteWallet(ctx, name, requesterID); err != nil {
		return err
	}
	s.cache.invalidate(ctx, name)
	return nil
}

// lookup resolves a wallet by name through the cache without any ownership
// check. Internal callers apply their own authorization.
func (s *WalletService) lookup(ctx context.Context, name string) (*models.Wallet, error) {
	if w := s.cache.get(ctx, name); w != nil {
		return w, nil
	}
	wallet, err := s.store.Repo().GetWalletByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, wallet)
	return wallet, nil
}

// InvalidateCached drops cached entries after a balance mutation.
func (s *WalletService) InvalidateCached(ctx context.Context, names ...string) {
	s.cache.invalidate(ctx, names...)
}
