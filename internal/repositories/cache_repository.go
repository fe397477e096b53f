package repositories

import (
	"context"
	"errors"
	"time"

	"payvo/internal/models"
)

// ErrCacheMiss reports that a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	// Generic operations
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error

	// Wallet-specific operations
	GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	DeleteWallet(ctx context.Context, walletID uint) error
}

// Default cache expiration time
const DefaultExpiration = 5 * time.Minute
