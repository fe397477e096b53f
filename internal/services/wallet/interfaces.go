package wallet

import (
	"context"

	"payvo/internal/models"
	"payvo/internal/repositories"
)

// ExclusiveFn runs against a wallet loaded under its exclusion: the
// per-wallet lock is held, the row is locked FOR UPDATE, and everything the
// function does through tx commits or fails as one atomic unit. The wallet
// is saved after the function returns nil.
type ExclusiveFn func(tx repositories.WalletRepository, w *models.Wallet) error

// PairFn is the two-wallet variant used by transfers.
type PairFn func(tx repositories.WalletRepository, first, second *models.Wallet) error

// Service is the wallet store. It owns canonical balance, ledger-balance
// and spend-counter state and exposes the atomic primitives every other
// component builds on.
type Service interface {
	// Wallet management
	CreateWallet(ctx context.Context, userID uint, currency string, tierLevel int) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error)
	GetWalletByUser(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetBalance(ctx context.Context, walletID uint) (*BalanceSnapshot, error)

	// Atomic primitives
	Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error)
	Adjust(ctx context.Context, req AdjustRequest) (*models.Wallet, *models.Transaction, error)
	Lock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, *models.Transaction, error)
	Unlock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, *models.Transaction, error)

	// Composition points for the ledger and limit layers
	WithExclusive(ctx context.Context, walletID uint, fn ExclusiveFn) error
	WithExclusivePair(ctx context.Context, firstID, secondID uint, fn PairFn) error
}
