package repositories

import (
	"context"
	"errors"
	"time"

	"payvo/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrDuplicateWallet     = errors.New("wallet already exists")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("transaction reference already exists")
	ErrConfigNotFound      = errors.New("no matching configuration")
)

// WalletRepository defines the interface for wallet and ledger persistence.
// ExecuteInTransaction yields a repository bound to a database transaction;
// every balance+ledger+counter change goes through it as one atomic unit.
type WalletRepository interface {
	// Core wallet operations
	Create(wallet *models.Wallet) error
	GetByID(id uint) (*models.Wallet, error)
	GetByIDForUpdate(id uint) (*models.Wallet, error)
	GetByUserID(userID uint, currency string) (*models.Wallet, error)
	Update(wallet *models.Wallet) error
	GetStaleResetWallets(before time.Time, limit int) ([]uint, error)

	// Ledger operations
	CreateTransaction(tx *models.Transaction) error
	UpdateTransaction(tx *models.Transaction) error
	GetTransactionByID(id uint) (*models.Transaction, error)
	GetTransactionByReference(reference string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
	ListPendingBefore(cutoff time.Time, limit int) ([]models.Transaction, error)

	// Atomic unit
	ExecuteInTransaction(fn func(WalletRepository) error) error
}

// ConfigRepository reads active fee and cashback rules. Rule authoring
// happens elsewhere; this engine only ever reads.
type ConfigRepository interface {
	GetActiveWithdrawalConfig(tierLevel *int) (*models.WithdrawalConfig, error)
	GetActiveCashbackConfig(serviceType string, provider *string) (*models.CashbackConfig, error)
}
