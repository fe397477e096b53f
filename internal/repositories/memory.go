package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"payvo/internal/models"
)

// memStore is the shared state behind a MemoryWalletRepository.
type memStore struct {
	wallets      map[uint]models.Wallet
	transactions map[uint]models.Transaction
	byReference  map[string]uint
	nextWalletID uint
	nextTxID     uint
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		wallets:      make(map[uint]models.Wallet, len(s.wallets)),
		transactions: make(map[uint]models.Transaction, len(s.transactions)),
		byReference:  make(map[string]uint, len(s.byReference)),
		nextWalletID: s.nextWalletID,
		nextTxID:     s.nextTxID,
	}
	for id, w := range s.wallets {
		c.wallets[id] = w
	}
	for id, t := range s.transactions {
		c.transactions[id] = t
	}
	for ref, id := range s.byReference {
		c.byReference[ref] = id
	}
	return c
}

// MemoryWalletRepository is an in-memory WalletRepository with the same
// uniqueness and transaction semantics as the Postgres implementation. It
// backs the service tests and local development without a database.
type MemoryWalletRepository struct {
	mu    *sync.Mutex
	store *memStore
	inTx  bool
}

func NewMemoryWalletRepository() *MemoryWalletRepository {
	return &MemoryWalletRepository{
		mu: &sync.Mutex{},
		store: &memStore{
			wallets:      make(map[uint]models.Wallet),
			transactions: make(map[uint]models.Transaction),
			byReference:  make(map[string]uint),
		},
	}
}

func (m *MemoryWalletRepository) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryWalletRepository) Create(wallet *models.Wallet) error {
	defer m.lock()()

	for _, existing := range m.store.wallets {
		if existing.UserID == wallet.UserID && existing.Currency == wallet.Currency {
			return ErrDuplicateWallet
		}
	}

	m.store.nextWalletID++
	wallet.ID = m.store.nextWalletID
	if wallet.LastResetAt.IsZero() {
		wallet.LastResetAt = time.Now().UTC()
	}
	now := time.Now().UTC()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	m.store.wallets[wallet.ID] = *wallet
	return nil
}

func (m *MemoryWalletRepository) GetByID(id uint) (*models.Wallet, error) {
	defer m.lock()()

	w, ok := m.store.wallets[id]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return &w, nil
}

// GetByIDForUpdate is identical to GetByID here; exclusion is provided by
// the transaction mutex instead of a row lock.
func (m *MemoryWalletRepository) GetByIDForUpdate(id uint) (*models.Wallet, error) {
	return m.GetByID(id)
}

func (m *MemoryWalletRepository) GetByUserID(userID uint, currency string) (*models.Wallet, error) {
	defer m.lock()()

	for _, w := range m.store.wallets {
		if w.UserID == userID && w.Currency == currency {
			out := w
			return &out, nil
		}
	}
	return nil, ErrWalletNotFound
}

func (m *MemoryWalletRepository) Update(wallet *models.Wallet) error {
	defer m.lock()()

	if _, ok := m.store.wallets[wallet.ID]; !ok {
		return ErrWalletNotFound
	}
	wallet.UpdatedAt = time.Now().UTC()
	m.store.wallets[wallet.ID] = *wallet
	return nil
}

func (m *MemoryWalletRepository) GetStaleResetWallets(before time.Time, limit int) ([]uint, error) {
	defer m.lock()()

	var ids []uint
	for id, w := range m.store.wallets {
		if w.LastResetAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *MemoryWalletRepository) CreateTransaction(tx *models.Transaction) error {
	defer m.lock()()

	if _, exists := m.store.byReference[tx.Reference]; exists {
		return ErrDuplicateReference
	}

	m.store.nextTxID++
	tx.ID = m.store.nextTxID
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	m.store.transactions[tx.ID] = *tx
	m.store.byReference[tx.Reference] = tx.ID
	return nil
}

func (m *MemoryWalletRepository) UpdateTransaction(tx *models.Transaction) error {
	defer m.lock()()

	if _, ok := m.store.transactions[tx.ID]; !ok {
		return ErrTransactionNotFound
	}
	tx.UpdatedAt = time.Now().UTC()
	m.store.transactions[tx.ID] = *tx
	return nil
}

func (m *MemoryWalletRepository) GetTransactionByID(id uint) (*models.Transaction, error) {
	defer m.lock()()

	tx, ok := m.store.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &tx, nil
}

func (m *MemoryWalletRepository) GetTransactionByReference(reference string) (*models.Transaction, error) {
	defer m.lock()()

	id, ok := m.store.byReference[reference]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	tx := m.store.transactions[id]
	return &tx, nil
}

func (m *MemoryWalletRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	defer m.lock()()

	var history []models.Transaction
	for _, tx := range m.store.transactions {
		if tx.WalletID == walletID {
			history = append(history, tx)
		}
	}
	// Newest first, matching the Postgres ordering.
	sort.Slice(history, func(i, j int) bool { return history[i].ID > history[j].ID })

	if offset >= len(history) {
		return nil, nil
	}
	history = history[offset:]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (m *MemoryWalletRepository) ListPendingBefore(cutoff time.Time, limit int) ([]models.Transaction, error) {
	defer m.lock()()

	var pending []models.Transaction
	for _, tx := range m.store.transactions {
		if tx.Status == models.TransactionStatusPending && tx.CreatedAt.Before(cutoff) {
			pending = append(pending, tx)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// ExecuteInTransaction runs fn against a snapshot-backed view: all changes
// commit together on success and none survive an error.
func (m *MemoryWalletRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.store.clone()
	txRepo := &MemoryWalletRepository{mu: m.mu, store: m.store, inTx: true}
	if err := fn(txRepo); err != nil {
		m.store.wallets = snapshot.wallets
		m.store.transactions = snapshot.transactions
		m.store.byReference = snapshot.byReference
		m.store.nextWalletID = snapshot.nextWalletID
		m.store.nextTxID = snapshot.nextTxID
		return err
	}
	return nil
}

// MemoryConfigRepository serves fee and cashback rules from fixed slices.
type MemoryConfigRepository struct {
	WithdrawalConfigs []models.WithdrawalConfig
	CashbackConfigs   []models.CashbackConfig
}

func (m *MemoryConfigRepository) GetActiveWithdrawalConfig(tierLevel *int) (*models.WithdrawalConfig, error) {
	for i := range m.WithdrawalConfigs {
		cfg := m.WithdrawalConfigs[i]
		if !cfg.IsActive {
			continue
		}
		if tierLevel == nil && cfg.TierLevel == nil {
			return &cfg, nil
		}
		if tierLevel != nil && cfg.TierLevel != nil && *cfg.TierLevel == *tierLevel {
			return &cfg, nil
		}
	}
	return nil, ErrConfigNotFound
}

func (m *MemoryConfigRepository) GetActiveCashbackConfig(serviceType string, provider *string) (*models.CashbackConfig, error) {
	for i := range m.CashbackConfigs {
		cfg := m.CashbackConfigs[i]
		if !cfg.IsActive || cfg.ServiceType != serviceType {
			continue
		}
		if provider == nil && cfg.Provider == nil {
			return &cfg, nil
		}
		if provider != nil && cfg.Provider != nil && *cfg.Provider == *provider {
			return &cfg, nil
		}
	}
	return nil, ErrConfigNotFound
}

// MemoryCacheRepository is a map-backed CacheRepository for tests.
type MemoryCacheRepository struct {
	mu      sync.Mutex
	wallets map[uint]models.Wallet
	values  map[string][]byte
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{
		wallets: make(map[uint]models.Wallet),
		values:  make(map[string][]byte),
	}
}

func (m *MemoryCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *MemoryCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := value.([]byte); ok {
		m.values[key] = b
	}
	return nil
}

func (m *MemoryCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryCacheRepository) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &w, nil
}

func (m *MemoryCacheRepository) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[wallet.ID] = *wallet
	return nil
}

func (m *MemoryCacheRepository) DeleteWallet(ctx context.Context, walletID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wallets, walletID)
	return nil
}
