package repositories

import (
	"errors"
	"fmt"

	"payvo/internal/models"

	"gorm.io/gorm"
)

type configRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

// GetActiveWithdrawalConfig returns the active rule for the exact tier
// match. Pass nil for the global rule.
func (r *configRepository) GetActiveWithdrawalConfig(tierLevel *int) (*models.WithdrawalConfig, error) {
	var cfg models.WithdrawalConfig
	q := r.db.Where("is_active = ?", true)
	if tierLevel == nil {
		q = q.Where("tier_level IS NULL")
	} else {
		q = q.Where("tier_level = ?", *tierLevel)
	}
	if err := q.Order("updated_at DESC").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal config: %w", err)
	}
	return &cfg, nil
}

// GetActiveCashbackConfig returns the active rule for the exact
// (serviceType, provider) match. Pass nil provider for the global rule.
func (r *configRepository) GetActiveCashbackConfig(serviceType string, provider *string) (*models.CashbackConfig, error) {
	var cfg models.CashbackConfig
	q := r.db.Where("is_active = ? AND service_type = ?", true, serviceType)
	if provider == nil {
		q = q.Where("provider IS NULL")
	} else {
		q = q.Where("provider = ?", *provider)
	}
	if err := q.Order("updated_at DESC").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get cashback config: %w", err)
	}
	return &cfg, nil
}
