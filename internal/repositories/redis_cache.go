package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payvo/internal/models"

	"github.com/redis/go-redis/v9"
)

const walletCachePrefix = "wallet:"

type RedisCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCacheRepository(client *redis.Client, ttl time.Duration) CacheRepository {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &RedisCacheRepository{client: client, ttl: ttl}
}

func (r *RedisCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisCacheRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCacheRepository) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	data, err := r.Get(ctx, walletKey(walletID))
	if err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *RedisCacheRepository) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.Set(ctx, walletKey(wallet.ID), wallet, r.ttl)
}

func (r *RedisCacheRepository) DeleteWallet(ctx context.Context, walletID uint) error {
	return r.Delete(ctx, walletKey(walletID))
}

func walletKey(walletID uint) string {
	return fmt.Sprintf("%s%d", walletCachePrefix, walletID)
}
