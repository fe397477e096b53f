// Package events emits domain events for external notification dispatch.
// The engine only announces what happened; formatting and delivery belong
// to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"payvo/internal/models"
)

// Event names
const (
	TransactionCompleted = "transaction.completed"
	TransactionFailed    = "transaction.failed"
	TransactionReversed  = "transaction.reversed"
	WalletLocked         = "wallet.locked"
	WalletUnlocked       = "wallet.unlocked"
	LimitExceeded        = "limit.exceeded"
)

const channelPrefix = "payvo:events:"

// Event is a domain event envelope.
type Event struct {
	Name       string      `json:"name"`
	WalletID   uint        `json:"wallet_id"`
	Reference  string      `json:"reference,omitempty"`
	Payload    models.JSON `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher announces domain events. Publishing is best-effort and must
// never fail a committed transaction.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// RedisPublisher publishes events on per-name Redis channels.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	if client == nil {
		panic("redis client is required")
	}
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to encode event %s: %v", event.Name, err)
		return
	}
	if err := p.client.Publish(ctx, channelPrefix+event.Name, data).Err(); err != nil {
		log.Printf("failed to publish event %s: %v", event.Name, err)
	}
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}
