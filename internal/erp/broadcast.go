package erp

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const invalidationChannel = "erp.settings.invalidate"

// Broadcaster fans connection invalidations out to every instance over Redis
// pub/sub. A nil client turns it into a no-op.
type Broadcaster struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewBroadcaster constructs a Broadcaster on the default channel.
func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{client: client, channel: invalidationChannel, logger: logger}
}

// Publish announces that tenantID's configuration changed.
func (b *Broadcaster) Publish(ctx context.Context, tenantID string) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Publish(ctx, b.channel, tenantID).Err()
}

// Listen subscribes to invalidations and calls fn for each tenant id until ctx
// ends. The subscription is confirmed before Listen returns.
func (b *Broadcaster) Listen(ctx context.Context, fn func(tenantID string)) error {
	if b == nil || b.client == nil {
		return nil
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == "" {
					continue
				}
				b.logger.Debug("erp invalidation received", slog.String("tenant_id", msg.Payload))
				fn(msg.Payload)
			}
		}
	}()
	return nil
}

// Listen wires the manager to a broadcaster so remote saves drop local entries.
func (m *SessionManager) Listen(ctx context.Context, b *Broadcaster) error {
	return b.Listen(ctx, m.Invalidate)
}
