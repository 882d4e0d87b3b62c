package pubsub

import (
	"StoreChat/internal/lib/sl"
	"StoreChat/internal/ws"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	hubEventsChannel = "hub:events"

	maxBackoff = 30 * time.Second
)

var errChannelClosed = errors.New("subscription channel closed")

// Deliverer replays events from other instances to local clients.
type Deliverer interface {
	Deliver(env ws.Envelope)
}

// RedisBackplane relays hub fan-out between instances over Redis Pub/Sub.
type RedisBackplane struct {
	client     *redis.Client
	channel    string
	instanceID string
	log        *slog.Logger
}

func NewRedisBackplane(client *redis.Client, prefix string, log *slog.Logger) *RedisBackplane {
	return &RedisBackplane{
		client:     client,
		channel:    prefix + hubEventsChannel,
		instanceID: uuid.NewString(),
		log:        log.With(sl.Module("backplane")),
	}
}

func (b *RedisBackplane) InstanceID() string {
	return b.instanceID
}

// Publish stamps env with this instance id and sends it to the shared channel.
func (b *RedisBackplane) Publish(ctx context.Context, env ws.Envelope) error {
	env.Origin = b.instanceID
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err = b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", env.Event, err)
	}
	return nil
}

// Run subscribes until ctx is done, reconnecting with exponential backoff.
// Envelopes published by this instance are skipped.
func (b *RedisBackplane) Run(ctx context.Context, target Deliverer) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = maxBackoff
	policy.MaxElapsedTime = 0

	operation := func() error {
		err := b.subscribe(ctx, target, policy.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		b.log.Warn("subscription lost, reconnecting",
			slog.String("channel", b.channel),
			slog.Duration("backoff", wait),
			sl.Err(err),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
}

func (b *RedisBackplane) subscribe(ctx context.Context, target Deliverer, connected func()) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		_ = sub.Close()
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	connected()
	b.log.Info("subscribed", slog.String("channel", b.channel), slog.String("instance", b.instanceID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errChannelClosed
			}
			b.handle(msg.Payload, target)
		}
	}
}

func (b *RedisBackplane) handle(payload string, target Deliverer) {
	var env ws.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.Warn("bad envelope", sl.Err(err))
		return
	}
	if env.Origin == b.instanceID {
		return
	}
	target.Deliver(env)
}
