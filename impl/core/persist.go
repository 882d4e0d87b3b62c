package core

import (
	"StoreChat/entity"
	"StoreChat/internal/metrics"
	"context"
	"fmt"
)

// persist saves msg through the circuit breaker. On failure it returns an
// unsaved copy stamped with fresh timestamps together with ErrPersistence, so
// callers can keep delivering the message.
func (c *Core) persist(ctx context.Context, msg entity.Message) (entity.Message, error) {
	if c.repo == nil {
		metrics.PersistenceFailures.Inc()
		return c.unsaved(msg), fmt.Errorf("save %s: no repository: %w", msg.MessageID, entity.ErrPersistence)
	}

	saved, err := c.breaker.Execute(func() (interface{}, error) {
		return c.repo.SaveMessage(ctx, msg)
	})
	if err != nil {
		metrics.PersistenceFailures.Inc()
		return c.unsaved(msg), fmt.Errorf("save %s: %w: %w", msg.MessageID, entity.ErrPersistence, err)
	}
	return saved.(entity.Message), nil
}

func (c *Core) unsaved(msg entity.Message) entity.Message {
	now := c.now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.ReadBy == nil {
		msg.ReadBy = []entity.ReadReceipt{}
	}
	return msg
}
