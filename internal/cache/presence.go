package cache

import (
	"StoreChat/entity"
	"context"
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const presenceKey = "presence"

type presenceRecord struct {
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Instance string    `json:"instance"`
	Seen     time.Time `json:"seen"`
}

// RedisPresence keeps the cluster wide online set in one hash. Entries not
// refreshed within staleAfter are treated as offline.
type RedisPresence struct {
	client     *redis.Client
	key        string
	instance   string
	staleAfter time.Duration
	now        func() time.Time
}

func NewRedisPresence(client *redis.Client, prefix, instance string, staleAfter time.Duration) *RedisPresence {
	return &RedisPresence{
		client:     client,
		key:        prefix + presenceKey,
		instance:   instance,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (p *RedisPresence) SetOnline(ctx context.Context, participant entity.Participant) error {
	data, err := json.Marshal(presenceRecord{
		Name:     participant.DisplayName,
		Role:     participant.Role,
		Instance: p.instance,
		Seen:     p.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}
	if err = p.client.HSet(ctx, p.key, participant.Identity, data).Err(); err != nil {
		return fmt.Errorf("presence set %s: %w", participant.Identity, err)
	}
	return nil
}

func (p *RedisPresence) Remove(ctx context.Context, identity string) error {
	if err := p.client.HDel(ctx, p.key, identity).Err(); err != nil {
		return fmt.Errorf("presence remove %s: %w", identity, err)
	}
	return nil
}

// Online lists fresh entries ordered by identity and prunes stale ones.
func (p *RedisPresence) Online(ctx context.Context) ([]entity.Participant, error) {
	entries, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("presence list: %w", err)
	}

	cutoff := p.now().Add(-p.staleAfter)
	online := make([]entity.Participant, 0, len(entries))
	var stale []string
	for identity, raw := range entries {
		var rec presenceRecord
		if err = json.Unmarshal([]byte(raw), &rec); err != nil || rec.Seen.Before(cutoff) {
			stale = append(stale, identity)
			continue
		}
		online = append(online, entity.Participant{
			Identity:    identity,
			DisplayName: rec.Name,
			Role:        rec.Role,
		})
	}
	if len(stale) > 0 {
		_ = p.client.HDel(ctx, p.key, stale...).Err()
	}

	sort.Slice(online, func(i, j int) bool {
		return online[i].Identity < online[j].Identity
	})
	return online, nil
}
