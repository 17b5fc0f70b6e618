package presence

import (
	"Workpulse/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "presence:"
	onlineSetKey      = "online_users"
)

// UserState is what the mirror stores for one user.
type UserState struct {
	UserID      string             `json:"userId"`
	Name        string             `json:"name"`
	Online      bool               `json:"online"`
	Connections int                `json:"connections"`
	Caps        model.Capabilities `json:"caps"`
	LastSeen    time.Time          `json:"lastSeen"`
}

// Mirror publishes presence outside the process. Implementations must be
// safe for concurrent use.
type Mirror interface {
	Publish(ctx context.Context, st UserState) error
	Remove(ctx context.Context, userID string) error
}

// NopMirror is used when no Redis is configured.
type NopMirror struct{}

func (NopMirror) Publish(context.Context, UserState) error { return nil }
func (NopMirror) Remove(context.Context, string) error     { return nil }

// RedisMirror keeps presence:<userId> with a TTL and an online_users set.
type RedisMirror struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &RedisMirror{redis: client, ttl: ttl}
}

// NewRedisClient parses url, selects db and pings the server.
func NewRedisClient(ctx context.Context, url string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opt.DB = db

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func PresenceKey(userID string) string {
	return presenceKeyPrefix + userID
}

func (m *RedisMirror) Publish(ctx context.Context, st UserState) error {
	if st.LastSeen.IsZero() {
		st.LastSeen = time.Now()
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	pipe := m.redis.Pipeline()
	pipe.Set(ctx, PresenceKey(st.UserID), data, m.ttl)
	pipe.SAdd(ctx, onlineSetKey, st.UserID)
	pipe.Expire(ctx, onlineSetKey, m.ttl*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish presence: %w", err)
	}
	return nil
}

func (m *RedisMirror) Remove(ctx context.Context, userID string) error {
	pipe := m.redis.Pipeline()
	pipe.Del(ctx, PresenceKey(userID))
	pipe.SRem(ctx, onlineSetKey, userID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}
	return nil
}
