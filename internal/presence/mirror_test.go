package presence

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestPresenceKey(t *testing.T) {
	if got := PresenceKey("EMP7"); got != "presence:EMP7" {
		t.Errorf("key = %q", got)
	}
}

func TestNopMirror(t *testing.T) {
	var m Mirror = NopMirror{}
	if err := m.Publish(context.Background(), UserState{UserID: "EMP7"}); err != nil {
		t.Error(err)
	}
	if err := m.Remove(context.Background(), "EMP7"); err != nil {
		t.Error(err)
	}
}

func TestRedisMirrorReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	m := NewRedisMirror(client, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.Publish(ctx, UserState{UserID: "EMP7", Online: true}); err == nil {
		t.Error("expected publish error")
	}
	if err := m.Remove(ctx, "EMP7"); err == nil {
		t.Error("expected remove error")
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url", 0); err == nil {
		t.Error("expected parse error")
	}
}
