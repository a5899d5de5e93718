package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2, PoolSize: 7})
	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := NewClient(ctx, config.RedisConfig{Addr: "127.0.0.1:1", PoolSize: 1}); err == nil {
		t.Error("expected ping failure against a closed port")
	}
}
