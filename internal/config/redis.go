package config

// Redis backs the distributed rate limiter and the HTTP response cache.  It
// is optional: when the server cannot be reached at startup NewRedisClient
// returns nil and both middlewares degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// RedisConfig is read from REDIS_ADDR, or REDIS_HOST and REDIS_PORT (which
// take precedence when both are set), plus REDIS_PASSWORD, REDIS_DB and
// REDIS_TLS.  REDIS_DISABLED skips Redis entirely.
type RedisConfig struct {
	Disabled bool   `envconfig:"DISABLED" default:"false"`
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
	TLS      bool   `envconfig:"TLS" default:"false"`
}

func (r *RedisConfig) normalize() {
	if r.Host != "" && r.Port != "" {
		r.Addr = r.Host + ":" + r.Port
	}
	if r.Addr == "" {
		r.Addr = "localhost:6379"
	}
}

// NewRedisClient connects to Redis and instruments the client for tracing.
// The returned client is nil if Redis is disabled or the ping fails.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Disabled {
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	// a tracing hook failure leaves the client usable
	_ = redisotel.InstrumentTracing(client)
	return client
}
