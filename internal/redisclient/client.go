package redisclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the redis connection backing the shared registration rate limiter.
type Client struct {
	redisdb *redis.Client
}

type Config struct {
	// Addr is host:port, or a full redis:// / rediss:// URL.
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	return &Client{redisdb: redis.NewClient(opts)}, nil
}

func options(cfg Config) (*redis.Options, error) {
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is empty")
	}

	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// Ping backs the /readyz probe.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.redisdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Raw exposes the client for the rate limiter.
func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
