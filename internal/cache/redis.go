// Package cache provides the optional Redis-backed dedup guard.
//
// The guard is a short-TTL SET NX in front of the database: it catches
// rapid duplicate beacons (double clicks, client retries) without a
// round trip to Postgres. The database unique constraint remains the
// source of truth; the guard is purely an optimization and the service
// runs fine without it.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a redis.Client configured for the dedup guard.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(addr, password string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Client{rdb: rdb}, nil
}

// Close shuts down the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// CheckAndMark returns seen=true when the key was already marked within
// the TTL window. Otherwise it marks the key and returns seen=false.
// SET NX makes the check-and-mark atomic under concurrent beacons.
func (c *Client) CheckAndMark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := c.rdb.SetNX(ctx, "dedupe:"+key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Unmark removes a previously marked key. Called when the database
// write behind the guard fails, so the client's retry is not answered
// as a duplicate of an event that was never stored.
func (c *Client) Unmark(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, "dedupe:"+key).Err()
}
