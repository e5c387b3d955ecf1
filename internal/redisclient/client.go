package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/touch_session.lua
var touchSessionScript string

//go:embed scripts/update_session.lua
var updateSessionScript string

type Client struct {
	rdb          *redis.Client
	touchScript  *redis.Script
	updateScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		touchScript:  redis.NewScript(touchSessionScript),
		updateScript: redis.NewScript(updateSessionScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// CreateSession stores a new session under a fresh token
func (c *Client) CreateSession(ctx context.Context, role, name, language string, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.New().String(),
		Role:      role,
		Name:      name,
		Language:  language,
		CreatedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionKey(session.Token), payload, ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// TouchSession loads a session and extends its TTL.
// A missing or expired session yields models.ErrUnauthorized.
func (c *Client) TouchSession(ctx context.Context, token string, ttl time.Duration) (*models.Session, error) {
	result, err := c.touchScript.Run(ctx, c.rdb, []string{sessionKey(token)}, ttl.Milliseconds()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("touch session script failed: %w", err)
	}

	payload, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected script result type")
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// UpdateSession rewrites a live session, keeping its TTL
func (c *Client) UpdateSession(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	updated, err := c.updateScript.Run(ctx, c.rdb, []string{sessionKey(session.Token)}, payload).Int()
	if err != nil {
		return fmt.Errorf("update session script failed: %w", err)
	}
	if updated == 0 {
		return models.ErrUnauthorized
	}
	return nil
}

// DeleteSession logs a session out
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, sessionKey(token)).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// GetIdempotencyKey returns the value stored for key; ok is false when the key is unknown
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (value string, ok bool, err error) {
	value, err = c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
