package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/patientlink/web/internal/config"
)

const keyPrefix = "session:"

// Record is the server-side session state keyed by the opaque cookie value.
// It carries the identity token verbatim; roles are always re-derived from
// it, never stored.
type Record struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps session records in redis so the browser only ever holds an
// opaque session ID.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Put stores a record and returns the freshly minted session ID.
func (s *Store) Put(ctx context.Context, rec Record) (string, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session record: %w", err)
	}

	id := uuid.New().String()
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

// Get fetches a record; an unknown or expired session yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return &rec, nil
}

// Delete removes a record on logout.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
