package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfirmationRepository keeps confirmation codes in Redis
type RedisConfirmationRepository struct {
	client *redis.Client
}

func NewRedisConfirmationRepository(client *redis.Client) *RedisConfirmationRepository {
	return &RedisConfirmationRepository{client: client}
}

func (r *RedisConfirmationRepository) Get(ctx context.Context, key string) (string, error) {
	code, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoChallenge
	}
	if err != nil {
		return "", fmt.Errorf("failed to get confirmation code: %w", err)
	}
	return code, nil
}

// Set stores code under key; a zero ttl means no expiry
func (r *RedisConfirmationRepository) Set(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store confirmation code: %w", err)
	}
	return nil
}

func (r *RedisConfirmationRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete confirmation code: %w", err)
	}
	return nil
}

type memoryEntry struct {
	code      string
	expiresAt time.Time // zero means no expiry
}

// MemoryConfirmationRepository keeps confirmation codes in process memory.
// Used in tests and when Redis is disabled.
type MemoryConfirmationRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryConfirmationRepository() *MemoryConfirmationRepository {
	return &MemoryConfirmationRepository{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (r *MemoryConfirmationRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return "", ErrNoChallenge
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, key)
		return "", ErrNoChallenge
	}
	return entry.code, nil
}

func (r *MemoryConfirmationRepository) Set(_ context.Context, key, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry{code: code}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries[key] = entry
	return nil
}

func (r *MemoryConfirmationRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
	return nil
}
