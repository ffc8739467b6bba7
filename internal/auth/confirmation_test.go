package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[0-9a-f]{6}$`)

func newMiniredisStore(t *testing.T) (*RedisConfirmationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisConfirmationRepository(client), mr
}

func confirmationStores(t *testing.T) map[string]ConfirmationStore {
	redisStore, _ := newMiniredisStore(t)
	return map[string]ConfirmationStore{
		"memory": NewMemoryConfirmationRepository(),
		"redis":  redisStore,
	}
}

func TestConfirmations_IssueVerifyConsume(t *testing.T) {
	for name, store := range confirmationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := NewConfirmations(store, 10*time.Minute)
			key := ConfirmationKey(1)

			code, err := c.Issue(ctx, key)
			require.NoError(t, err)
			assert.Regexp(t, codePattern, code)

			require.NoError(t, c.Verify(ctx, key, code))
			assert.ErrorIs(t, c.Verify(ctx, key, code), ErrNoChallenge)
		})
	}
}

func TestConfirmations_MismatchKeepsPending(t *testing.T) {
	for name, store := range confirmationStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := NewConfirmations(store, 0)
			key := ConfirmationKey(2)

			code, err := c.Issue(ctx, key)
			require.NoError(t, err)

			wrong := "zzzzzz"
			assert.ErrorIs(t, c.Verify(ctx, key, wrong), ErrCodeMismatch)

			// exact match only
			upper := []byte(code)
			for i, b := range upper {
				if b >= 'a' && b <= 'f' {
					upper[i] = b - 'a' + 'A'
				}
			}
			if string(upper) != code {
				assert.ErrorIs(t, c.Verify(ctx, key, string(upper)), ErrCodeMismatch)
			}

			assert.NoError(t, c.Verify(ctx, key, code))
		})
	}
}

func TestConfirmations_NoChallenge(t *testing.T) {
	c := NewConfirmations(NewMemoryConfirmationRepository(), time.Minute)
	assert.ErrorIs(t, c.Verify(context.Background(), ConfirmationKey(3), "abcdef"), ErrNoChallenge)
}

func TestConfirmations_IssueOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryConfirmationRepository()
	c := NewConfirmations(store, time.Minute)
	key := ConfirmationKey(4)

	_, err := c.Issue(ctx, key)
	require.NoError(t, err)
	second, err := c.Issue(ctx, key)
	require.NoError(t, err)

	pending, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second, pending)
}

func TestConfirmations_Discard(t *testing.T) {
	ctx := context.Background()
	c := NewConfirmations(NewMemoryConfirmationRepository(), time.Minute)
	key := ConfirmationKey(5)

	code, err := c.Issue(ctx, key)
	require.NoError(t, err)
	require.NoError(t, c.Discard(ctx, key))

	assert.ErrorIs(t, c.Verify(ctx, key, code), ErrNoChallenge)
}

func TestMemoryConfirmationRepository_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	store := NewMemoryConfirmationRepository()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", "abcdef", 10*time.Minute))
	require.NoError(t, store.Set(ctx, "forever", "123456", 0))

	now = now.Add(9 * time.Minute)
	code, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", code)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNoChallenge)

	now = now.Add(365 * 24 * time.Hour)
	code, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}

func TestRedisConfirmationRepository_TTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t)
	c := NewConfirmations(store, 10*time.Minute)
	key := ConfirmationKey(9)

	code, err := c.Issue(ctx, key)
	require.NoError(t, err)

	stored, err := mr.Get("phone_confirm:9")
	require.NoError(t, err)
	assert.Equal(t, code, stored)
	assert.Equal(t, 10*time.Minute, mr.TTL("phone_confirm:9"))

	mr.FastForward(10 * time.Minute)
	assert.ErrorIs(t, c.Verify(ctx, key, code), ErrNoChallenge)
}

func TestRedisConfirmationRepository_NoTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniredisStore(t)

	require.NoError(t, store.Set(ctx, "phone_confirm:1", "abcdef", 0))
	assert.Zero(t, mr.TTL("phone_confirm:1"))
}

func TestRedisConfirmationRepository_Unavailable(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.Close()

	c := NewConfirmations(store, time.Minute)
	err := c.Verify(context.Background(), ConfirmationKey(1), "abcdef")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoChallenge)
}
