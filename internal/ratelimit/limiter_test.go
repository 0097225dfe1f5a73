package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis answers INCR, TTL and EXPIRE from memory through a client hook,
// so no server is contacted
type fakeRedis struct {
	counts      map[string]int64
	ttls        map[string]time.Duration
	failExpires int
}

func (f *fakeRedis) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (f *fakeRedis) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		args := cmd.Args()
		key, _ := args[1].(string)

		switch strings.ToLower(cmd.Name()) {
		case "incr":
			f.counts[key]++
			cmd.(*goredis.IntCmd).SetVal(f.counts[key])
		case "ttl":
			ttl, ok := f.ttls[key]
			if !ok {
				ttl = -1
			}
			cmd.(*goredis.DurationCmd).SetVal(ttl)
		case "expire":
			if f.failExpires > 0 {
				f.failExpires--
				err := errors.New("connection reset")
				cmd.SetErr(err)
				return err
			}
			f.ttls[key] = time.Minute
			cmd.(*goredis.BoolCmd).SetVal(true)
		default:
			return next(ctx, cmd)
		}
		return nil
	}
}

func (f *fakeRedis) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func newFakeLimiter(t *testing.T) (*Limiter, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	rdb.AddHook(fake)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLimiter(rdb), fake
}

func TestLimiter_Allow(t *testing.T) {
	limiter, fake := newFakeLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1:/api/auth/login", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1:/api/auth/login", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, time.Minute, fake.ttls["ratelimit:10.0.0.1:/api/auth/login"])
}

func TestLimiter_RestoresMissingTTL(t *testing.T) {
	limiter, fake := newFakeLimiter(t)
	ctx := context.Background()
	key := "10.0.0.1:/api/auth/login"
	fake.failExpires = 1

	_, err := limiter.Allow(ctx, key, 5, time.Minute)
	require.Error(t, err)
	_, hasTTL := fake.ttls[keyPrefix+key]
	require.False(t, hasTTL)

	// the next request finds the counter without a TTL and sets one
	ok, err := limiter.Allow(ctx, key, 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, fake.ttls[keyPrefix+key])
	assert.Equal(t, int64(2), fake.counts[keyPrefix+key])
}
