package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

// Counter implements httprate.LimitCounter on Redis. While Redis is
// unreachable it counts in process memory instead of failing requests.
type Counter struct {
	client   redis.UniversalClient
	prefix   string
	timeout  time.Duration
	logger   *slog.Logger
	mu       sync.Mutex
	window   time.Duration
	fallback httprate.LimitCounter
	degraded bool
}

var _ httprate.LimitCounter = (*Counter)(nil)

// NewCounter creates a Counter. Keys are namespaced by prefix; timeout
// bounds each Redis round trip.
func NewCounter(client redis.UniversalClient, prefix string, timeout time.Duration, logger *slog.Logger) *Counter {
	return &Counter{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
		logger:  logger,
	}
}

// Config is called by httprate with the limiter's window.
func (c *Counter) Config(requestLimit int, windowLength time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = windowLength
	c.fallback = httprate.NewLocalLimitCounter(windowLength)
	c.fallback.Config(requestLimit, windowLength)
}

// Increment adds one hit to key in currentWindow.
func (c *Counter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

// IncrementBy adds amount hits to key in currentWindow.
func (c *Counter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	k := c.windowKey(key, currentWindow)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, k, int64(amount))
		pipe.Expire(ctx, k, 3*c.windowLength())
		return nil
	})
	if err != nil {
		c.degrade(err)
		return c.fallback.IncrementBy(key, currentWindow, amount)
	}
	c.restore()
	return nil
}

// Get returns the hit counts of key in the current and previous windows.
func (c *Counter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	values, err := c.client.MGet(ctx, c.windowKey(key, currentWindow), c.windowKey(key, previousWindow)).Result()
	if err != nil {
		c.degrade(err)
		return c.fallback.Get(key, currentWindow, previousWindow)
	}
	c.restore()

	curr, err := toCount(values[0])
	if err != nil {
		return 0, 0, err
	}
	prev, err := toCount(values[1])
	if err != nil {
		return 0, 0, err
	}
	return curr, prev, nil
}

func (c *Counter) windowKey(key string, window time.Time) string {
	return c.prefix + key + ":" + strconv.FormatInt(window.Unix(), 10)
}

func (c *Counter) windowLength() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

func (c *Counter) degrade(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.degraded {
		c.logger.Warn("rate limit counter falling back to memory", "error", err)
		c.degraded = true
	}
}

func (c *Counter) restore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.degraded {
		c.logger.Info("rate limit counter using redis again")
		c.degraded = false
	}
}

// toCount converts an MGET value. Missing keys come back as nil.
func toCount(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("parsing rate limit counter %q: %w", val, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected rate limit counter type %T", v)
	}
}
