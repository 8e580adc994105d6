package ratelimit

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartystreets/goconvey/convey"
)

func TestWindowKey(t *testing.T) {
	convey.Convey("Window keys are namespaced and bucketed by window start", t, func() {
		c := NewCounter(nil, "kz:", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
		window := time.Unix(1700000000, 0)
		convey.So(c.windowKey("10.0.0.1", window), convey.ShouldEqual, "kz:10.0.0.1:1700000000")
	})
}

func TestToCount(t *testing.T) {
	convey.Convey("MGET values convert to counts", t, func() {
		n, err := toCount(nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 0)

		n, err = toCount("42")
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 42)

		_, err = toCount("x")
		convey.So(err, convey.ShouldNotBeNil)

		_, err = toCount(3.5)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestFallback(t *testing.T) {
	convey.Convey("Given a counter whose Redis is unreachable", t, func() {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		c := NewCounter(client, "kz:", 100*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		c.Config(10, time.Minute)
		now := time.Now().UTC().Truncate(time.Minute)

		convey.Convey("Hits are still counted in memory", func() {
			convey.So(c.Increment("client", now), convey.ShouldBeNil)
			convey.So(c.IncrementBy("client", now, 2), convey.ShouldBeNil)

			curr, prev, err := c.Get("client", now, now.Add(-time.Minute))
			convey.So(err, convey.ShouldBeNil)
			convey.So(curr, convey.ShouldEqual, 3)
			convey.So(prev, convey.ShouldEqual, 0)
			convey.So(c.degraded, convey.ShouldBeTrue)
		})
	})
}
