//go:build integration

package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/httprate"
	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/testinfra"
	"github.com/smartystreets/goconvey/convey"
)

func TestRedisCounter(t *testing.T) {
	rd := testinfra.StartRedis(t)

	cfg := config.DefaultConfig().Redis
	cfg.Addr = rd.Addr
	client, err := NewClient(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	convey.Convey("Given two counters sharing one Redis", t, func() {
		a := NewCounter(client, "test:", time.Second, logger)
		b := NewCounter(client, "test:", time.Second, logger)
		a.Config(5, time.Minute)
		b.Config(5, time.Minute)
		now := time.Now().UTC().Truncate(time.Minute)

		convey.Convey("Hits from either are visible to both", func() {
			convey.So(a.Increment("shared", now), convey.ShouldBeNil)
			convey.So(b.IncrementBy("shared", now, 2), convey.ShouldBeNil)

			curr, prev, err := a.Get("shared", now, now.Add(-time.Minute))
			convey.So(err, convey.ShouldBeNil)
			convey.So(curr, convey.ShouldEqual, 3)
			convey.So(prev, convey.ShouldEqual, 0)
			convey.So(a.degraded, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given an httprate limiter backed by Redis", t, func() {
		counter := NewCounter(client, "http:", time.Second, logger)
		handler := httprate.Limit(2, time.Minute,
			httprate.WithKeyFuncs(func(*http.Request) (string, error) { return "fixed", nil }),
			httprate.WithLimitCounter(counter),
		)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		convey.Convey("The third request in a window is rejected", func() {
			codes := make([]int, 3)
			for i := range codes {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
				codes[i] = rec.Code
			}
			convey.So(codes, convey.ShouldResemble, []int{200, 200, 429})
		})
	})
}
