package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	convey.Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

		convey.Convey("HTTP observations are counted by route and status", func() {
			m.ObserveHTTP("/api/maps/{identifier}", http.MethodGet, 200, 3*time.Millisecond)
			m.ObserveHTTP("/api/maps/{identifier}", http.MethodGet, 200, time.Millisecond)
			m.ObserveHTTP("/api/maps/{identifier}", http.MethodGet, 204, time.Millisecond)

			ok := m.httpRequests.WithLabelValues("/api/maps/{identifier}", "GET", "200")
			convey.So(testutil.ToFloat64(ok), convey.ShouldEqual, 2.0)
		})

		convey.Convey("Pool stats are published as gauges", func() {
			m.SetPoolStats(PoolStats{Total: 5, Idle: 3, Acquired: 2, Max: 50})
			convey.So(testutil.ToFloat64(m.poolConns.WithLabelValues("idle")), convey.ShouldEqual, 3.0)
			convey.So(testutil.ToFloat64(m.poolMaxConns), convey.ShouldEqual, 50.0)
		})

		convey.Convey("Breaker state and transitions are tracked", func() {
			m.SetBreakerState("store", 2)
			m.BreakerTransition("store", "closed", "open")
			convey.So(testutil.ToFloat64(m.breakerState.WithLabelValues("store")), convey.ShouldEqual, 2.0)
			convey.So(testutil.ToFloat64(m.breakerTransitions.WithLabelValues("store", "closed", "open")), convey.ShouldEqual, 1.0)
		})

		convey.Convey("The handler exposes registered metrics", func() {
			m.IncRateLimited()
			m.ObserveQuery("player_by_id", "ok", time.Millisecond)

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "test_http_rate_limited_total 1")
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `test_store_queries_total{operation="player_by_id",result="ok"} 1`)
		})
	})

	convey.Convey("The default registry carries runtime collectors", t, func() {
		m := NewManager()
		families, err := m.Registry().Gather()
		convey.So(err, convey.ShouldBeNil)

		var names []string
		for _, f := range families {
			names = append(names, f.GetName())
		}
		convey.So(names, convey.ShouldContain, "go_goroutines")
	})
}
