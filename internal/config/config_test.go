package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := DefaultConfig()

		convey.Convey("Listing limits match the API contract", func() {
			convey.So(cfg.Records.DefaultLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Records.MaxLimit, convey.ShouldEqual, 500)
			convey.So(cfg.Top.DefaultLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Top.MaxLimit, convey.ShouldEqual, 250)
			convey.So(cfg.Maps.DefaultLimit, convey.ShouldEqual, 500)
			convey.So(cfg.Maps.MaxLimit, convey.ShouldEqual, 2000)
			convey.So(cfg.Servers.DefaultLimit, convey.ShouldEqual, 500)
			convey.So(cfg.Servers.MaxLimit, convey.ShouldEqual, 1500)
		})

		convey.Convey("The pool and auth defaults are set", func() {
			convey.So(cfg.Postgres.MaxConnections, convey.ShouldEqual, 50)
			convey.So(cfg.Auth.Header, convey.ShouldEqual, "X-Auth-Key")
			convey.So(cfg.Auth.APIKey, convey.ShouldBeEmpty)
			convey.So(cfg.Stats.Enabled, convey.ShouldBeTrue)
		})

		convey.Convey("It validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestLoad(t *testing.T) {
	convey.Convey("Given a config file referencing the environment", t, func() {
		t.Setenv("KZSTATS_DB_PASSWORD", "hunter2")
		path := writeConfig(t, `
server:
  port: 9090
postgres:
  host: db
  user: kz
  password: ${KZSTATS_DB_PASSWORD}
  database: kzstats
rate_limit:
  enabled: true
  requests: 10
  window: 30s
top:
  max_limit: 400
servers:
  default_limit: 50
log_level: debug
`)

		cfg, err := Load(path)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Environment variables are expanded", func() {
			convey.So(cfg.Postgres.Password, convey.ShouldEqual, "hunter2")
			convey.So(cfg.Postgres.ConnectionString(), convey.ShouldEqual,
				"postgres://kz:hunter2@db:5432/kzstats?sslmode=disable")
		})

		convey.Convey("Set values win and missing ones get defaults", func() {
			convey.So(cfg.Server.Port, convey.ShouldEqual, 9090)
			convey.So(cfg.Server.ReadTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RateLimit.Window, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Top.MaxLimit, convey.ShouldEqual, 400)
			convey.So(cfg.Top.DefaultLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Servers.DefaultLimit, convey.ShouldEqual, 50)
			convey.So(cfg.Servers.MaxLimit, convey.ShouldEqual, 1500)
		})
	})

	convey.Convey("Given a default limit above the max", t, func() {
		path := writeConfig(t, "top:\n  max_limit: 50\n  default_limit: 80\n")
		_, err := Load(path)
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "DefaultLimit")
	})

	convey.Convey("Given an unknown log level", t, func() {
		path := writeConfig(t, "log_level: chatty\n")
		_, err := Load(path)
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Given a missing file", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestClamp(t *testing.T) {
	convey.Convey("Limits are clamped to the configured bounds", t, func() {
		l := LimitConfig{DefaultLimit: 100, MaxLimit: 250}
		convey.So(l.Clamp(0), convey.ShouldEqual, 100)
		convey.So(l.Clamp(-3), convey.ShouldEqual, 100)
		convey.So(l.Clamp(20), convey.ShouldEqual, 20)
		convey.So(l.Clamp(1000), convey.ShouldEqual, 250)
	})
}
