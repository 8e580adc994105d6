package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/domain"
	gobreaker "github.com/sony/gobreaker/v2"
)

type breakerObserver interface {
	SetBreakerState(name string, state float64)
	BreakerTransition(name, from, to string)
}

// breaker trips when the database keeps failing so requests fail fast
// instead of queueing on a dead pool.
type breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func newBreaker(name string, cfg *config.BreakerConfig, observer breakerObserver, logger *slog.Logger) *breaker {
	observer.SetBreakerState(name, stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logger.Warn("opening database circuit breaker",
					"failures", counts.TotalFailures,
					"failure_ratio", ratio,
				)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("database circuit breaker state changed", "from", from.String(), "to", to.String())
			observer.SetBreakerState(name, stateToFloat(to))
			observer.BreakerTransition(name, from.String(), to.String())
		},
		IsSuccessful: isHealthy,
	})

	return &breaker{cb: cb}
}

// isHealthy reports whether err says nothing about the database's health.
func isHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, context.Canceled)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// run executes fn through the breaker and maps its error into the domain
// taxonomy. op names the query in logs and metrics.
func run[T any](ctx context.Context, r *Repository, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := r.breaker.cb.Execute(func() (any, error) {
		return fn(ctx)
	})

	var zero T
	switch {
	case err == nil:
		r.observer.ObserveQuery(op, "ok", time.Since(start))
	case errors.Is(err, pgx.ErrNoRows):
		r.observer.ObserveQuery(op, "not_found", time.Since(start))
		return zero, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		r.observer.ObserveQuery(op, "rejected", time.Since(start))
		return zero, fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
	default:
		r.observer.ObserveQuery(op, "error", time.Since(start))
		return zero, fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
	}

	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %w: unexpected result type %T", op, domain.ErrStore, out)
	}
	return typed, nil
}
