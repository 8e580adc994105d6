package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kzstats/internal/config"
	"github.com/kzstats/internal/metrics"
)

// PoolSource reports connection pool usage
type PoolSource interface {
	PoolStats() metrics.PoolStats
}

// PoolSink receives pool usage samples
type PoolSink interface {
	SetPoolStats(s metrics.PoolStats)
}

// StatsWorker periodically copies connection pool statistics into metrics
type StatsWorker struct {
	source  PoolSource
	sink    PoolSink
	config  *config.StatsConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(source PoolSource, sink PoolSink, cfg *config.StatsConfig, logger *slog.Logger) *StatsWorker {
	return &StatsWorker{
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start samples once and then on every interval until Stop or ctx ends
func (w *StatsWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("stats worker started", "interval", w.config.Interval)

	w.sample()
	go w.run(ctx)
	return nil
}

// Stop stops the background sampling
func (w *StatsWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.logger.Info("stats worker stopped")
	return nil
}

func (w *StatsWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *StatsWorker) sample() {
	stats := w.source.PoolStats()
	w.sink.SetPoolStats(stats)
	w.logger.Debug("pool stats sampled",
		"total", stats.Total,
		"idle", stats.Idle,
		"acquired", stats.Acquired,
	)
}
