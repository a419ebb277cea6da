// Package supervisor wires the config, torrent-client adapter, feed
// workers and reconciler together and owns their lifetime.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/feedbot/pkg/client"
	"github.com/autobrr/feedbot/pkg/config"
	"github.com/autobrr/feedbot/pkg/feed"
	"github.com/autobrr/feedbot/pkg/logger"
	"github.com/autobrr/feedbot/pkg/metrics"
	"github.com/autobrr/feedbot/pkg/notification"
	"github.com/autobrr/feedbot/pkg/reconciler"
)

const defaultHTTPTimeout = 30 * time.Second

// Supervisor owns the shared adapter handle, the N feed workers and the
// single reconciler.
type Supervisor struct {
	adapter    client.Interface
	workers    []*feed.Worker
	reconciler *reconciler.Reconciler
	metrics    config.MetricsConfig
	log        *logrus.Entry
}

// New builds a Supervisor from a loaded configuration. It does not
// connect to the torrent client; call Run for that.
func New(cfg *config.Configuration) *Supervisor {
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	var rate ratelimit.Limiter
	if cfg.HTTP.RatePerSecond > 0 {
		rate = ratelimit.New(cfg.HTTP.RatePerSecond)
	}

	adapter := client.NewAdapter(cfg.QBittorrent, timeout, rate)

	var notify notification.Sender
	if cfg.Notifications.Enabled() {
		notify = notification.NewDiscordSender(logger.GetLogger("notify"), cfg.Notifications)
	}

	workers := make([]*feed.Worker, 0, len(cfg.Feeds))
	for _, spec := range cfg.Feeds {
		fetcher := feed.NewFetcher(timeout, rate)
		workers = append(workers, feed.NewWorker(spec, fetcher, adapter, notify))
	}

	return &Supervisor{
		adapter:    adapter,
		workers:    workers,
		reconciler: reconciler.New(adapter, cfg.QBittorrent, notify),
		metrics:    cfg.Metrics,
		log:        logger.GetLogger("supervisor"),
	}
}

// Run connects the adapter, ensures reserved categories exist, then spawns
// one goroutine per feed worker (fire-and-forget: a worker panicking or
// returning only stops that feed) plus the reconciler, whose termination
// for any reason other than context cancellation is fatal to the process.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("connect to torrent client: %w", err)
	}
	if err := s.adapter.EnsureCategories(ctx); err != nil {
		return fmt.Errorf("ensure reserved categories: %w", err)
	}

	for _, w := range s.workers {
		go s.runWorker(ctx, w)
	}

	if s.metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, s.metrics.Address); err != nil {
				s.log.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.reconciler.Run(gctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("reconciler terminated: %w", err)
	}

	return nil
}

// runWorker recovers from a panic in a single feed worker so that one
// broken feed can never bring down the process; the degradation (that
// feed simply stops) is accepted by design.
func (s *Supervisor) runWorker(ctx context.Context, w *feed.Worker) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("feed worker panicked, feed stopped: %v", r)
		}
	}()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		s.log.WithError(err).Error("feed worker returned, feed stopped")
	}
}
