// Package metrics exposes an optional Prometheus /metrics endpoint. It is
// an ambient observability layer on top of the core logic, enabled only
// when Config.Metrics.Enabled is set.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnnouncementsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedbot",
		Name:      "announcements_matched_total",
		Help:      "Announcements that matched a feed rule, by feed URL.",
	}, []string{"feed"})

	TorrentsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedbot",
		Name:      "torrents_dispatched_total",
		Help:      "Torrents successfully handed to the torrent client, by feed URL.",
	}, []string{"feed"})

	TorrentsPausedTracker = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedbot",
		Name:      "torrents_paused_tracker_total",
		Help:      "Torrents paused for lacking an allow-listed tracker.",
	})

	TorrentsPausedTitle = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "feedbot",
		Name:      "torrents_paused_title_total",
		Help:      "Torrents quarantined for matching a title ban.",
	})
)

// Serve runs a minimal chi-routed HTTP server exposing /metrics until ctx
// is cancelled. Intended to run in its own goroutine from the supervisor.
func Serve(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
