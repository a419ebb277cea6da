package feed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/feedbot/pkg/apperrors"
	"github.com/autobrr/feedbot/pkg/client"
	"github.com/autobrr/feedbot/pkg/config"
	"github.com/autobrr/feedbot/pkg/logger"
	"github.com/autobrr/feedbot/pkg/metrics"
	"github.com/autobrr/feedbot/pkg/notification"
)

const backoffOnError = 60 * time.Second

// match pairs a decoded Announcement with the first FeedSpec rule that
// matched it (its "bound rule"), per the matcher's first-match-wins
// contract.
type match struct {
	announcement Announcement
	rule         config.MatchRule
}

// Worker runs one feed's fetch→decode→match→dispatch loop. Dedup state
// (dispatched fingerprints) lives only for the process lifetime.
type Worker struct {
	spec    config.FeedSpec
	fetcher *Fetcher
	adapter client.Interface
	notify  notification.Sender
	log     *logrus.Entry

	mu         sync.Mutex
	dispatched map[uint64]struct{}
}

func NewWorker(spec config.FeedSpec, fetcher *Fetcher, adapter client.Interface, notify notification.Sender) *Worker {
	return &Worker{
		spec:       spec,
		fetcher:    fetcher,
		adapter:    adapter,
		notify:     notify,
		log:        logger.GetLogger("feed").WithField("feed", spec.URL),
		dispatched: make(map[uint64]struct{}),
	}
}

// Run loops until ctx is cancelled. A fetch/decode/match failure logs and
// applies the fixed 60s backoff rather than the feed's normal interval,
// so one broken feed can't starve the scheduler with tight retries.
func (w *Worker) Run(ctx context.Context) error {
	interval := time.Duration(w.spec.UpdateInterval) * time.Second

	for {
		matches, err := w.fetchNew(ctx)
		sleep := interval

		if err != nil {
			w.log.WithError(err).Warn("feed tick failed, backing off")
			sleep = backoffOnError
		} else {
			for _, m := range matches {
				fp := m.announcement.Fingerprint

				w.mu.Lock()
				_, seen := w.dispatched[fp]
				w.mu.Unlock()
				if seen {
					continue
				}

				if dispatchErr := w.dispatch(ctx, m); dispatchErr != nil {
					w.log.WithError(dispatchErr).WithField("title", m.announcement.RawTitle).
						Warn("dispatch failed, will retry next tick")
					continue
				}

				w.mu.Lock()
				w.dispatched[fp] = struct{}{}
				w.mu.Unlock()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// fetchNew runs fetch → decode → match and returns only the announcements
// that matched a rule, paired with their bound rule.
func (w *Worker) fetchNew(ctx context.Context) ([]match, error) {
	body, err := w.fetcher.Fetch(ctx, w.spec.URL)
	if err != nil {
		return nil, err
	}

	announcements, err := Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := make([]match, 0, len(announcements))
	for _, a := range announcements {
		rule, ok := FirstMatch(w.spec.Matcher, a.Title, a.Tags)
		if !ok {
			continue
		}
		metrics.AnnouncementsMatched.WithLabelValues(w.spec.URL).Inc()
		out = append(out, match{announcement: a, rule: rule})
	}

	return out, nil
}

// dispatch creates the save folder (idempotent), writes the sidecar
// (best-effort), then hands the announcement to the adapter. The
// fingerprint is recorded by the caller only once this returns nil.
func (w *Worker) dispatch(ctx context.Context, m match) error {
	if err := os.MkdirAll(m.rule.SaveFolder, 0o755); err != nil {
		return fmt.Errorf("%w: create save folder %q: %v", apperrors.ErrFilesystemFailed, m.rule.SaveFolder, err)
	}

	if err := writeSidecar(m.rule.SaveFolder, m.announcement); err != nil {
		w.log.WithError(err).Debug("sidecar write failed, continuing dispatch")
	}

	if err := w.adapter.Add(ctx, client.AddRequest{
		URL:      m.announcement.DownloadURL,
		SavePath: m.rule.SaveFolder,
		Paused:   m.rule.StartPaused,
		Category: config.ReservedAutoDL,
	}); err != nil {
		return err
	}

	metrics.TorrentsDispatched.WithLabelValues(w.spec.URL).Inc()

	sizeLog := w.log.WithField("title", m.announcement.RawTitle)
	if m.announcement.Size != nil {
		sizeLog = sizeLog.WithField("size", humanize.IBytes(uint64(*m.announcement.Size)))
	}
	sizeLog.Info("dispatched")

	if w.notify != nil && w.notify.CanSend() {
		if sendErr := w.notify.Send(notification.Event{
			Kind:       notification.EventDispatch,
			Title:      m.announcement.RawTitle,
			FeedURL:    w.spec.URL,
			SaveFolder: m.rule.SaveFolder,
			Size:       m.announcement.Size,
		}); sendErr != nil {
			w.log.WithError(sendErr).Debug("dispatch notification failed")
		}
	}

	return nil
}
