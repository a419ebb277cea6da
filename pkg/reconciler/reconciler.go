// Package reconciler enforces the two standing policies against the
// torrent client: tracker-allow-list eviction and title-ban eviction.
package reconciler

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/feedbot/pkg/client"
	"github.com/autobrr/feedbot/pkg/config"
	"github.com/autobrr/feedbot/pkg/logger"
	"github.com/autobrr/feedbot/pkg/metrics"
	"github.com/autobrr/feedbot/pkg/notification"
)

const tickInterval = 60 * time.Second

// State is the set of hashes the reconciler has observed and acted on.
// It grows monotonically across ticks and is never persisted; a process
// restart rebuilds it by re-observation.
type State struct {
	all           map[string]struct{}
	pausedTracker map[string]struct{}
	pausedTitle   map[string]struct{}
}

func newState() *State {
	return &State{
		all:           make(map[string]struct{}),
		pausedTracker: make(map[string]struct{}),
		pausedTitle:   make(map[string]struct{}),
	}
}

// Reconciler owns the shared torrent-client handle and the tracker
// allow-list / title-ban policy it enforces every tick.
type Reconciler struct {
	adapter   client.Interface
	allowList []string
	titleBans []string
	notify    notification.Sender
	log       *logrus.Entry

	state *State
}

func New(adapter client.Interface, auth config.ClientAuth, notify notification.Sender) *Reconciler {
	return &Reconciler{
		adapter:   adapter,
		allowList: auth.Trackers,
		titleBans: auth.TitleBans,
		notify:    notify,
		log:       logger.GetLogger("reconciler"),
		state:     newState(),
	}
}

// Run ticks every 60s until ctx is cancelled. Per the design, the
// reconciler terminating for any other reason is fatal to the process —
// the caller (supervisor) treats a non-nil, non-context-cancelled return
// as fatal.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	if err := r.Tick(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Tick runs the three reconciliation steps strictly in order. A failure
// of step 1 (snapshot) is logged and skips the rest of this tick. A
// failure within step 2 or 3 is logged and that step is skipped for this
// tick; it does not abort the later step. No failure terminates the loop.
func (r *Reconciler) Tick(ctx context.Context) error {
	if err := r.snapshot(ctx); err != nil {
		r.log.WithError(err).Warn("snapshot step failed, skipping this tick")
		return nil
	}

	if err := r.evictByTracker(ctx); err != nil {
		r.log.WithError(err).Warn("tracker eviction step failed, skipping")
	}

	if len(r.titleBans) > 0 {
		if err := r.evictByTitle(ctx); err != nil {
			r.log.WithError(err).Warn("title-ban eviction step failed, skipping")
		}
	}

	return nil
}

// Step 1 — snapshot: observe every known torrent hash.
func (r *Reconciler) snapshot(ctx context.Context) error {
	torrents, err := r.adapter.List(ctx, client.FilterAll, "")
	if err != nil {
		return err
	}

	for _, t := range torrents {
		r.state.all[t.Hash] = struct{}{}
	}

	return nil
}

// Step 2 — tracker eviction: pause any completed torrent with no
// allow-listed tracker among its trackers.
func (r *Reconciler) evictByTracker(ctx context.Context) error {
	torrents, err := r.adapter.List(ctx, client.FilterCompleted, "")
	if err != nil {
		return err
	}

	for _, t := range torrents {
		if _, done := r.state.pausedTracker[t.Hash]; done {
			continue
		}

		trackers, err := r.adapter.Trackers(ctx, t.Hash)
		if err != nil {
			r.log.WithError(err).WithField("hash", t.Hash).Warn("fetching trackers failed, skipping this torrent this tick")
			continue
		}

		if trackerAllowed(trackers, r.allowList) {
			continue
		}

		if err := r.adapter.Pause(ctx, t.Hash); err != nil {
			r.log.WithError(err).WithField("hash", t.Hash).Warn("pause (tracker eviction) failed")
			continue
		}

		r.state.pausedTracker[t.Hash] = struct{}{}
		metrics.TorrentsPausedTracker.Inc()

		if r.notify != nil && r.notify.CanSend() {
			r.notifySafe(notification.Event{
				Kind:    notification.EventTrackerEviction,
				Title:   t.Name,
				Hash:    t.Hash,
				Tracker: strings.Join(trackers, ", "),
			})
		}
	}

	return nil
}

// Step 3 — title-ban eviction: quarantine any AUTO_DL torrent whose name
// matches a title-ban substring. The caller skips this entirely when the
// title-ban list is empty.
func (r *Reconciler) evictByTitle(ctx context.Context) error {
	torrents, err := r.adapter.List(ctx, client.FilterAll, config.ReservedAutoDL)
	if err != nil {
		return err
	}

	for _, t := range torrents {
		if _, done := r.state.pausedTitle[t.Hash]; done {
			continue
		}

		ban, banned := matchedBan(t.Name, r.titleBans)
		if !banned {
			continue
		}

		if err := r.adapter.SetCategory(ctx, t.Hash, config.ReservedTitleBan); err != nil {
			r.log.WithError(err).WithField("hash", t.Hash).Warn("set-category (title-ban) failed")
			continue
		}
		if err := r.adapter.Pause(ctx, t.Hash); err != nil {
			r.log.WithError(err).WithField("hash", t.Hash).Warn("pause (title-ban) failed")
			continue
		}

		r.state.pausedTitle[t.Hash] = struct{}{}
		metrics.TorrentsPausedTitle.Inc()

		if r.notify != nil && r.notify.CanSend() {
			r.notifySafe(notification.Event{
				Kind:     notification.EventTitleBanEviction,
				Title:    t.Name,
				Hash:     t.Hash,
				TitleBan: ban,
			})
		}
	}

	return nil
}

func (r *Reconciler) notifySafe(ev notification.Event) {
	if err := r.notify.Send(ev); err != nil {
		r.log.WithError(err).Debug("eviction notification failed")
	}
}

// trackerAllowed reports whether any tracker URL contains any allow-list
// substring. The allow-list is assumed already lowercased (config.Load
// normalizes it); tracker URLs are lowercased here for the comparison
// since the adapter returns them as-is from qBittorrent.
func trackerAllowed(trackers []string, allowList []string) bool {
	for _, tr := range trackers {
		lower := strings.ToLower(tr)
		for _, allow := range allowList {
			if strings.Contains(lower, allow) {
				return true
			}
		}
	}
	return false
}

// matchedBan returns the first title-ban substring found in name
// (case-insensitive) and true, or ("", false) if none match.
func matchedBan(name string, bans []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ban := range bans {
		if strings.Contains(lower, ban) {
			return ban, true
		}
	}
	return "", false
}
