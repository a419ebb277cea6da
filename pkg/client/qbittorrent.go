package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/autobrr/feedbot/pkg/apperrors"
	"github.com/autobrr/feedbot/pkg/config"
	"github.com/autobrr/feedbot/pkg/httputils"
	"github.com/autobrr/feedbot/pkg/logger"
)

// Adapter is the typed façade over the qBittorrent Web API described in
// the design: list, add, pause, set-category, trackers, plus the
// startup create-if-absent of the TITLE_BAN category.
type Adapter struct {
	log    *logrus.Entry
	client *qbit.Client
}

// NewAdapter builds an Adapter from the decoded qbittorrent config block.
// It does not connect; call Connect before use. The adapter's transport
// is httputils' retryable client so a single transient network blip
// during login or a call doesn't fail the whole operation; rl, if
// non-nil, is shared with the feed fetchers so all outbound qBittorrent
// traffic obeys one rate budget.
func NewAdapter(cfg config.ClientAuth, timeout time.Duration, rl ratelimit.Limiter) *Adapter {
	c := qbit.NewClient(qbit.Config{
		Host:          cfg.Address,
		Username:      cfg.Username,
		Password:      cfg.Password,
		TLSSkipVerify: true,
		BasicUser:     cfg.Username,
		BasicPass:     cfg.Password,
		Log:           nil,
	})
	c = c.WithHTTPClient(httputils.NewRetryableHttpClient(timeout, rl))

	return &Adapter{
		log:    logger.GetLogger("qbittorrent"),
		client: c,
	}
}

var _ Interface = (*Adapter)(nil)

func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.client.LoginCtx(ctx); err != nil {
		return fmt.Errorf("%w: login: %v", apperrors.ErrAdapterRefused, err)
	}

	apiVersion, err := a.client.GetWebAPIVersionCtx(ctx)
	if err != nil {
		return fmt.Errorf("%w: get api version: %v", apperrors.ErrAdapterRefused, err)
	}
	a.log.Debugf("Connected, API version: %s", apiVersion)

	return nil
}

// EnsureCategories creates the two categories reserved by the core,
// AUTO_DL and TITLE_BAN, if they don't already exist. qBittorrent's
// createCategory call is itself idempotent (a repeat call for an
// existing category succeeds), satisfying the "category creation is
// idempotent" testable property without any extra bookkeeping here.
func (a *Adapter) EnsureCategories(ctx context.Context) error {
	for _, cat := range []string{config.ReservedAutoDL, config.ReservedTitleBan} {
		if err := a.client.CreateCategoryCtx(ctx, cat, ""); err != nil {
			return fmt.Errorf("%w: create category %q: %v", apperrors.ErrAdapterRefused, cat, err)
		}
	}
	return nil
}

func (a *Adapter) List(ctx context.Context, filter TorrentFilter, category string) ([]TorrentSnapshot, error) {
	opts := qbit.TorrentFilterOptions{
		Filter: qbit.TorrentFilter(filter),
	}
	if category != "" {
		opts.Category = category
	}

	torrents, err := a.client.GetTorrentsCtx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list torrents: %v", apperrors.ErrAdapterRefused, err)
	}

	out := make([]TorrentSnapshot, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, TorrentSnapshot{
			Hash:     t.Hash,
			Name:     t.Name,
			Category: t.Category,
		})
	}

	return out, nil
}

func (a *Adapter) Add(ctx context.Context, req AddRequest) error {
	opts := map[string]string{
		"savepath": req.SavePath,
		"category": req.Category,
		"paused":   boolString(req.Paused),
	}

	if err := a.client.AddTorrentFromUrlCtx(ctx, req.URL, opts); err != nil {
		return fmt.Errorf("%w: add torrent: %v", apperrors.ErrAdapterRefused, err)
	}

	return nil
}

func (a *Adapter) Pause(ctx context.Context, hash string) error {
	if err := a.client.PauseCtx(ctx, []string{hash}); err != nil {
		return fmt.Errorf("%w: pause %s: %v", apperrors.ErrAdapterRefused, hash, err)
	}
	return nil
}

func (a *Adapter) SetCategory(ctx context.Context, hash string, category string) error {
	if err := a.client.SetCategoryCtx(ctx, []string{hash}, category); err != nil {
		return fmt.Errorf("%w: set category %s on %s: %v", apperrors.ErrAdapterRefused, category, hash, err)
	}
	return nil
}

func (a *Adapter) Trackers(ctx context.Context, hash string) ([]string, error) {
	trackers, err := a.client.GetTorrentTrackersCtx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: get trackers for %s: %v", apperrors.ErrAdapterRefused, hash, err)
	}

	out := make([]string, 0, len(trackers))
	for _, t := range trackers {
		if strings.Contains(t.Url, "[DHT]") || strings.Contains(t.Url, "[LSD]") || strings.Contains(t.Url, "[PeX]") {
			continue
		}
		out = append(out, t.Url)
	}

	return out, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
