package client

import "context"

// TorrentFilter selects which torrents List returns, mirroring the
// qBittorrent Web API's own filter query parameter.
type TorrentFilter string

const (
	FilterAll       TorrentFilter = "all"
	FilterCompleted TorrentFilter = "completed"
)

// TorrentSnapshot is the per-torrent view the reconciler classifies by
// tracker and title. Trackers are fetched lazily via Trackers, not
// included here, matching the reconciler's step-by-step contract.
type TorrentSnapshot struct {
	Hash     string
	Name     string
	Category string
}

// AddRequest is the set of parameters the feed worker forwards when
// dispatching a matched announcement.
type AddRequest struct {
	URL      string
	SavePath string
	Paused   bool
	Category string
}

// Interface is the typed façade over the external torrent client that
// the feed worker and reconciler consume. Every method returns
// apperrors.ErrAdapterRefused (wrapped) on failure.
type Interface interface {
	Connect(ctx context.Context) error
	EnsureCategories(ctx context.Context) error

	List(ctx context.Context, filter TorrentFilter, category string) ([]TorrentSnapshot, error)
	Add(ctx context.Context, req AddRequest) error
	Pause(ctx context.Context, hash string) error
	SetCategory(ctx context.Context, hash string, category string) error
	Trackers(ctx context.Context, hash string) ([]string, error)
}
