// Package apperrors defines the sentinel error kinds named in the design:
// they are categories callers can test with errors.Is, not distinct Go
// types, so every wrapping site stays a plain
// fmt.Errorf("%w: ...", sentinel, ...).
package apperrors

import "errors"

var (
	// ErrConfigMissing means no candidate config path was readable. Fatal
	// at startup.
	ErrConfigMissing = errors.New("config: no candidate path was readable")

	// ErrConfigInvalid means the selected config file failed to decode.
	// Fatal at startup.
	ErrConfigInvalid = errors.New("config: failed to decode")

	// ErrNetwork is a transport-level failure or non-2xx response from a
	// feed or the torrent client. Recoverable per-call.
	ErrNetwork = errors.New("network request failed")

	// ErrDecode means the RSS document is structurally invalid or is
	// missing its envelope (channel/item). Recoverable per-fetch; the
	// whole batch is skipped.
	ErrDecode = errors.New("rss document could not be decoded")

	// ErrMissingField means a single announcement lacked a download URL.
	// Recoverable per-item; only that item is skipped.
	ErrMissingField = errors.New("announcement is missing a required field")

	// ErrAdapterRefused means the torrent client's API returned an error
	// on add/pause/set-category/trackers. Recoverable per-operation.
	ErrAdapterRefused = errors.New("torrent client refused the request")

	// ErrFilesystemFailed means save-folder creation failed for a reason
	// other than already-exists. Dispatch is aborted and the fingerprint
	// is not recorded.
	ErrFilesystemFailed = errors.New("filesystem operation failed")
)
