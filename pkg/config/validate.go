package config

import (
	"fmt"

	"github.com/autobrr/feedbot/pkg/apperrors"
)

// Validate checks the structural preconditions every downstream
// component assumes: a feed needs a URL and a positive update interval,
// and the torrent client needs an address to dial. This is a direct,
// hand-rolled check rather than a struct-tag validator library — the
// retained dependency set carries no validator package, and the checks
// here are few enough that reflection-based tag validation would add a
// dependency for no real savings over named field checks.
func (c Configuration) Validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("%w: at least one feed is required", apperrors.ErrConfigInvalid)
	}

	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("%w: feeds[%d].url is required", apperrors.ErrConfigInvalid, i)
		}
		if f.UpdateInterval <= 0 {
			return fmt.Errorf("%w: feeds[%d].update_interval must be positive", apperrors.ErrConfigInvalid, i)
		}
	}

	if c.QBittorrent.Address == "" {
		return fmt.Errorf("%w: qbittorrent.address is required", apperrors.ErrConfigInvalid)
	}

	return nil
}
