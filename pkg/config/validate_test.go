package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedbot/pkg/apperrors"
)

func validConfig() Configuration {
	return Configuration{
		Feeds: []FeedSpec{
			{URL: "http://example.test/rss", UpdateInterval: 300},
		},
		QBittorrent: ClientAuth{Address: "http://localhost:8080"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NoFeeds(t *testing.T) {
	cfg := validConfig()
	cfg.Feeds = nil
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
}

func TestValidate_FeedMissingURL(t *testing.T) {
	cfg := validConfig()
	cfg.Feeds[0].URL = ""
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
}

func TestValidate_FeedNonPositiveInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Feeds[0].UpdateInterval = 0
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
}

func TestValidate_MissingQBittorrentAddress(t *testing.T) {
	cfg := validConfig()
	cfg.QBittorrent.Address = ""
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
}
