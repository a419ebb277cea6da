package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedbot/pkg/apperrors"
)

const sampleFeed = `<?xml version="1.0"?>
<rss>
  <channel>
    <title>Example Tracker</title>
    <item>
      <title>Linux Mint 21</title>
      <link>http://x/a.torrent</link>
      <tags>iso linux</tags>
      <torrent>
        <fileName>linuxmint-21.iso</fileName>
        <infoHash>abc123</infoHash>
        <contentLength>123456</contentLength>
      </torrent>
    </item>
    <item>
      <enclosure url="http://x/b.torrent" />
    </item>
    <item>
      <title>No download here</title>
    </item>
  </channel>
</rss>`

func TestDecode_SkipsItemsWithoutDownloadURL(t *testing.T) {
	out, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "linux mint 21", out[0].Title)
	assert.Equal(t, "Linux Mint 21", out[0].RawTitle)
	assert.Equal(t, "http://x/a.torrent", out[0].DownloadURL)
	assert.Equal(t, "abc123", out[0].InfoHash)
	require.NotNil(t, out[0].Size)
	assert.EqualValues(t, 123456, *out[0].Size)
	_, hasLinux := out[0].Tags["linux"]
	assert.True(t, hasLinux)

	assert.Equal(t, "http://x/b.torrent", out[1].DownloadURL)
}

func TestDecode_MissingChannel(t *testing.T) {
	_, err := Decode(strings.NewReader(`<rss></rss>`))
	require.ErrorIs(t, err, apperrors.ErrDecode)
}

func TestDecode_Deterministic(t *testing.T) {
	a, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	b, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	require.Len(t, a, len(b))
	for i := range a {
		assert.Equal(t, a[i].Fingerprint, b[i].Fingerprint)
	}
}

func TestDecode_EnclosurePreferredOverLink(t *testing.T) {
	const feed = `<rss><channel><title>t</title><item>
		<link>http://x/fallback.torrent</link>
		<enclosure url="http://x/preferred.torrent" />
	</item></channel></rss>`

	out, err := Decode(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "http://x/preferred.torrent", out[0].DownloadURL)
}
