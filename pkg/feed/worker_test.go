package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedbot/pkg/client"
	"github.com/autobrr/feedbot/pkg/config"
)

// fakeAdapter is an in-memory stand-in for client.Interface, recording
// every Add call for assertion.
type fakeAdapter struct {
	adds []client.AddRequest
}

func (f *fakeAdapter) Connect(ctx context.Context) error          { return nil }
func (f *fakeAdapter) EnsureCategories(ctx context.Context) error { return nil }
func (f *fakeAdapter) List(ctx context.Context, filter client.TorrentFilter, category string) ([]client.TorrentSnapshot, error) {
	return nil, nil
}
func (f *fakeAdapter) Add(ctx context.Context, req client.AddRequest) error {
	f.adds = append(f.adds, req)
	return nil
}
func (f *fakeAdapter) Pause(ctx context.Context, hash string) error                    { return nil }
func (f *fakeAdapter) SetCategory(ctx context.Context, hash, category string) error    { return nil }
func (f *fakeAdapter) Trackers(ctx context.Context, hash string) ([]string, error)     { return nil, nil }

var _ client.Interface = (*fakeAdapter)(nil)

const scenarioAFeed = `<rss><channel><title>t</title>
  <item><title>Linux Mint 21</title><link>http://x/a.torrent</link></item>
  <item><title>Linux Cam Rip</title><link>http://x/b.torrent</link></item>
</channel></rss>`

func scenarioASpec(url, saveFolder string) config.FeedSpec {
	return config.FeedSpec{
		URL:            url,
		UpdateInterval: 300,
		Matcher: []config.MatchRule{
			{
				TitleWanted: config.Matcher{{"linux"}},
				TitleBanned: config.Matcher{{"cam"}},
				SaveFolder:  saveFolder,
			},
		},
	}
}

// TestWorker_ScenarioA grounds spec scenario A: only the non-banned item
// is dispatched, with the bound rule's save folder and AUTO_DL category.
func TestWorker_ScenarioA(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scenarioAFeed))
	}))
	defer srv.Close()

	saveFolder := t.TempDir()
	adapter := &fakeAdapter{}
	w := NewWorker(scenarioASpec(srv.URL, saveFolder), NewFetcher(5*time.Second, nil), adapter, nil)

	matches, err := w.fetchNew(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)

	require.NoError(t, w.dispatch(context.Background(), matches[0]))

	require.Len(t, adapter.adds, 1)
	assert.Equal(t, "http://x/a.torrent", adapter.adds[0].URL)
	assert.Equal(t, saveFolder, adapter.adds[0].SavePath)
	assert.Equal(t, config.ReservedAutoDL, adapter.adds[0].Category)
}

// TestWorker_ScenarioB grounds spec scenario B: the same fingerprint
// dispatched on two successive ticks only calls adapter.Add once.
func TestWorker_ScenarioB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(scenarioAFeed))
	}))
	defer srv.Close()

	adapter := &fakeAdapter{}
	w := NewWorker(scenarioASpec(srv.URL, t.TempDir()), NewFetcher(5*time.Second, nil), adapter, nil)

	for tick := 0; tick < 2; tick++ {
		matches, err := w.fetchNew(context.Background())
		require.NoError(t, err)
		require.Len(t, matches, 1)

		fp := matches[0].announcement.Fingerprint
		w.mu.Lock()
		_, seen := w.dispatched[fp]
		w.mu.Unlock()
		if seen {
			continue
		}

		require.NoError(t, w.dispatch(context.Background(), matches[0]))
		w.mu.Lock()
		w.dispatched[fp] = struct{}{}
		w.mu.Unlock()
	}

	assert.Len(t, adapter.adds, 1)
}

func TestWorker_DispatchFailureDoesNotRecordFingerprint(t *testing.T) {
	adapter := &failingAddAdapter{}
	spec := scenarioASpec("http://unused", t.TempDir())
	w := NewWorker(spec, NewFetcher(5*time.Second, nil), adapter, nil)

	m := match{
		announcement: Announcement{DownloadURL: "http://x/a.torrent", Fingerprint: 42},
		rule:         spec.Matcher[0],
	}

	err := w.dispatch(context.Background(), m)
	require.Error(t, err)

	w.mu.Lock()
	_, recorded := w.dispatched[42]
	w.mu.Unlock()
	assert.False(t, recorded)
}

type failingAddAdapter struct{ fakeAdapter }

func (f *failingAddAdapter) Add(ctx context.Context, req client.AddRequest) error {
	return assert.AnError
}
