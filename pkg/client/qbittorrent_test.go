package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedbot/pkg/config"
)

// fakeQBittorrent is a minimal stand-in for the qBittorrent Web API,
// just enough surface for the Adapter's operations plus login and
// category creation.
func fakeQBittorrent(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "fake-session"})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ok."))
	})

	mux.HandleFunc("/api/v2/app/webapiVersion", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("2.9.3"))
	})

	mux.HandleFunc("/api/v2/torrents/createCategory", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"hash": "abc123", "name": "Linux Mint 21", "category": "AUTO_DL"},
		})
	})

	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v2/torrents/pause", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v2/torrents/setCategory", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/v2/torrents/trackers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"url": "[DHT]", "msg": ""},
			{"url": "[LSD]", "msg": ""},
			{"url": "http://tracker.private.net/announce", "msg": ""},
		})
	})

	return httptest.NewServer(mux)
}

func TestAdapter_FullCycle(t *testing.T) {
	srv := fakeQBittorrent(t)
	defer srv.Close()

	a := NewAdapter(config.ClientAuth{
		Username: "admin",
		Password: "pw",
		Address:  srv.URL,
	}, 5*time.Second, nil)

	ctx := context.Background()

	require.NoError(t, a.Connect(ctx))
	require.NoError(t, a.EnsureCategories(ctx))

	snaps, err := a.List(ctx, FilterCompleted, "")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "abc123", snaps[0].Hash)
	assert.Equal(t, "AUTO_DL", snaps[0].Category)

	require.NoError(t, a.Add(ctx, AddRequest{
		URL:      "http://x/a.torrent",
		SavePath: "/dl/iso",
		Paused:   false,
		Category: "AUTO_DL",
	}))

	require.NoError(t, a.Pause(ctx, "abc123"))
	require.NoError(t, a.SetCategory(ctx, "abc123", "TITLE_BAN"))

	trackers, err := a.Trackers(ctx, "abc123")
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "http://tracker.private.net/announce", trackers[0])
}

func TestBoolString(t *testing.T) {
	assert.Equal(t, "true", boolString(true))
	assert.Equal(t, "false", boolString(false))
}
