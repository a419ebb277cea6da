package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucperkins/rek"
	"go.uber.org/ratelimit"

	"github.com/autobrr/feedbot/pkg/apperrors"
)

// DesktopUserAgent is spoofed on every feed request to avoid naive
// RSS-source blocks that reject non-browser clients.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Fetcher performs the single GET-with-spoofed-UA of the feed fetcher.
// There are no retries at this layer; callers handle failures with
// their own backoff.
type Fetcher struct {
	http *http.Client
	rate ratelimit.Limiter
}

func NewFetcher(timeout time.Duration, rate ratelimit.Limiter) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		http: &http.Client{Timeout: timeout},
		rate: rate,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.rate != nil {
		f.rate.Take()
	}

	resp, err := rek.Get(url,
		rek.Client(f.http),
		rek.Headers(map[string]string{"User-Agent": DesktopUserAgent}),
		rek.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", apperrors.ErrNetwork, resp.Status())
	}

	data, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperrors.ErrNetwork, err)
	}

	return data, nil
}
