package httputils

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/ratelimit"

	"github.com/autobrr/feedbot/pkg/runtime"
)

// NewRetryableHttpClient builds an *http.Client backed by retryablehttp,
// used for the qBittorrent adapter's transport: one retry on transient
// failure, and an optional shared rate limiter applied before every
// attempt (including the first).
func NewRetryableHttpClient(timeout time.Duration, rl ratelimit.Limiter) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 1
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.RequestLogHook = func(l retryablehttp.Logger, request *http.Request, i int) {
		// set user-agent
		if request != nil {
			request.Header.Set("User-Agent", "feedbot/"+runtime.Version)
		}

		// rate limit
		if rl != nil {
			rl.Take()
		}
	}
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil
	return retryClient.StandardClient()
}
