package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bandradar/bandradar/internal/core"
)

// maxResponseBytes bounds how much of a catalog response we will read.
const maxResponseBytes = 1 << 20

func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retryValue := resp.Header.Get("Retry-After")
	if retryValue == "" {
		return 0
	}

	if seconds, err := time.ParseDuration(retryValue + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retryValue); err == nil {
		return time.Until(parsed)
	}

	return 0
}

// getJSON fetches a URL and decodes the JSON body into out. Transient
// network errors and 5xx responses are retried once with backoff;
// rate limiting and client errors are not.
func getJSON(ctx context.Context, client *http.Client, sourceID, url string, header http.Header, out any) *core.VerifyError {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	backoff := retry.WithMaxRetries(1, retry.NewExponential(500*time.Millisecond))

	var verr *core.VerifyError
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		verr = nil

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			verr = core.NewVerifyError(core.ErrUnknown, sourceID, err.Error())
			return nil
		}
		req.Header.Set("Accept", "application/json")
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				verr = core.TimeoutError(sourceID)
				return nil
			}
			verr = core.NewVerifyError(core.ErrPlatformError, sourceID, err.Error())
			return retry.RetryableError(err)
		}
		defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

		switch {
		case resp.StatusCode == http.StatusOK:
			body := io.LimitReader(resp.Body, maxResponseBytes)
			if err := json.NewDecoder(body).Decode(out); err != nil {
				verr = core.NewVerifyError(core.ErrPlatformError, sourceID, fmt.Sprintf("decode response: %v", err))
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfterHeader(resp)
			verr = core.RateLimitedError(sourceID, fmt.Sprintf("rate limited, retry after %s", wait.Round(time.Second)))
			return nil
		case resp.StatusCode >= 500:
			verr = core.NewVerifyError(core.ErrPlatformError, sourceID, fmt.Sprintf("upstream status %d", resp.StatusCode))
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		default:
			// 4xx-equivalent client errors are non-retryable.
			verr = core.NewVerifyError(core.ErrPlatformError, sourceID, fmt.Sprintf("unexpected status %d", resp.StatusCode))
			verr.Retryable = false
			return nil
		}
	})

	if verr != nil {
		return verr
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.TimeoutError(sourceID)
		}
		return core.NewVerifyError(core.ErrPlatformError, sourceID, err.Error())
	}
	return nil
}
