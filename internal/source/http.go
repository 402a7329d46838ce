package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTPLocator fetches yearly files from BaseURL/<pattern>.
type HTTPLocator struct {
	httpClient       *http.Client
	baseURL          string
	pattern          string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	limiter          *rate.Limiter
}

// DefaultRequestsPerSec throttles probing a remote directory year by year.
const DefaultRequestsPerSec = 2

// NewHTTPLocator allows customizing HTTP timeout and retry/backoff behavior.
func NewHTTPLocator(baseURL, pattern string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *HTTPLocator {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &HTTPLocator{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		pattern:          pattern,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		limiter:          rate.NewLimiter(DefaultRequestsPerSec, 1),
	}
}

// SetRateLimit caps outgoing requests per second; perSec <= 0 removes the cap.
func (l *HTTPLocator) SetRateLimit(perSec float64) {
	if perSec <= 0 {
		l.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	l.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
}

// Locate downloads the file for year. 404 maps to ErrNotExist; 429/5xx and
// network timeouts are retried with jittered exponential backoff.
func (l *HTTPLocator) Locate(ctx context.Context, year int) (*Resolved, error) {
	name := FileName(l.pattern, year)
	url := l.baseURL + "/" + name
	backoff := l.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= l.retryMaxAttempts; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch cancelled")
		}
		b, retryAfter, err := l.fetch(ctx, url)
		if err == nil {
			return &Resolved{Year: year, Name: name, Data: b}, nil
		}
		lastErr = err
		if !retryable(err) || attempt == l.retryMaxAttempts {
			break
		}
		sleep := withJitter(backoff)
		if retryAfter > 0 {
			sleep = retryAfter
		}
		if l.retryMaxDelay > 0 && sleep > l.retryMaxDelay {
			sleep = l.retryMaxDelay
		}
		zap.L().Debug("retrying source fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("sleep", sleep),
			zap.Error(err),
		)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "fetch cancelled")
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (l *HTTPLocator) fetch(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "build request")
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, eris.Wrapf(ErrNotExist, "%s", url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return nil, ra, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, eris.Wrap(err, "read body")
	}
	return b, 0, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || (se.StatusCode >= 500 && se.StatusCode <= 599)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, eris.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
