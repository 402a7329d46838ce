package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memLocator(t *testing.T, files map[string]string) *FSLocator {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, "/data/"+name, []byte(body), 0o644))
	}
	return &FSLocator{Fs: fs, Dir: "/data", Pattern: DefaultPattern}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "defendants_2025.xlsx", FileName("", 2025))
	assert.Equal(t, "defendants_2025.xlsx", FileName("no-year.xlsx", 2025))
	assert.Equal(t, "cases-2025.csv", FileName("cases-%d.csv", 2025))
}

func TestFSLocate(t *testing.T) {
	loc := memLocator(t, map[string]string{"defendants_2024.xlsx": "payload"})

	res, err := loc.Locate(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, res.Year)
	assert.Equal(t, "defendants_2024.xlsx", res.Name)
	assert.Equal(t, []byte("payload"), res.Data)

	_, err = loc.Locate(context.Background(), 2025)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotExist))
}

func TestProbeFallsBackToEarlierYear(t *testing.T) {
	loc := memLocator(t, map[string]string{"defendants_2023.xlsx": "old"})

	res, err := Probe(context.Background(), loc, 2025, 2)
	require.NoError(t, err)
	assert.Equal(t, 2023, res.Year)
}

func TestProbeSourceNotFound(t *testing.T) {
	loc := memLocator(t, nil)

	_, err := Probe(context.Background(), loc, 2025, 1)
	require.Error(t, err)
	var nf *SourceNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []int{2025, 2024}, nf.Years)
	assert.Equal(t, "no defendants file found for year(s) 2025, 2024", err.Error())
}

type failingLocator struct{ calls int }

func (f *failingLocator) Locate(context.Context, int) (*Resolved, error) {
	f.calls++
	return nil, errors.New("permission denied")
}

func TestProbeStopsOnHardError(t *testing.T) {
	loc := &failingLocator{}
	_, err := Probe(context.Background(), loc, 2025, 3)
	require.Error(t, err)
	assert.Equal(t, 1, loc.calls)
	var nf *SourceNotFoundError
	assert.False(t, errors.As(err, &nf))
}

func TestHTTPLocate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/defendants_2024.xlsx" {
			_, _ = w.Write([]byte("xlsx-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	loc := NewHTTPLocator(srv.URL+"/data/", "", time.Second, 1, time.Millisecond, time.Millisecond)
	res, err := Probe(context.Background(), loc, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2024, res.Year)
	assert.Equal(t, []byte("xlsx-bytes"), res.Data)
}

func TestHTTPLocateRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	loc := NewHTTPLocator(srv.URL, DefaultPattern, time.Second, 3, time.Millisecond, 5*time.Millisecond)
	loc.SetRateLimit(0)
	res, err := loc.Locate(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), res.Data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPLocateDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	loc := NewHTTPLocator(srv.URL, DefaultPattern, time.Second, 3, time.Millisecond, time.Millisecond)
	_, err := loc.Locate(context.Background(), 2024)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestParseRetryAfterSeconds(t *testing.T) {
	s, err := parseRetryAfterSeconds("7")
	require.NoError(t, err)
	assert.Equal(t, 7, s)
	_, err = parseRetryAfterSeconds("soon")
	assert.Error(t, err)
}

func TestHTTPLocateHonoursRateLimitCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	loc := NewHTTPLocator(srv.URL, DefaultPattern, time.Second, 1, time.Millisecond, time.Millisecond)
	loc.SetRateLimit(0.01)
	_, err := loc.Locate(context.Background(), 2024)
	require.NoError(t, err)

	// The single token is spent; the next wait outlives the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = loc.Locate(ctx, 2024)
	assert.Error(t, err)
}
