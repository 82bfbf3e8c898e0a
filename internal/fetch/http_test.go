package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newFetcher(maxRetries int) *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		MaxRetries: maxRetries,
		RatePerSec: 100, // keep tests fast
	})
}

func TestHTTPFetcherDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "journal-cli/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("scan archive bytes"))
	}))
	defer srv.Close()

	rc, err := newFetcher(1).Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "scan archive bytes", string(data))
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rc, err := newFetcher(3).Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPFetcherClientErrorsDoNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher(3).Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx is permanent")
}

func TestHTTPFetcherGivesUp(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newFetcher(2).Download(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPFetcherDownloadToFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "archive.zip")
	n, err := newFetcher(1).DownloadToFile(context.Background(), srv.URL, path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestAdaptiveLimiter(t *testing.T) {
	t.Parallel()

	l := NewAdaptiveLimiter(rate.Limit(10), 10)

	t.Run("success ramps up to twice the initial rate", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			l.OnSuccess()
		}
		assert.InDelta(t, 20, float64(l.Limit()), 0.01)
	})

	t.Run("rate limiting halves down to a quarter of initial", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			l.OnRateLimit()
		}
		assert.InDelta(t, 2.5, float64(l.Limit()), 0.01)
	})
}
