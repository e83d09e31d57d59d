package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jul352mf/THE-Email-Scraper/internal/config"
)

func testHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Timeout:      5 * time.Second,
		MaxRedirects: 3,
		MaxURLLength: 2000,
	}
}

func TestFetchReturnsBodyAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f, err := NewCollyFetcher(testHTTPConfig(), zap.NewNop())
	require.NoError(t, err)

	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "hello")
	assert.Equal(t, "text/html", resp.Headers.Get("Content-Type"))
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestFetchRejectsOverlongURL(t *testing.T) {
	cfg := testHTTPConfig()
	cfg.MaxURLLength = 50

	f, err := NewCollyFetcher(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "https://example.com/"+strings.Repeat("x", 100))
	assert.ErrorIs(t, err, ErrURLTooLong)
}

func TestFetchReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, err := NewCollyFetcher(testHTTPConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchStopsAtRedirectCap(t *testing.T) {
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/hop", http.StatusFound)
	})

	cfg := testHTTPConfig()
	cfg.MaxRedirects = 2

	f, err := NewCollyFetcher(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/hop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect")
}

func TestFetchHonorsCancelledContext(t *testing.T) {
	f, err := NewCollyFetcher(testHTTPConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Fetch(ctx, "https://example.com/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchRotatesUserAgents(t *testing.T) {
	agents := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f, err := NewCollyFetcher(testHTTPConfig(), zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/?page="+strings.Repeat("a", i+1))
		require.NoError(t, err)
	}
	close(agents)

	var seen []string
	for ua := range agents {
		assert.NotEmpty(t, ua)
		seen = append(seen, ua)
	}
	require.Len(t, seen, 2)
	assert.NotEqual(t, seen[0], seen[1])
}

func TestNewRendererDisabled(t *testing.T) {
	_, err := NewChromedpRenderer(config.RenderConfig{Enabled: false}, zap.NewNop())
	assert.ErrorIs(t, err, ErrRendererDisabled)
}
