package shellcache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/otpvault/internal/logging"
)

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type origin struct {
	*httptest.Server
	shellHits atomic.Int64
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			o.shellHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>shell</html>"))
		case "/build/app.js":
			_, _ = w.Write([]byte("console.log(1)"))
		case "/build/app.css":
			_, _ = w.Write([]byte("body{}"))
		case "/favicon.ico":
			_, _ = w.Write([]byte{0x00})
		case "/api/v1/twofaccounts":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(o.Close)
	return o
}

func newTestPolicy(t *testing.T, originURL string) *Policy {
	t.Helper()
	store, err := NewStore(t.TempDir(), "v1", 16)
	require.NoError(t, err)
	p, err := NewPolicy(store, originURL, nil, newTestLogger())
	require.NoError(t, err)
	return p
}

func get(p *Policy, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)
	return w
}

func TestNewPolicy_RejectsNonHTTPOrigin(t *testing.T) {
	store, err := NewStore(t.TempDir(), "v1", 16)
	require.NoError(t, err)

	_, err = NewPolicy(store, "ftp://example.com", nil, newTestLogger())
	require.Error(t, err)
}

func TestInstall_SeedsWhitelist(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	ctx := context.Background()

	require.NoError(t, p.Install(ctx, "v1"))
	require.NoError(t, p.Activate(ctx, "v1"))

	for _, path := range DefaultSeeds {
		_, err := p.store.Get(path)
		require.NoError(t, err, path)
	}
}

func TestInstall_ShellDocumentFailureIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := newTestPolicy(t, ts.URL)
	require.Error(t, p.Install(context.Background(), "v1"))
}

func TestInstall_NonEssentialSeedFailureTolerated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte("shell"))
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	p := newTestPolicy(t, ts.URL)
	ctx := context.Background()
	require.NoError(t, p.Install(ctx, "v1"))
	require.NoError(t, p.Activate(ctx, "v1"))

	_, err := p.store.Get("/")
	require.NoError(t, err)
	_, err = p.store.Get("/build/app.js")
	require.Error(t, err)
}

func TestNavigation_ServedFromCacheWhenOriginGone(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	ctx := context.Background()

	require.NoError(t, p.Install(ctx, "v1"))
	require.NoError(t, p.Activate(ctx, "v1"))
	o.Close()

	w := get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>shell</html>", w.Body.String())
}

func TestNavigation_MissWithoutNetworkSynthesizesOfflinePage(t *testing.T) {
	o := newOrigin(t)
	url := o.URL
	o.Close()

	p := newTestPolicy(t, url)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	w := get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "offline")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestNavigation_MissGoesToNetworkAndCaches(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	w := get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)

	o.Close()
	w = get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>shell</html>", w.Body.String())
}

func TestNavigation_BackgroundRefreshUpdatesCache(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	ctx := context.Background()

	require.NoError(t, p.Install(ctx, "v1"))
	require.NoError(t, p.Activate(ctx, "v1"))
	before := o.shellHits.Load()

	w := get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		return o.shellHits.Load() > before
	}, 2*time.Second, 10*time.Millisecond, "expected a background refresh hit")
}

func TestAsset_CacheFirstThenNetwork(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	w := get(p, "/build/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	// Cached now: survives origin shutdown.
	o.Close()
	w = get(p, "/build/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())
}

func TestAsset_NonOKResponseNotCached(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	w := get(p, "/build/missing.js", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := p.store.Get("/build/missing.js")
	require.Error(t, err)
}

func TestAsset_OfflineFallbacks(t *testing.T) {
	o := newOrigin(t)
	url := o.URL
	o.Close()

	p := newTestPolicy(t, url)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	t.Run("icon-class path yields empty 204", func(t *testing.T) {
		w := get(p, "/storage/icons/site.png", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		w = get(p, "/favicon.ico", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("other assets yield explicit 503", func(t *testing.T) {
		w := get(p, "/build/app.css", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "not available offline")
	})
}

func TestAPIRequestsPassThroughUncached(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	require.NoError(t, p.Activate(context.Background(), "v1"))

	w := get(p, "/api/v1/twofaccounts", "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `[]`, w.Body.String())

	_, err := p.store.Get("/api/v1/twofaccounts")
	require.Error(t, err)

	// Offline API calls surface the failure, no synthetic success.
	o.Close()
	w = get(p, "/api/v1/twofaccounts", "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerationSwitch_OldGenerationNeverServed(t *testing.T) {
	o := newOrigin(t)
	p := newTestPolicy(t, o.URL)
	ctx := context.Background()

	require.NoError(t, p.Install(ctx, "v1"))
	require.NoError(t, p.Activate(ctx, "v1"))

	require.NoError(t, p.store.Seed("v2", "/", &Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte("<html>shell v2</html>"),
	}))
	require.NoError(t, p.Activate(ctx, "v2"))

	names, err := p.store.Generations()
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, names)

	o.Close()
	w := get(p, "/", "text/html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>shell v2</html>", w.Body.String())
}
