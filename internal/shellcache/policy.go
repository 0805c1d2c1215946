package shellcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/logging"
)

// offlineHTML is the synthesized placeholder served when a navigation
// can be satisfied neither from cache nor from the network.
const offlineHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Offline</title></head>
<body>
<h1>You are offline</h1>
<p>The application shell is not cached yet. Reconnect and reload.</p>
</body>
</html>`

// shellDocPath is the essential seed; install fails without it.
const shellDocPath = "/"

// DefaultSeeds is the install whitelist: the shell document plus its
// minimal required assets.
var DefaultSeeds = []string{
	shellDocPath,
	"/build/app.js",
	"/build/app.css",
	"/favicon.ico",
}

var (
	staticAssetRe = regexp.MustCompile(`^/build/|\.css$|\.js$|\.svg$|\.png$|\.ico$|^/storage/icons/`)
	iconClassRe   = regexp.MustCompile(`^/storage/icons/|favicon|\.ico$`)
	passThroughRe = regexp.MustCompile(`^/api/|^/up$`)
)

// Policy decides, per request, whether to answer from the cache, the
// network, or a constructed fallback. It holds no credentials and knows
// nothing about the vault.
type Policy struct {
	store  *Store
	origin *url.URL
	client *http.Client
	log    logging.Logger
	seeds  []string
}

// NewPolicy builds a Policy fetching misses from origin. Only http and
// https origins are accepted; responses from anywhere else are never
// written into the cache.
func NewPolicy(store *Store, origin string, seeds []string, log logging.Logger) (*Policy, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported origin scheme: %q", u.Scheme)
	}
	if len(seeds) == 0 {
		seeds = DefaultSeeds
	}
	return &Policy{
		store:  store,
		origin: u,
		client: &http.Client{},
		log:    log,
		seeds:  seeds,
	}, nil
}

// Install eagerly seeds the whitelist into the named generation. A
// failure to seed the shell document is fatal; any other seed failure is
// logged and tolerated.
func (p *Policy) Install(ctx context.Context, generation string) error {
	for _, path := range p.seeds {
		entry, err := p.fetchOrigin(ctx, path)
		if err == nil && entry.Status != http.StatusOK {
			err = fmt.Errorf("status %d", entry.Status)
		}
		if err == nil {
			err = p.store.Seed(generation, path, entry)
		}
		if err != nil {
			if path == shellDocPath {
				return fmt.Errorf("failed to seed shell document: %w", err)
			}
			p.log.Warn(ctx, "failed to seed asset", "path", path, "error", err)
			continue
		}
	}
	p.log.Info(ctx, "generation installed", "generation", generation)
	return nil
}

// Activate sweeps every other generation and switches serving to the
// named one. Once it returns, all in-flight and future requests are
// answered from the new generation.
func (p *Policy) Activate(ctx context.Context, generation string) error {
	if err := p.store.Activate(generation); err != nil {
		return err
	}
	p.log.Info(ctx, "generation activated", "generation", generation)
	return nil
}

func (p *Policy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case r.Method != http.MethodGet || passThroughRe.MatchString(path):
		p.passThrough(w, r)
	case isNavigation(r):
		p.serveNavigation(w, r)
	case staticAssetRe.MatchString(path):
		p.serveAsset(w, r)
	default:
		p.passThrough(w, r)
	}
}

func isNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// serveNavigation is cache-first with background refresh: a cached shell
// is served immediately while a network fetch silently updates the copy.
// With no cached copy the network answer is used (and cached when 200);
// with no network either, the offline placeholder is synthesized.
func (p *Policy) serveNavigation(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if entry, err := p.store.Get(path); err == nil {
		go p.refresh(path)
		writeEntryResponse(w, entry)
		return
	}

	entry, err := p.fetchOrigin(r.Context(), path)
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, bytes.NewReader([]byte(offlineHTML)))
		return
	}
	if entry.Status == http.StatusOK {
		if err := p.store.Put(path, entry); err != nil {
			p.log.Warn(r.Context(), "failed to cache navigation", "path", path, "error", err)
		}
	}
	writeEntryResponse(w, entry)
}

// serveAsset is cache-first; only status-200 network responses are
// written back. A miss with no network yields an empty 204 for cosmetic
// icon-class paths and an explicit 503 for everything else.
func (p *Policy) serveAsset(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if entry, err := p.store.Get(path); err == nil {
		writeEntryResponse(w, entry)
		return
	}

	entry, err := p.fetchOrigin(r.Context(), path)
	if err != nil {
		if iconClassRe.MatchString(path) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "not available offline", http.StatusServiceUnavailable)
		return
	}
	if entry.Status == http.StatusOK {
		if err := p.store.Put(path, entry); err != nil {
			p.log.Warn(r.Context(), "failed to cache asset", "path", path, "error", err)
		}
	}
	writeEntryResponse(w, entry)
}

// refresh re-fetches a cached path in the background; a successful 200
// silently replaces the cached copy, anything else is discarded.
func (p *Policy) refresh(path string) {
	ctx := context.Background()
	entry, err := p.fetchOrigin(ctx, path)
	if err != nil || entry.Status != http.StatusOK {
		return
	}
	if err := p.store.Put(path, entry); err != nil {
		p.log.Warn(ctx, "background refresh failed", "path", path, "error", err)
	}
}

// passThrough forwards the request to the origin untouched and copies
// the answer back. Failures are surfaced, never masked by the cache.
func (p *Policy) passThrough(w http.ResponseWriter, r *http.Request) {
	target := *p.origin
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	req.Header = r.Header.Clone()

	resp, err := p.client.Do(req)
	if err != nil {
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func (p *Policy) fetchOrigin(ctx context.Context, path string) (*Entry, error) {
	target := *p.origin
	target.Path = path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Entry{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}, nil
}

func writeEntryResponse(w http.ResponseWriter, e *Entry) {
	copyHeader(w.Header(), e.Header)
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
