// Package shellcache implements the offline asset cache for the
// application shell: a disk store organized into named generations, a
// fetch policy deciding cache/network/fallback per request, and the HTTP
// surface serving it.
package shellcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/bluele/gcache"

	"github.com/dmitrijs2005/otpvault/internal/common"
)

// Entry is one cached response: status, headers and body.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"-"`
}

// Store keeps cached responses on disk under root/<generation>/, one
// body file and one meta file per entry, keyed by SHA-256 of the request
// path. A small in-process LRU fronts the disk for hot entries.
//
// Writes always target the current generation. Seeding writes into a
// not-yet-active generation; Activate sweeps every other generation and
// switches the serving pointer atomically.
type Store struct {
	root string
	lru  gcache.Cache

	mu         sync.RWMutex
	generation string
}

// NewStore opens a store rooted at root and serving from generation,
// creating directories as needed. lruSize bounds the in-memory front.
func NewStore(root, generation string, lruSize int) (*Store, error) {
	if root == "" || generation == "" {
		return nil, fmt.Errorf("empty cache root or generation")
	}
	if err := os.MkdirAll(filepath.Join(root, generation), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Store{
		root:       root,
		lru:        gcache.New(lruSize).LRU().Build(),
		generation: generation,
	}, nil
}

func cacheKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Generation returns the currently served generation name.
func (s *Store) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Generations enumerates every generation directory present on disk.
func (s *Store) Generations() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Seed writes an entry into the named (possibly not yet active)
// generation, creating its directory on first use.
func (s *Store) Seed(generation, path string, e *Entry) error {
	dir := filepath.Join(s.root, generation)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create generation dir: %w", err)
	}
	return writeEntry(dir, cacheKey(path), e)
}

// Put stores an entry under the current generation.
func (s *Store) Put(path string, e *Entry) error {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	key := cacheKey(path)
	if err := writeEntry(filepath.Join(s.root, gen), key, e); err != nil {
		return err
	}
	_ = s.lru.Set(gen+"/"+key, e)
	return nil
}

// Get returns the cached entry for path, or common.ErrNotFound.
func (s *Store) Get(path string) (*Entry, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	key := cacheKey(path)
	if v, err := s.lru.Get(gen + "/" + key); err == nil {
		return v.(*Entry), nil
	}

	e, err := readEntry(filepath.Join(s.root, gen), key)
	if err != nil {
		return nil, err
	}
	_ = s.lru.Set(gen+"/"+key, e)
	return e, nil
}

// Activate deletes every generation other than the named one, then
// switches the serving pointer. The sweep fully completes before the
// switch, so no request is ever served from a removed generation. The
// in-memory front is purged along with the switch.
func (s *Store) Activate(generation string) error {
	if err := os.MkdirAll(filepath.Join(s.root, generation), 0o700); err != nil {
		return fmt.Errorf("failed to create generation dir: %w", err)
	}

	names, err := s.Generations()
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == generation {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, name)); err != nil {
			return fmt.Errorf("failed to sweep generation %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.generation = generation
	s.lru.Purge()
	s.mu.Unlock()
	return nil
}

func writeEntry(dir, key string, e *Entry) error {
	meta, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, key+".body"), e.Body, 0o600); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, key+".json"), meta, 0o600); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}
	return nil
}

func readEntry(dir, key string) (*Entry, error) {
	meta, err := os.ReadFile(filepath.Join(dir, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	e := &Entry{}
	if err := json.Unmarshal(meta, e); err != nil {
		return nil, fmt.Errorf("corrupt cache meta: %w", err)
	}
	body, err := os.ReadFile(filepath.Join(dir, key+".body"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	e.Body = body
	return e, nil
}
