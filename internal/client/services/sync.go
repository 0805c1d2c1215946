package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/otpvault/internal/client/localstore"
	"github.com/dmitrijs2005/otpvault/internal/client/models"
	"github.com/dmitrijs2005/otpvault/internal/client/remote"
	"github.com/dmitrijs2005/otpvault/internal/logging"
)

const (
	lastSyncAtKey = "last_sync_at"

	// Minimum age of the in-memory snapshot before an unforced Refresh
	// hits the server again.
	defaultFetchCooldown = 2 * time.Second
)

// SyncService keeps an in-memory snapshot of the remote account list and
// reconciles it with the server, reporting whether the server moved ahead
// of the snapshot ("stale").
type SyncService struct {
	client   remote.Client
	store    *localstore.Store
	log      logging.Logger
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	snapshot  []models.Account
	fetchedAt time.Time
	stale     bool
}

func NewSyncService(client remote.Client, store *localstore.Store, log logging.Logger) *SyncService {
	return &SyncService{
		client:   client,
		store:    store,
		log:      log,
		cooldown: defaultFetchCooldown,
		now:      time.Now,
	}
}

// Refresh fetches the account list from the server and replaces the
// snapshot.
//
// An unforced call within the cooldown window is skipped entirely and
// resets the staleness flag, so rapid consumers reuse the snapshot.
// A forced call always fetches and recomputes staleness by diffing the
// new list against the previous snapshot. On fetch failure the previous
// snapshot and staleness flag are left untouched and the error returned.
func (s *SyncService) Refresh(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !force && now.Sub(s.fetchedAt) < s.cooldown {
		s.stale = false
		return nil
	}

	// The attempt itself opens a new cooldown window, even if it fails.
	s.fetchedAt = now

	fresh, err := s.client.FetchAll(ctx, false)
	if err != nil {
		s.log.Warn(ctx, "account fetch failed", "error", err)
		return err
	}

	if force {
		s.stale = serverMovedAhead(s.snapshot, fresh)
	}
	s.snapshot = fresh

	if err := s.store.Set(lastSyncAtKey, now.UTC().Format(time.RFC3339)); err != nil {
		s.log.Warn(ctx, "failed to record sync time", "error", err)
	}
	s.log.Info(ctx, "accounts refreshed", "count", len(fresh), "stale", s.stale)
	return nil
}

// Snapshot returns a copy of the current in-memory account list.
func (s *SyncService) Snapshot() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Account, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Stale reports whether the last forced refresh found the server ahead of
// the snapshot it replaced.
func (s *SyncService) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// LastSyncAt returns the persisted time of the last successful refresh.
func (s *SyncService) LastSyncAt() (time.Time, error) {
	v, err := s.store.Get(lastSyncAtKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// serverMovedAhead compares the previous snapshot with the fresh list.
// The server is ahead when the counts differ, a previously known id is
// gone, or any durable field of a known record changed. Ephemeral codes
// are never compared.
func serverMovedAhead(prev, fresh []models.Account) bool {
	if len(prev) != len(fresh) {
		return true
	}

	byID := make(map[int64]*models.Account, len(fresh))
	for i := range fresh {
		byID[fresh[i].ID] = &fresh[i]
	}
	for i := range prev {
		match, ok := byID[prev[i].ID]
		if !ok {
			return true
		}
		if !prev[i].SameFields(match) {
			return true
		}
	}
	return false
}
