// Package services contains the application services of the offline
// client: the encrypted vault, the sync reconciler and the offline
// session token.
package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpvault/internal/client/keyring"
	"github.com/dmitrijs2005/otpvault/internal/client/localstore"
	"github.com/dmitrijs2005/otpvault/internal/client/models"
	"github.com/dmitrijs2005/otpvault/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/otpvault/internal/client/repositories/auth"
	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/cryptox"
	"github.com/dmitrijs2005/otpvault/internal/dbx"
	"github.com/dmitrijs2005/otpvault/internal/logging"
	"github.com/dmitrijs2005/otpvault/internal/otp"
)

const offlineSavedAtKey = "offline_saved_at"

// VaultService is the encrypted local vault plus the offline
// authenticator built on top of it.
//
// Contract:
//   - SaveForOffline: transactionally replace the accounts container.
//   - LoadFromOffline: decrypt all accounts, attaching fresh totp codes.
//   - PutAuthRecord / AttachCredentials: maintain the single auth record.
//   - VerifyPassword / VerifyPossession: offline re-authentication,
//     failing closed on any missing prerequisite.
//   - ClearAll: wipe containers, key and bookkeeping.
type VaultService interface {
	SaveForOffline(ctx context.Context, items []models.Account) error
	LoadFromOffline(ctx context.Context) ([]models.Account, error)
	PutAuthRecord(ctx context.Context, profile models.UserProfile, digest *cryptox.PasswordDigest) error
	AttachCredentials(ctx context.Context, info models.CredentialInfo) (bool, error)
	VerifyPassword(ctx context.Context, candidate []byte) (bool, error)
	VerifyPossession(ctx context.Context, assertion *models.Assertion) (bool, error)
	ClearAll(ctx context.Context) error

	HasOfflineData() bool
	KeyFingerprint() string
	IsAuthenticated() bool
	Profile() *models.UserProfile
	SessionToken() string
}

type vaultService struct {
	db       *sql.DB
	keyring  *keyring.Keyring
	store    *localstore.Store
	authRepo auth.Repository
	log      logging.Logger
	now      func() time.Time

	// Session state, reset by ClearAll.
	authenticated bool
	profile       *models.UserProfile
	sessionToken  string
}

func NewVaultService(db *sql.DB, kr *keyring.Keyring, store *localstore.Store, log logging.Logger) VaultService {
	return &vaultService{
		db:       db,
		keyring:  kr,
		store:    store,
		authRepo: auth.NewSQLiteRepository(db),
		log:      log,
		now:      time.Now,
	}
}

// SaveForOffline encrypts each account's secret under the vault key and
// replaces the accounts container wholesale. Clear and refill run in one
// transaction, so a mid-write failure cannot leave the container
// half-cleared.
func (s *vaultService) SaveForOffline(ctx context.Context, items []models.Account) error {
	key, err := s.keyring.GetOrCreateKey()
	if err != nil {
		return fmt.Errorf("key error: %w", err)
	}

	rows := make([]*accounts.Row, 0, len(items))
	for i := range items {
		a := &items[i]
		ciphertext, nonce, err := cryptox.Encrypt(a.Secret, key)
		if err != nil {
			return fmt.Errorf("encryption error for account %d: %w", a.ID, err)
		}
		rows = append(rows, &accounts.Row{
			ID:          a.ID,
			Service:     a.Service,
			Account:     a.Account,
			Secret:      ciphertext,
			NonceSecret: nonce,
			OtpType:     string(a.OtpType),
			Digits:      a.Digits,
			Algorithm:   a.Algorithm,
			Period:      a.Period,
			Counter:     a.Counter,
			Icon:        a.Icon,
			GroupID:     a.GroupID,
			OrderColumn: a.OrderColumn,
		})
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := accounts.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for _, row := range rows {
			if err := repo.Insert(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving error: %w", err)
	}

	if err := s.store.Set(offlineSavedAtKey, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record save time: %w", err)
	}

	s.log.Info(ctx, "accounts saved for offline use", "count", len(rows))
	return nil
}

// LoadFromOffline reads every stored account and decrypts its secret.
// A record whose secret fails to decrypt (key regenerated, corruption) is
// skipped and logged; the rest of the batch still loads. Records of kind
// totp get a freshly generated code attached; records whose code cannot
// be generated carry a nil code.
func (s *vaultService) LoadFromOffline(ctx context.Context) ([]models.Account, error) {
	key, err := s.keyring.GetKey()
	if err != nil {
		if errors.Is(err, common.ErrNoKey) {
			return nil, common.ErrNoOfflineData
		}
		return nil, err
	}

	rows, err := accounts.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading error: %w", err)
	}

	result := make([]models.Account, 0, len(rows))
	for _, row := range rows {
		var secret string
		if err := cryptox.Decrypt(row.Secret, row.NonceSecret, key, &secret); err != nil {
			s.log.Warn(ctx, "skipping account: secret decrypt failed", "id", row.ID)
			continue
		}

		a := models.Account{
			ID:          row.ID,
			Service:     row.Service,
			Account:     row.Account,
			Secret:      secret,
			OtpType:     models.OtpType(row.OtpType),
			Digits:      row.Digits,
			Algorithm:   row.Algorithm,
			Period:      row.Period,
			Counter:     row.Counter,
			Icon:        row.Icon,
			GroupID:     row.GroupID,
			OrderColumn: row.OrderColumn,
		}

		if a.OtpType == models.OtpTypeTOTP {
			code, err := otp.GenerateTOTP(a.OtpParams(), s.now())
			if err != nil {
				s.log.Warn(ctx, "code generation failed", "id", a.ID, "error", err)
			} else {
				a.OTP = code
			}
		}
		result = append(result, a)
	}
	return result, nil
}

// PutAuthRecord encrypts and upserts the single auth record. digest may be
// nil when the user has no offline password. A previously attached
// possession credential is preserved.
func (s *vaultService) PutAuthRecord(ctx context.Context, profile models.UserProfile, digest *cryptox.PasswordDigest) error {
	key, err := s.keyring.GetOrCreateKey()
	if err != nil {
		return fmt.Errorf("key error: %w", err)
	}

	rec := &models.AuthRecord{ID: common.CurrentUserID}
	if rec.Profile, rec.NonceProfile, err = cryptox.Encrypt(profile, key); err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}
	if digest != nil {
		if rec.PasswordHash, rec.NoncePasswordHash, err = cryptox.Encrypt(digest, key); err != nil {
			return fmt.Errorf("encryption error: %w", err)
		}
	}

	if err := s.authRepo.Upsert(ctx, rec); err != nil {
		return err
	}
	s.log.Info(ctx, "auth record stored")
	return nil
}

// AttachCredentials merges possession-credential metadata into the
// existing auth record. Missing key or record is a reported no-op
// (returns false), not a failure.
func (s *vaultService) AttachCredentials(ctx context.Context, info models.CredentialInfo) (bool, error) {
	key, err := s.keyring.GetKey()
	if err != nil {
		if errors.Is(err, common.ErrNoKey) {
			s.log.Warn(ctx, "no key; credential not attached")
			return false, nil
		}
		return false, err
	}

	ciphertext, nonce, err := cryptox.Encrypt(info, key)
	if err != nil {
		return false, fmt.Errorf("encryption error: %w", err)
	}

	if err := s.authRepo.SetCredential(ctx, ciphertext, nonce); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "no auth record; credential not attached")
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// VerifyPassword re-derives the candidate's digest and compares it against
// the stored one. Fails closed (false, nil) when no key, no auth record or
// no stored hash exists. On success the session is marked
// offline-authenticated, the decrypted profile is cached and a local
// session token is minted.
func (s *vaultService) VerifyPassword(ctx context.Context, candidate []byte) (bool, error) {
	key, rec, ok, err := s.loadAuthState(ctx)
	if !ok || err != nil {
		return false, err
	}
	if len(rec.PasswordHash) == 0 {
		return false, nil
	}

	var digest cryptox.PasswordDigest
	if err := cryptox.Decrypt(rec.PasswordHash, rec.NoncePasswordHash, key, &digest); err != nil {
		s.log.Warn(ctx, "stored password hash decrypt failed")
		return false, nil
	}
	if !digest.Verify(candidate) {
		return false, nil
	}

	return s.openSession(ctx, key, rec)
}

// VerifyPossession gates offline access on a platform possession
// credential. It deliberately does NOT verify the assertion's
// cryptographic signature: the platform ceremony that produced the
// assertion is trusted, and only "was this device's stored credential
// used" is checked, by matching the asserted credential ID against the
// stored metadata. Known limitation inherited from the upstream design.
func (s *vaultService) VerifyPossession(ctx context.Context, assertion *models.Assertion) (bool, error) {
	if !assertion.WellFormed() {
		return false, nil
	}

	key, rec, ok, err := s.loadAuthState(ctx)
	if !ok || err != nil {
		return false, err
	}
	if len(rec.Credential) == 0 {
		return false, nil
	}

	var info models.CredentialInfo
	if err := cryptox.Decrypt(rec.Credential, rec.NonceCredential, key, &info); err != nil {
		s.log.Warn(ctx, "stored credential decrypt failed")
		return false, nil
	}
	if assertion.ID != info.CredentialID {
		return false, nil
	}

	return s.openSession(ctx, key, rec)
}

// loadAuthState fetches the key and auth record; ok=false (with nil
// error) means a missing prerequisite and the caller must fail closed.
func (s *vaultService) loadAuthState(ctx context.Context) ([]byte, *models.AuthRecord, bool, error) {
	key, err := s.keyring.GetKey()
	if err != nil {
		if errors.Is(err, common.ErrNoKey) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}

	rec, err := s.authRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	return key, rec, true, nil
}

func (s *vaultService) openSession(ctx context.Context, key []byte, rec *models.AuthRecord) (bool, error) {
	var profile models.UserProfile
	if err := cryptox.Decrypt(rec.Profile, rec.NonceProfile, key, &profile); err != nil {
		s.log.Warn(ctx, "profile decrypt failed")
		return false, nil
	}

	token, err := NewSessionToken(key, &profile, defaultSessionTTL)
	if err != nil {
		return false, fmt.Errorf("session token error: %w", err)
	}

	s.authenticated = true
	s.profile = &profile
	s.sessionToken = token
	s.log.Info(ctx, "offline authentication succeeded", "user", profile.Email)
	return true, nil
}

// ClearAll wipes both containers, the key and all localstore bookkeeping.
// Idempotent; also resets any live session state.
func (s *vaultService) ClearAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := accounts.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return auth.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("clearing error: %w", err)
	}

	if err := s.keyring.ForgetKey(); err != nil {
		return err
	}
	if err := s.store.Delete(offlineSavedAtKey); err != nil {
		return err
	}
	if err := s.store.Delete(lastSyncAtKey); err != nil {
		return err
	}

	s.authenticated = false
	s.profile = nil
	s.sessionToken = ""
	s.log.Info(ctx, "offline data cleared")
	return nil
}

// HasOfflineData reports whether offline data can be decrypted at all,
// i.e. a vault key exists.
func (s *vaultService) HasOfflineData() bool {
	return s.keyring.HasKey()
}

// KeyFingerprint returns a short sha256 fingerprint of the vault key for
// display, or "" when no key exists. The fingerprint is stable for the
// life of the key and changes on regeneration.
func (s *vaultService) KeyFingerprint() string {
	key, err := s.keyring.GetKey()
	if err != nil {
		return ""
	}
	return hex.EncodeToString(cryptox.MakeVerifier(key))[:12]
}

func (s *vaultService) IsAuthenticated() bool { return s.authenticated }

// Profile returns the decrypted profile cached for the current session,
// or nil before a successful verification.
func (s *vaultService) Profile() *models.UserProfile { return s.profile }

// SessionToken returns the token minted by the last successful
// verification, or "".
func (s *vaultService) SessionToken() string { return s.sessionToken }
