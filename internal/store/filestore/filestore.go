// Package filestore keeps all data in three JSON documents under a data directory.
//
// The whole data set is loaded on Open and held in memory. Every mutation runs under one
// mutex and rewrites the affected document through a temp file and rename, so concurrent
// requests cannot interleave a read-modify-write cycle or leave a half-written file behind.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/legacy"
	"tradejournal/internal/models"
	"tradejournal/internal/store"
)

const (
	usersFile     = "users.json"
	journalsFile  = "journals.json"
	playbooksFile = "playbooks.json"

	legacyBackupSuffix = ".legacy.bak"
)

// ErrLegacyOwner is returned by MigrateLegacy when the owner email matches no user.
var ErrLegacyOwner = errors.New("legacy journals owner not found")

var _ store.Store = (*Store)(nil)

type Options struct {
	// LegacyOwner is the email of the account that adopts flat legacy journals. When empty
	// the first admin adopts them.
	LegacyOwner string
	Logger      *zap.Logger
}

// userRecord is the on-disk user. Password holds the base64 value written by older
// versions and is only read.
type userRecord struct {
	models.User
	PasswordHash string `json:"passwordHash,omitempty"`
	Password     string `json:"password,omitempty"`
}

func (r userRecord) user() models.User {
	u := r.User
	u.PasswordHash = r.PasswordHash
	if u.PasswordHash == "" {
		u.PasswordHash = r.Password
	}
	return u
}

func recordOf(u models.User) userRecord {
	return userRecord{User: u, PasswordHash: u.PasswordHash}
}

type Store struct {
	mu     sync.RWMutex
	dir    string
	opts   Options
	logger *zap.Logger

	users     []userRecord
	journals  map[string][]models.Journal
	playbooks map[string][]models.Playbook

	// pendingLegacy holds a flat journals document that has no owner yet.
	pendingLegacy []byte
	legacyResult  legacy.Result
}

// Open loads (or initializes) the store in dir. A flat legacy journals document is backed
// up and migrated to its owner; if no owner exists yet it is adopted by the first admin
// account created later.
func Open(dir string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:       dir,
		opts:      opts,
		logger:    opts.Logger,
		journals:  map[string][]models.Journal{},
		playbooks: map[string][]models.Playbook{},
	}

	if err := s.read(usersFile, &s.users); err != nil {
		return nil, err
	}
	if err := s.read(playbooksFile, &s.playbooks); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path(journalsFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", journalsFile, err)
	case legacy.IsLegacy(raw):
		if err := s.backupLegacy(raw); err != nil {
			return nil, err
		}
		s.pendingLegacy = raw
		owner, ok := s.legacyOwner()
		if !ok {
			s.logger.Warn("legacy journals found, waiting for an owner account",
				zap.String("legacy_owner", opts.LegacyOwner))
			break
		}
		if err := s.adoptLegacy(owner); err != nil {
			return nil, err
		}
	default:
		if _, _, err := s.decodeKeyed(raw); err != nil {
			return nil, err
		}
	}

	if s.journals == nil {
		s.journals = map[string][]models.Journal{}
	}
	if s.playbooks == nil {
		s.playbooks = map[string][]models.Playbook{}
	}
	return s, nil
}

func (s *Store) decodeKeyed(raw []byte) (map[string][]models.Journal, legacy.Result, error) {
	keyed, res, err := legacy.Migrate(raw, "", time.Now())
	if err != nil {
		return nil, res, fmt.Errorf("read %s: %w", journalsFile, err)
	}
	s.journals = keyed
	return keyed, res, nil
}

func (s *Store) Close() error { return nil }

// LegacyResult reports what the legacy migration did during this process.
func (s *Store) LegacyResult() legacy.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.legacyResult
}

// LegacyPending reports whether flat legacy journals are still waiting for an owner.
func (s *Store) LegacyPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingLegacy != nil
}

// MigrateLegacy assigns pending legacy journals to the user with the given email.
func (s *Store) MigrateLegacy(_ context.Context, ownerEmail string) (legacy.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingLegacy == nil {
		return s.legacyResult, nil
	}
	i := s.userIndexByEmail(ownerEmail)
	if i < 0 {
		return legacy.Result{}, fmt.Errorf("%w: %s", ErrLegacyOwner, ownerEmail)
	}
	if err := s.adoptLegacy(s.users[i].ID); err != nil {
		return legacy.Result{}, err
	}
	return s.legacyResult, nil
}

func (s *Store) legacyOwner() (string, bool) {
	if s.opts.LegacyOwner != "" {
		if i := s.userIndexByEmail(s.opts.LegacyOwner); i >= 0 {
			return s.users[i].ID, true
		}
		return "", false
	}
	var first *userRecord
	for i := range s.users {
		u := &s.users[i]
		if !u.IsAdmin {
			continue
		}
		if first == nil || u.CreatedAt.Before(first.CreatedAt) {
			first = u
		}
	}
	if first == nil {
		return "", false
	}
	return first.ID, true
}

// adoptLegacy migrates pendingLegacy to ownerID, merging with journals created since.
// Callers hold the lock or have exclusive access.
func (s *Store) adoptLegacy(ownerID string) error {
	keyed, res, err := legacy.Migrate(s.pendingLegacy, ownerID, time.Now())
	if err != nil {
		return fmt.Errorf("migrate legacy journals: %w", err)
	}
	prev := s.snapshot()
	existing := s.journals[ownerID]
	migrated := keyed[ownerID]
	if hasDefault(existing) {
		for i := range migrated {
			migrated[i].IsDefault = false
		}
	}
	s.journals[ownerID] = append(existing, migrated...)
	if err := s.commitJournals(prev); err != nil {
		return err
	}
	s.pendingLegacy = nil
	s.legacyResult = res
	s.logger.Info("migrated legacy journals",
		zap.String("owner", ownerID),
		zap.Int("journals", res.Journals),
		zap.Int("trades", res.Trades))
	return nil
}

func (s *Store) backupLegacy(raw []byte) error {
	backup := s.path(journalsFile + legacyBackupSuffix)
	if _, err := os.Stat(backup); err == nil {
		return nil
	}
	if err := os.WriteFile(backup, raw, 0o600); err != nil {
		return fmt.Errorf("back up legacy journals: %w", err)
	}
	return nil
}

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

func (s *Store) read(name string, v any) error {
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces name atomically.
func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// document returns the in-memory value persisted as name.
func (s *Store) document(name string) any {
	switch name {
	case usersFile:
		return s.users
	case journalsFile:
		return s.journals
	default:
		return s.playbooks
	}
}

// commit writes the named documents in order. When a write fails, rollback restores
// memory and the documents already replaced are written back from it.
func (s *Store) commit(rollback func(), names ...string) error {
	for i, name := range names {
		err := s.write(name, s.document(name))
		if err == nil {
			continue
		}
		rollback()
		for _, done := range names[:i] {
			if rerr := s.write(done, s.document(done)); rerr != nil {
				s.logger.Error("restore document failed", zap.String("file", done), zap.Error(rerr))
			}
		}
		return err
	}
	return nil
}

func (s *Store) Overview(_ context.Context) (models.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := models.Overview{Users: len(s.users)}
	for _, u := range s.users {
		if !u.IsApproved {
			o.PendingUsers++
		}
	}
	for _, js := range s.journals {
		o.Journals += len(js)
		for _, j := range js {
			o.Trades += len(j.Trades)
		}
	}
	for _, ps := range s.playbooks {
		o.Playbooks += len(ps)
	}
	return o, nil
}

func hasDefault(js []models.Journal) bool {
	for _, j := range js {
		if j.IsDefault {
			return true
		}
	}
	return false
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, kind, id)
}

func sortTrades(ts []models.Trade) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].EntryDate.Equal(ts[j].EntryDate) {
			return ts[i].EntryDate.After(ts[j].EntryDate)
		}
		return ts[i].ID > ts[j].ID
	})
}
