package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
)

// UserStore is the durable userID -> UserAccount mapping. The in-memory map
// is authoritative; the backing JSON file is rewritten wholesale on every
// mutation and on a fixed interval. A failed write is logged and swallowed.
type UserStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]*domain.UserAccount
	path  string
}

// OpenUserStore loads the backing file. A missing, unreadable or corrupt
// file yields an empty store; startup never fails on bad user data.
func OpenUserStore(path string) *UserStore {
	s := &UserStore{
		users: make(map[domain.UserID]*domain.UserAccount),
		path:  path,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.WithError(err).WithField("path", path).Warn("create data dir")
		return s
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("read users file, starting empty")
		}
		return s
	}
	var onDisk map[domain.UserID]*domain.UserAccount
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		log.WithError(err).WithField("path", path).Warn("parse users file, starting empty")
		return s
	}
	s.users = onDisk
	log.WithField("users", len(onDisk)).Info("user store loaded")
	return s
}

// Get returns the account for id, or a zero-balance default if absent.
// The default is not persisted until the first mutation.
func (s *UserStore) Get(id domain.UserID) domain.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return *u
	}
	return domain.UserAccount{ID: id, JoinDate: time.Now().UTC()}
}

// Count returns the number of known users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// All returns a snapshot of every account.
func (s *UserStore) All() []domain.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out
}

// UpsertProfile merges non-empty incoming fields over the stored profile.
// A known non-empty field is never overwritten by an incoming empty one.
func (s *UserStore) UpsertProfile(id domain.UserID, p domain.Profile) domain.UserAccount {
	s.mu.Lock()
	now := time.Now().UTC()
	u, ok := s.users[id]
	if !ok {
		u = &domain.UserAccount{ID: id, JoinDate: now}
		s.users[id] = u
	}
	if p.Username != "" {
		u.Username = p.Username
	}
	if p.FirstName != "" {
		u.FirstName = p.FirstName
	}
	if p.LastName != "" {
		u.LastName = p.LastName
	}
	if p.LanguageCode != "" {
		u.LanguageCode = p.LanguageCode
	}
	u.LastSeen = now
	u.LastUpdated = now
	out := *u
	s.mu.Unlock()
	s.flush()
	return out
}

// AdjustBalance applies delta atomically and returns the new balance.
// Callers must check sufficiency before debiting; the store itself does not
// reject a negative result.
func (s *UserStore) AdjustBalance(id domain.UserID, delta int64) int64 {
	s.mu.Lock()
	now := time.Now().UTC()
	u, ok := s.users[id]
	if !ok {
		u = &domain.UserAccount{ID: id, JoinDate: now}
		s.users[id] = u
	}
	u.Balance += delta
	u.LastUpdated = now
	nb := u.Balance
	s.mu.Unlock()
	s.flush()
	return nb
}

// flush rewrites the backing file from the in-memory map. Write failures
// are logged, not raised: the map stays authoritative until the next
// successful flush.
func (s *UserStore) flush() {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.users, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		log.WithError(err).Error("marshal users")
		return
	}
	if err := WriteAtomic(s.path, data); err != nil {
		log.WithError(err).WithField("path", s.path).Error("flush users")
	}
}

// Flush forces a synchronous write. Called once on shutdown.
func (s *UserStore) Flush() {
	s.flush()
}

// MergeFlush re-reads the backing file, shallow-merges it under the
// in-memory state (memory wins per user id) and writes the result back.
// This tolerates external edits of the file between intervals; it is a
// documented last-one-wins consistency weakness, not a transaction.
func (s *UserStore) MergeFlush() {
	onDisk := map[domain.UserID]*domain.UserAccount{}
	if raw, err := os.ReadFile(s.path); err == nil {
		if err := json.Unmarshal(raw, &onDisk); err != nil {
			log.WithError(err).Warn("merge flush: unparseable file ignored")
			onDisk = map[domain.UserID]*domain.UserAccount{}
		}
	}
	s.mu.Lock()
	for id, u := range onDisk {
		if _, known := s.users[id]; !known {
			s.users[id] = u
		}
	}
	s.mu.Unlock()
	s.flush()
}

// RunPeriodicFlush merge-flushes every interval until ctx is cancelled,
// then performs one final synchronous flush.
func (s *UserStore) RunPeriodicFlush(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-t.C:
			s.MergeFlush()
		}
	}
}

// WriteAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated JSON file behind.
func WriteAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
