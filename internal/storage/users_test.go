package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ucshop-bot/internal/domain"
)

func TestUserStore_GetDefault(t *testing.T) {
	t.Parallel()

	s := OpenUserStore(filepath.Join(t.TempDir(), "users.json"))

	u := s.Get(42)
	if u.ID != 42 || u.Balance != 0 {
		t.Fatalf("want zero-balance default for id 42, got %+v", u)
	}
	if s.Count() != 0 {
		t.Fatalf("Get must not persist the default, count=%d", s.Count())
	}
}

func TestUserStore_UpsertProfile_MergesNonEmpty(t *testing.T) {
	t.Parallel()

	s := OpenUserStore(filepath.Join(t.TempDir(), "users.json"))

	s.UpsertProfile(1, domain.Profile{Username: "alisher", FirstName: "Alisher"})
	// empty incoming fields must not wipe known ones
	got := s.UpsertProfile(1, domain.Profile{Username: "", FirstName: "", LastName: "K"})

	if got.Username != "alisher" {
		t.Fatalf("username overwritten by empty value: %q", got.Username)
	}
	if got.FirstName != "Alisher" {
		t.Fatalf("first name overwritten by empty value: %q", got.FirstName)
	}
	if got.LastName != "K" {
		t.Fatalf("new field not merged: %q", got.LastName)
	}
	if got.LastSeen.IsZero() || got.LastUpdated.IsZero() {
		t.Fatal("timestamps not set on upsert")
	}
}

func TestUserStore_AdjustBalance(t *testing.T) {
	t.Parallel()

	s := OpenUserStore(filepath.Join(t.TempDir(), "users.json"))

	if nb := s.AdjustBalance(7, 20000); nb != 20000 {
		t.Fatalf("credit: want 20000, got %d", nb)
	}
	if nb := s.AdjustBalance(7, -14000); nb != 6000 {
		t.Fatalf("debit: want 6000, got %d", nb)
	}
}

func TestUserStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")

	s := OpenUserStore(path)
	s.UpsertProfile(9, domain.Profile{Username: "nodir"})
	s.AdjustBalance(9, 55000)

	// simulate restart
	reopened := OpenUserStore(path)
	u := reopened.Get(9)
	if u.Balance != 55000 {
		t.Fatalf("reload balance: want 55000, got %d", u.Balance)
	}
	if u.Username != "nodir" {
		t.Fatalf("reload profile: want nodir, got %q", u.Username)
	}
}

func TestUserStore_CorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := OpenUserStore(path)
	if s.Count() != 0 {
		t.Fatalf("corrupt file must yield empty store, count=%d", s.Count())
	}
}

func TestUserStore_MergeFlush_KeepsExternalUsers(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	s := OpenUserStore(path)
	s.AdjustBalance(1, 1000)

	// external edit adds user 2 and rewrites user 1 behind the store's back
	external := map[domain.UserID]*domain.UserAccount{
		1: {ID: 1, Balance: 999999},
		2: {ID: 2, Balance: 500, JoinDate: time.Now().UTC()},
	}
	raw, _ := json.Marshal(external)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	s.MergeFlush()

	// memory wins for known users, external-only users survive
	if got := s.Get(1).Balance; got != 1000 {
		t.Fatalf("in-memory state must win for user 1: got %d", got)
	}
	if got := s.Get(2).Balance; got != 500 {
		t.Fatalf("externally added user lost: got %d", got)
	}
}
