package promo

import (
	"errors"
	"testing"
	"time"

	"ucshop-bot/internal/domain"
)

// fakeCrediter records credits without a real ledger behind it.
type fakeCrediter struct {
	balances map[domain.UserID]int64
}

func newFakeCrediter() *fakeCrediter {
	return &fakeCrediter{balances: make(map[domain.UserID]int64)}
}

func (f *fakeCrediter) Credit(userID domain.UserID, amount int64) int64 {
	f.balances[userID] += amount
	return f.balances[userID]
}

func TestRedeem_HappyPath(t *testing.T) {
	t.Parallel()

	credits := newFakeCrediter()
	s := NewStore(credits)
	p, err := s.Create(10000, 5, 24*time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(p.Code) != codeLen {
		t.Fatalf("code length: want %d, got %q", codeLen, p.Code)
	}

	newBal, err := s.Redeem(p.Code, 1)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if newBal != 10000 || credits.balances[1] != 10000 {
		t.Fatalf("credit not applied: %d", newBal)
	}
}

func TestRedeem_CaseInsensitive(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	p, _ := s.Create(5000, 2, 24*time.Hour)

	if _, err := s.Redeem("  "+lower(p.Code)+" ", 1); err != nil {
		t.Fatalf("lowercased code with whitespace must redeem: %v", err)
	}
}

func TestRedeem_OncePerUser(t *testing.T) {
	t.Parallel()

	credits := newFakeCrediter()
	s := NewStore(credits)
	p, _ := s.Create(5000, 10, 24*time.Hour)

	if _, err := s.Redeem(p.Code, 1); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := s.Redeem(p.Code, 1); !errors.Is(err, domain.ErrPromoUsed) {
		t.Fatalf("want ErrPromoUsed, got %v", err)
	}
	if credits.balances[1] != 5000 {
		t.Fatalf("second redeem credited again: %d", credits.balances[1])
	}
}

func TestRedeem_Exhaustion(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	p, _ := s.Create(5000, 1, 24*time.Hour)

	if _, err := s.Redeem(p.Code, 1); err != nil {
		t.Fatalf("user A: %v", err)
	}
	if _, err := s.Redeem(p.Code, 2); !errors.Is(err, domain.ErrPromoExhausted) {
		t.Fatalf("user B after exhaustion: want ErrPromoExhausted, got %v", err)
	}
}

func TestRedeem_Expired(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	p, _ := s.Create(5000, 10, -time.Hour) // already expired

	if _, err := s.Redeem(p.Code, 1); !errors.Is(err, domain.ErrPromoExhausted) {
		t.Fatalf("want ErrPromoExhausted for expired code, got %v", err)
	}
}

func TestRedeem_NotFound(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	if _, err := s.Redeem("NOPE1234", 1); !errors.Is(err, domain.ErrPromoNotFound) {
		t.Fatalf("want ErrPromoNotFound, got %v", err)
	}
}

func TestCreate_RejectsBadArguments(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	if _, err := s.Create(0, 5, time.Hour); !errors.Is(err, domain.ErrBadAmount) {
		t.Fatalf("zero amount: want ErrBadAmount, got %v", err)
	}
	if _, err := s.Create(5000, 0, time.Hour); !errors.Is(err, domain.ErrBadAmount) {
		t.Fatalf("zero uses: want ErrBadAmount, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	s := NewStore(newFakeCrediter())
	s.Create(1000, 1, time.Hour)
	s.Create(2000, 1, time.Hour)

	if n := s.ClearAll(); n != 2 {
		t.Fatalf("cleared: want 2, got %d", n)
	}
	if s.Count() != 0 {
		t.Fatalf("codes survived clear: %d", s.Count())
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
