// Package promo implements admin-created promo codes: fixed-length
// alphanumeric tokens granting a one-per-user balance credit until the use
// count runs out or the code expires.
package promo

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
)

const (
	codeLen = 8
	// no 0/O or 1/I, codes get retyped by humans
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Crediter is the ledger slice the promo store needs.
type Crediter interface {
	Credit(userID domain.UserID, amount int64) int64
}

type Store struct {
	mu      sync.Mutex
	codes   map[string]*domain.PromoCode
	credits Crediter
}

func NewStore(credits Crediter) *Store {
	return &Store{codes: make(map[string]*domain.PromoCode), credits: credits}
}

// Create mints a new code with the given credit amount, total use count and
// lifetime. The multi-step wizard collects the arguments; commit is atomic.
func (s *Store) Create(amount int64, uses int, lifetime time.Duration) (domain.PromoCode, error) {
	if amount <= 0 || uses <= 0 {
		return domain.PromoCode{}, domain.ErrBadAmount
	}
	code := generateCode()
	p := &domain.PromoCode{
		Code:      code,
		Amount:    amount,
		UsesLeft:  uses,
		TotalUses: uses,
		UsedBy:    make(map[domain.UserID]bool),
		ExpiresAt: time.Now().UTC().Add(lifetime),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.codes[code] = p
	s.mu.Unlock()
	log.WithFields(log.Fields{"code": code, "amount": amount, "uses": uses}).
		Info("promo created")
	return *p, nil
}

// Redeem credits the code's amount to userID at most once per (code, user).
// Codes are matched case-insensitively. Distinct failures:
// ErrPromoNotFound, ErrPromoUsed, ErrPromoExhausted.
func (s *Store) Redeem(code string, userID domain.UserID) (int64, error) {
	norm := strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.codes[norm]
	if !ok {
		return 0, domain.ErrPromoNotFound
	}
	if p.UsedBy[userID] {
		return 0, domain.ErrPromoUsed
	}
	if p.UsesLeft <= 0 || time.Now().UTC().After(p.ExpiresAt) {
		return 0, domain.ErrPromoExhausted
	}

	p.UsedBy[userID] = true
	p.UsesLeft--
	newBal := s.credits.Credit(userID, p.Amount)
	log.WithFields(log.Fields{"code": norm, "user": userID, "left": p.UsesLeft}).
		Info("promo redeemed")
	return newBal, nil
}

// ClearAll drops every code. Admin bulk-clear.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.codes)
	s.codes = make(map[string]*domain.PromoCode)
	return n
}

// Count returns the number of live codes.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func generateCode() string {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < codeLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the process is in real trouble;
			// fall back to a time-derived index rather than panicking.
			n = big.NewInt(time.Now().UnixNano() % int64(len(alphabet)))
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}
