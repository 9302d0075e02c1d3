// Package ledger is the append/update log of purchase attempts and top-up
// requests, together with the admin confirmation protocol. Every operation
// that reads a balance, decides, and writes it runs under one mutex, so a
// debit can never interleave with another resolution for the same process.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/storage"
)

// Balances is the slice of the user store the ledger needs.
type Balances interface {
	Get(id domain.UserID) domain.UserAccount
	AdjustBalance(id domain.UserID, delta int64) int64
}

type snapshot struct {
	Orders map[domain.OrderID]*domain.Order `json:"orders"`
	TopUps map[domain.TopUpID]*domain.TopUp `json:"topups"`
}

// Ledger keeps orders and top-ups in memory, mirrored to a JSON file on
// every mutation. Mirror failures are logged and swallowed; memory stays
// authoritative.
type Ledger struct {
	mu       sync.Mutex
	balances Balances
	orders   map[domain.OrderID]*domain.Order
	topups   map[domain.TopUpID]*domain.TopUp
	path     string
}

// Open loads the mirror file if present. An unreadable mirror yields an
// empty ledger, never a startup failure.
func Open(balances Balances, path string) *Ledger {
	l := &Ledger{
		balances: balances,
		orders:   make(map[domain.OrderID]*domain.Order),
		topups:   make(map[domain.TopUpID]*domain.TopUp),
		path:     path,
	}
	if path == "" {
		return l
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.WithError(err).Warn("create ledger dir")
		return l
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("read ledger mirror, starting empty")
		}
		return l
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.WithError(err).WithField("path", path).Warn("parse ledger mirror, starting empty")
		return l
	}
	if snap.Orders != nil {
		l.orders = snap.Orders
	}
	if snap.TopUps != nil {
		l.topups = snap.TopUps
	}
	log.WithFields(log.Fields{"orders": len(l.orders), "topups": len(l.topups)}).
		Info("ledger loaded")
	return l
}

// CreateOrder appends a Pending order. For create-time-debit families the
// user's balance moves here and is refunded on rejection; sufficiency is
// checked under the ledger lock.
func (l *Ledger) CreateOrder(userID domain.UserID, family domain.ProductFamily,
	itemKey, deliveryID string, price int64, timing domain.DebitTiming) (domain.Order, error) {

	l.mu.Lock()
	defer l.mu.Unlock()

	if timing == domain.DebitAtCreate {
		if bal := l.balances.Get(userID).Balance; bal < price {
			return domain.Order{}, domain.ErrInsufficientFunds
		}
		l.balances.AdjustBalance(userID, -price)
	}

	o := &domain.Order{
		ID:         domain.OrderID(uuid.NewString()),
		UserID:     userID,
		Family:     family,
		ItemKey:    itemKey,
		DeliveryID: deliveryID,
		Price:      price,
		Debit:      timing,
		Status:     domain.OrderPending,
		CreatedAt:  time.Now().UTC(),
	}
	l.orders[o.ID] = o
	l.mirrorLocked()
	return *o, nil
}

// Order returns a copy of the order.
func (l *Ledger) Order(id domain.OrderID) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *o, nil
}

// ConfirmOrder resolves a Pending order to Completed exactly once.
//
// For confirm-time-debit families the balance is re-read under the lock; a
// shortfall fails with ErrInsufficientFunds and the order stays Pending so
// the admin can prompt the user to top up or cancel. A second confirm (or a
// confirm racing a reject) finds a terminal status and reports
// ErrAlreadyResolved before any mutation.
func (l *Ledger) ConfirmOrder(id domain.OrderID, adminID domain.UserID) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return *o, domain.ErrAlreadyResolved
	}
	if o.Debit == domain.DebitAtConfirm {
		if bal := l.balances.Get(o.UserID).Balance; bal < o.Price {
			return *o, domain.ErrInsufficientFunds
		}
		l.balances.AdjustBalance(o.UserID, -o.Price)
	}
	o.Status = domain.OrderCompleted
	o.ResolvedAt = time.Now().UTC()
	o.ResolvedBy = adminID
	l.mirrorLocked()
	log.WithFields(log.Fields{
		"order": o.ID, "user": o.UserID, "family": o.Family, "admin": adminID,
	}).Info("order confirmed")
	return *o, nil
}

// RejectOrder resolves a Pending order to Rejected exactly once, crediting
// the price back for create-time-debit families.
func (l *Ledger) RejectOrder(id domain.OrderID, adminID domain.UserID) (domain.Order, error) {
	return l.closeOrder(id, adminID, domain.OrderRejected)
}

// CancelOrder is RejectOrder with a Cancelled terminal status.
func (l *Ledger) CancelOrder(id domain.OrderID, adminID domain.UserID) (domain.Order, error) {
	return l.closeOrder(id, adminID, domain.OrderCancelled)
}

func (l *Ledger) closeOrder(id domain.OrderID, adminID domain.UserID, st domain.OrderStatus) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return *o, domain.ErrAlreadyResolved
	}
	if o.Debit == domain.DebitAtCreate {
		l.balances.AdjustBalance(o.UserID, o.Price)
	}
	o.Status = st
	o.ResolvedAt = time.Now().UTC()
	o.ResolvedBy = adminID
	l.mirrorLocked()
	log.WithFields(log.Fields{
		"order": o.ID, "user": o.UserID, "status": st, "admin": adminID,
	}).Info("order closed")
	return *o, nil
}

// CreateTopUp appends a Pending top-up request. No balance moves until an
// admin confirms receipt of funds.
func (l *Ledger) CreateTopUp(userID domain.UserID, amount int64, card string) domain.TopUp {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := &domain.TopUp{
		ID:        domain.TopUpID(uuid.NewString()),
		UserID:    userID,
		Amount:    amount,
		Card:      card,
		Status:    domain.OrderPending,
		CreatedAt: time.Now().UTC(),
	}
	l.topups[t.ID] = t
	l.mirrorLocked()
	return *t
}

// TopUp returns a copy of the top-up request.
func (l *Ledger) TopUp(id domain.TopUpID) (domain.TopUp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.topups[id]
	if !ok {
		return domain.TopUp{}, domain.ErrTopUpNotFound
	}
	return *t, nil
}

// ConfirmTopUp credits the requested amount exactly once.
func (l *Ledger) ConfirmTopUp(id domain.TopUpID, adminID domain.UserID) (domain.TopUp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.topups[id]
	if !ok {
		return domain.TopUp{}, domain.ErrTopUpNotFound
	}
	if t.Status.Terminal() {
		return *t, domain.ErrAlreadyResolved
	}
	l.balances.AdjustBalance(t.UserID, t.Amount)
	t.Status = domain.OrderCompleted
	t.ResolvedAt = time.Now().UTC()
	t.ResolvedBy = adminID
	l.mirrorLocked()
	log.WithFields(log.Fields{"topup": t.ID, "user": t.UserID, "amount": t.Amount}).
		Info("top-up confirmed")
	return *t, nil
}

// RejectTopUp closes the request with no balance change.
func (l *Ledger) RejectTopUp(id domain.TopUpID, adminID domain.UserID) (domain.TopUp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.topups[id]
	if !ok {
		return domain.TopUp{}, domain.ErrTopUpNotFound
	}
	if t.Status.Terminal() {
		return *t, domain.ErrAlreadyResolved
	}
	t.Status = domain.OrderRejected
	t.ResolvedAt = time.Now().UTC()
	t.ResolvedBy = adminID
	l.mirrorLocked()
	return *t, nil
}

// Credit adds amount to the user's balance through the ledger lock.
// Promo redemptions and admin adjustments use this instead of touching the
// store directly.
func (l *Ledger) Credit(userID domain.UserID, amount int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances.AdjustBalance(userID, amount)
}

// Adjust applies a signed admin adjustment, refusing a negative result.
func (l *Ledger) Adjust(userID domain.UserID, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if delta < 0 {
		if bal := l.balances.Get(userID).Balance; bal+delta < 0 {
			return bal, domain.ErrInsufficientFunds
		}
	}
	return l.balances.AdjustBalance(userID, delta), nil
}

// Stats summarizes the ledger for the admin panel.
type Stats struct {
	Orders    int
	Pending   int
	Completed int
	Rejected  int
	TopUps    int
	Revenue   int64 // sum of completed order prices
}

func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s Stats
	s.Orders = len(l.orders)
	s.TopUps = len(l.topups)
	for _, o := range l.orders {
		switch o.Status {
		case domain.OrderPending:
			s.Pending++
		case domain.OrderCompleted:
			s.Completed++
			s.Revenue += o.Price
		case domain.OrderRejected, domain.OrderCancelled:
			s.Rejected++
		}
	}
	return s
}

func (l *Ledger) mirrorLocked() {
	if l.path == "" {
		return
	}
	data, err := json.MarshalIndent(snapshot{Orders: l.orders, TopUps: l.topups}, "", "  ")
	if err != nil {
		log.WithError(err).Error("marshal ledger")
		return
	}
	if err := storage.WriteAtomic(l.path, data); err != nil {
		log.WithError(err).WithField("path", l.path).Error("mirror ledger")
	}
}
