// Package session holds the per-user ephemeral flow state. A session has at
// most one active flow at any instant; entering a flow replaces whatever was
// active before. State is transient and safe to lose on restart.
package session

import (
	"sync"

	"ucshop-bot/internal/domain"
)

// FlowKind tags the active flow variant.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowBuying
	FlowToppingUp
	FlowRedeemingPromo
	FlowCreatingPromo
	FlowBroadcasting
	FlowEditingPrice
	FlowFindingUser
	FlowMessagingUser
	FlowAdjustingBalance
)

// BuyStep enumerates the purchase engine steps that live in the session.
type BuyStep int

const (
	BuyAwaitDeliveryID BuyStep = iota
)

// TopUpStep enumerates the top-up steps.
type TopUpStep int

const (
	TopUpAwaitAmount TopUpStep = iota
	TopUpAwaitCard
	TopUpAwaitPaid
)

// PromoWizardStep enumerates the admin promo-creation wizard steps.
type PromoWizardStep int

const (
	PromoAwaitAmount PromoWizardStep = iota
	PromoAwaitUses
	PromoAwaitExpiryDays
)

// Flow is the single tagged variant per session. Only the fields of the
// active kind are meaningful.
type Flow struct {
	Kind FlowKind

	// FlowBuying
	BuyStep BuyStep
	Family  domain.ProductFamily
	ItemKey string
	Price   int64

	// FlowToppingUp
	TopUpStep TopUpStep
	Amount    int64
	Card      string

	// FlowCreatingPromo
	PromoStep   PromoWizardStep
	PromoAmount int64
	PromoUses   int

	// FlowMessagingUser / FlowAdjustingBalance
	TargetUser domain.UserID
}

// Store maps user id to the active flow. In-process only.
type Store struct {
	mu    sync.Mutex
	flows map[domain.UserID]Flow
}

func NewStore() *Store {
	return &Store{flows: make(map[domain.UserID]Flow)}
}

// Get returns the active flow, FlowNone if absent.
func (s *Store) Get(id domain.UserID) Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[id]
}

// Set replaces the active flow. Last writer wins: starting flow B while in
// flow A discards A.
func (s *Store) Set(id domain.UserID, f Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Kind == FlowNone {
		delete(s.flows, id)
		return
	}
	s.flows[id] = f
}

// Clear drops the active flow.
func (s *Store) Clear(id domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
}
