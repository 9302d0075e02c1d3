package domain

import (
	"time"
)

type UserID int64
type OrderID string
type TopUpID string

// ProductFamily names one purchasable goods line.
type ProductFamily string

const (
	FamilyDiamonds ProductFamily = "diamonds"
	FamilyUC       ProductFamily = "uc"
	FamilyPP       ProductFamily = "pp"
	FamilyPremium  ProductFamily = "premium"
	FamilyStars    ProductFamily = "stars"
	FamilyGarden   ProductFamily = "garden"
	FamilyGST      ProductFamily = "gst"
	FamilyRobux    ProductFamily = "robux"
)

// Families lists every product family in menu order.
var Families = []ProductFamily{
	FamilyDiamonds, FamilyUC, FamilyPP, FamilyPremium,
	FamilyStars, FamilyGarden, FamilyGST, FamilyRobux,
}

// UserAccount is the durable per-user record. Balance is in whole so'm.
type UserAccount struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	Balance      int64     `json:"balance"`
	JoinDate     time.Time `json:"join_date"`
	LastSeen     time.Time `json:"last_seen"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Profile carries the fields refreshed opportunistically on every update.
type Profile struct {
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderRejected || s == OrderCancelled
}

// DebitTiming says when the user's balance moves for a family.
type DebitTiming int

const (
	// DebitAtConfirm debits when an admin approves the order.
	DebitAtConfirm DebitTiming = iota
	// DebitAtCreate debits on submission and refunds on rejection.
	DebitAtCreate
)

// Order is one purchase attempt. Price is fixed at creation and never
// recomputed.
type Order struct {
	ID         OrderID       `json:"id"`
	UserID     UserID        `json:"user_id"`
	Family     ProductFamily `json:"family"`
	ItemKey    string        `json:"item_key"`
	DeliveryID string        `json:"delivery_id"`
	Price      int64         `json:"price"`
	Debit      DebitTiming   `json:"debit_timing"`
	Status     OrderStatus   `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy UserID        `json:"resolved_by,omitempty"`
}

// TopUp is a pending balance-increase request awaiting admin confirmation
// of an out-of-band card payment.
type TopUp struct {
	ID         TopUpID     `json:"id"`
	UserID     UserID      `json:"user_id"`
	Amount     int64       `json:"amount"`
	Card       string      `json:"card"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	ResolvedAt time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy UserID      `json:"resolved_by,omitempty"`
}

// PromoCode grants Amount so'm once per user until exhausted or expired.
type PromoCode struct {
	Code      string          `json:"code"`
	Amount    int64           `json:"amount"`
	UsesLeft  int             `json:"uses_left"`
	TotalUses int             `json:"total_uses"`
	UsedBy    map[UserID]bool `json:"used_by"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
}
