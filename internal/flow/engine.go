// Package flow walks a user from catalog selection to a Pending order (or
// top-up) through the per-user session. One engine serves every product
// family; the variation lives in FamilySpec.
package flow

import (
	"ucshop-bot/internal/catalog"
	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/ledger"
	"ucshop-bot/internal/session"
	"ucshop-bot/internal/storage"
)

// Notifier receives the post-commit events the engine emits. Delivery is
// best-effort: implementations log failures and never return them here,
// so a lost notification cannot roll back a committed order.
type Notifier interface {
	OrderSubmitted(o domain.Order, u domain.UserAccount)
	TopUpSubmitted(t domain.TopUp, u domain.UserAccount)
}

// Engine drives the purchase state machine.
type Engine struct {
	sessions *session.Store
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	users    *storage.UserStore
	notify   Notifier
}

func NewEngine(sessions *session.Store, cat *catalog.Catalog, led *ledger.Ledger,
	users *storage.UserStore, notify Notifier) *Engine {
	return &Engine{sessions: sessions, catalog: cat, ledger: led, users: users, notify: notify}
}

// Selection is the outcome of a catalog tap.
type Selection struct {
	Spec      *FamilySpec
	ItemKey   string
	Price     int64
	Balance   int64
	Shortfall int64 // >0 means the flow aborted on insufficient funds
}

// SelectItem handles step 1: the user tapped (family, itemKey). On a
// shortfall the flow aborts with no session entry left behind. On success
// the session's active flow is replaced (last writer wins) and the caller
// prompts with Selection.Spec.Prompt.
func (e *Engine) SelectItem(userID domain.UserID, family domain.ProductFamily, itemKey string) (Selection, error) {
	spec := Spec(family)
	if spec == nil {
		return Selection{}, domain.ErrUnknownItem
	}
	price, err := e.catalog.Price(family, itemKey)
	if err != nil {
		return Selection{}, err
	}
	balance := e.users.Get(userID).Balance
	if balance < price {
		// entering a flow must not leave partial state; also drop any
		// flow the user abandoned earlier
		e.sessions.Clear(userID)
		return Selection{
			Spec: spec, ItemKey: itemKey, Price: price,
			Balance: balance, Shortfall: price - balance,
		}, domain.ErrInsufficientFunds
	}
	e.sessions.Set(userID, session.Flow{
		Kind:    session.FlowBuying,
		BuyStep: session.BuyAwaitDeliveryID,
		Family:  family,
		ItemKey: itemKey,
		Price:   price,
	})
	return Selection{Spec: spec, ItemKey: itemKey, Price: price, Balance: balance}, nil
}

// SubmitDeliveryID handles step 3: the next free-text message while the
// session awaits a delivery identifier. A failed validation re-prompts
// without consuming the session. Success commits the order, clears the
// flow and fans out to admins.
func (e *Engine) SubmitDeliveryID(userID domain.UserID, text string) (domain.Order, error) {
	f := e.sessions.Get(userID)
	if f.Kind != session.FlowBuying || f.BuyStep != session.BuyAwaitDeliveryID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	spec := Spec(f.Family)
	if spec == nil {
		e.sessions.Clear(userID)
		return domain.Order{}, domain.ErrUnknownItem
	}
	deliveryID, err := spec.Validate(text)
	if err != nil {
		// session untouched, the user retries the same step
		return domain.Order{}, err
	}
	order, err := e.ledger.CreateOrder(userID, f.Family, f.ItemKey, deliveryID, f.Price, spec.Debit)
	if err != nil {
		// create-time debit can still fail on sufficiency if the balance
		// moved since selection
		e.sessions.Clear(userID)
		return domain.Order{}, err
	}
	e.sessions.Clear(userID)
	e.notify.OrderSubmitted(order, e.users.Get(userID))
	return order, nil
}

// Awaiting reports whether the engine expects a free-text delivery
// identifier from this user.
func (e *Engine) Awaiting(userID domain.UserID) bool {
	f := e.sessions.Get(userID)
	return f.Kind == session.FlowBuying && f.BuyStep == session.BuyAwaitDeliveryID
}
