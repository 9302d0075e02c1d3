package flow

import (
	"strconv"
	"strings"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/session"
)

// Card rails offered during top-up. The numbers themselves come from config
// and are rendered by the presentation layer.
const (
	CardUzcard = "uzcard"
	CardHumo   = "humo"
)

// TopUpFlow mirrors the purchase flow in the opposite direction: the user
// states an amount, picks a card, self-attests payment, and a Pending
// top-up lands in the ledger for admin review.
type TopUpFlow struct {
	engine *Engine
	minTop int64
}

func NewTopUpFlow(engine *Engine, minTop int64) *TopUpFlow {
	return &TopUpFlow{engine: engine, minTop: minTop}
}

// Min returns the minimum accepted amount.
func (t *TopUpFlow) Min() int64 { return t.minTop }

// Start enters the top-up flow, replacing any active flow.
func (t *TopUpFlow) Start(userID domain.UserID) {
	t.engine.sessions.Set(userID, session.Flow{
		Kind:      session.FlowToppingUp,
		TopUpStep: session.TopUpAwaitAmount,
	})
}

// SubmitAmount parses the free-text amount. Below-minimum or unparseable
// input fails with ErrBadAmount and leaves the session at the same step.
func (t *TopUpFlow) SubmitAmount(userID domain.UserID, text string) (int64, error) {
	f := t.engine.sessions.Get(userID)
	if f.Kind != session.FlowToppingUp || f.TopUpStep != session.TopUpAwaitAmount {
		return 0, domain.ErrBadAmount
	}
	raw := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < t.minTop {
		return 0, domain.ErrBadAmount
	}
	f.Amount = amount
	f.TopUpStep = session.TopUpAwaitCard
	t.engine.sessions.Set(userID, f)
	return amount, nil
}

// SelectCard records the chosen rail and advances to the "I paid" step.
func (t *TopUpFlow) SelectCard(userID domain.UserID, card string) (int64, error) {
	f := t.engine.sessions.Get(userID)
	if f.Kind != session.FlowToppingUp || f.TopUpStep != session.TopUpAwaitCard {
		return 0, domain.ErrBadAmount
	}
	if card != CardUzcard && card != CardHumo {
		return 0, domain.ErrBadAmount
	}
	f.Card = card
	f.TopUpStep = session.TopUpAwaitPaid
	t.engine.sessions.Set(userID, f)
	return f.Amount, nil
}

// ConfirmPaid commits the pending top-up, clears the flow and fans out to
// admins.
func (t *TopUpFlow) ConfirmPaid(userID domain.UserID) (domain.TopUp, error) {
	f := t.engine.sessions.Get(userID)
	if f.Kind != session.FlowToppingUp || f.TopUpStep != session.TopUpAwaitPaid {
		return domain.TopUp{}, domain.ErrBadAmount
	}
	topup := t.engine.ledger.CreateTopUp(userID, f.Amount, f.Card)
	t.engine.sessions.Clear(userID)
	t.engine.notify.TopUpSubmitted(topup, t.engine.users.Get(userID))
	return topup, nil
}

// AwaitingAmount reports whether the next free text is a top-up amount.
func (t *TopUpFlow) AwaitingAmount(userID domain.UserID) bool {
	f := t.engine.sessions.Get(userID)
	return f.Kind == session.FlowToppingUp && f.TopUpStep == session.TopUpAwaitAmount
}
