package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"ucshop-bot/internal/domain"
	"ucshop-bot/internal/storage"
)

func newFixture(t *testing.T) (*Ledger, *storage.UserStore) {
	t.Helper()
	dir := t.TempDir()
	users := storage.OpenUserStore(filepath.Join(dir, "users.json"))
	led := Open(users, filepath.Join(dir, "orders.json"))
	return led, users
}

func TestConfirmOrder_HappyPath(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 20000)

	o, err := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != domain.OrderPending {
		t.Fatalf("new order must be pending, got %s", o.Status)
	}
	if got := users.Get(1).Balance; got != 20000 {
		t.Fatalf("confirm-time debit must not move balance at creation, got %d", got)
	}

	resolved, err := led.ConfirmOrder(o.ID, 99)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if resolved.Status != domain.OrderCompleted || resolved.ResolvedBy != 99 {
		t.Fatalf("bad resolution: %+v", resolved)
	}
	if got := users.Get(1).Balance; got != 6000 {
		t.Fatalf("balance after confirm: want 6000, got %d", got)
	}
}

func TestConfirmOrder_DoubleConfirmDebitsOnce(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 14000) // balance exactly equals price

	o, err := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := led.ConfirmOrder(o.ID, 99); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := led.ConfirmOrder(o.ID, 100)
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("second confirm must report already resolved, got %v", err)
	}
	if second.ResolvedBy != 99 {
		t.Fatalf("second confirm must not re-stamp resolver: %+v", second)
	}
	if got := users.Get(1).Balance; got != 0 {
		t.Fatalf("second confirm double-debited: balance %d", got)
	}
}

func TestConfirmOrder_InsufficientKeepsPending(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 5000)

	o, err := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := led.ConfirmOrder(o.ID, 99); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	got, _ := led.Order(o.ID)
	if got.Status != domain.OrderPending {
		t.Fatalf("order must stay pending after failed confirm, got %s", got.Status)
	}
	if bal := users.Get(1).Balance; bal != 5000 {
		t.Fatalf("failed confirm moved money: %d", bal)
	}

	// user tops up, the same order can still be confirmed
	users.AdjustBalance(1, 9000)
	if _, err := led.ConfirmOrder(o.ID, 99); err != nil {
		t.Fatalf("confirm after top-up: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 0 {
		t.Fatalf("want 0 after confirm, got %d", bal)
	}
}

func TestCreateOrder_DebitAtCreate(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 165000)

	o, err := led.CreateOrder(1, domain.FamilyPremium, "3oy", "@user", 165000, domain.DebitAtCreate)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 0 {
		t.Fatalf("create-time debit must move balance at creation, got %d", bal)
	}

	// rejection refunds
	if _, err := led.RejectOrder(o.ID, 99); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 165000 {
		t.Fatalf("reject must refund create-time debit, got %d", bal)
	}

	// second reject is a no-op, no double refund
	if _, err := led.RejectOrder(o.ID, 99); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("want ErrAlreadyResolved, got %v", err)
	}
	if bal := users.Get(1).Balance; bal != 165000 {
		t.Fatalf("double reject double-refunded: %d", bal)
	}
}

func TestCreateOrder_DebitAtCreateInsufficient(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 1000)

	_, err := led.CreateOrder(1, domain.FamilyPremium, "3oy", "@user", 165000, domain.DebitAtCreate)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if bal := users.Get(1).Balance; bal != 1000 {
		t.Fatalf("failed create moved money: %d", bal)
	}
}

func TestConfirmOrder_AfterRejectIsNoOp(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 14000)

	o, _ := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	if _, err := led.RejectOrder(o.ID, 99); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := led.ConfirmOrder(o.ID, 100); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("confirm after reject must be refused, got %v", err)
	}
	if bal := users.Get(1).Balance; bal != 14000 {
		t.Fatalf("confirm-after-reject moved money: %d", bal)
	}
}

func TestTopUp_ConfirmCreditsOnce(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)

	tu := led.CreateTopUp(1, 50000, "uzcard")
	if tu.Status != domain.OrderPending {
		t.Fatalf("new top-up must be pending, got %s", tu.Status)
	}
	if bal := users.Get(1).Balance; bal != 0 {
		t.Fatalf("top-up must not credit before confirmation, got %d", bal)
	}

	if _, err := led.ConfirmTopUp(tu.ID, 99); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 50000 {
		t.Fatalf("want 50000, got %d", bal)
	}

	if _, err := led.ConfirmTopUp(tu.ID, 99); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("want ErrAlreadyResolved, got %v", err)
	}
	if bal := users.Get(1).Balance; bal != 50000 {
		t.Fatalf("double confirm double-credited: %d", bal)
	}
}

func TestTopUp_RejectNoCredit(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)

	tu := led.CreateTopUp(1, 50000, "humo")
	if _, err := led.RejectTopUp(tu.ID, 99); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 0 {
		t.Fatalf("rejected top-up credited: %d", bal)
	}
}

func TestAdjust_RefusesNegativeResult(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 3000)

	if _, err := led.Adjust(1, -5000); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if bal := users.Get(1).Balance; bal != 3000 {
		t.Fatalf("refused adjust moved money: %d", bal)
	}
	if nb, err := led.Adjust(1, -3000); err != nil || nb != 0 {
		t.Fatalf("exact debit must pass: %d, %v", nb, err)
	}
}

func TestLedger_MirrorRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	users := storage.OpenUserStore(filepath.Join(dir, "users.json"))
	path := filepath.Join(dir, "orders.json")

	led := Open(users, path)
	users.AdjustBalance(1, 20000)
	o, err := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// restart: pending order survives and can still be confirmed
	reopened := Open(users, path)
	if _, err := reopened.ConfirmOrder(o.ID, 99); err != nil {
		t.Fatalf("confirm after reload: %v", err)
	}
	if bal := users.Get(1).Balance; bal != 6000 {
		t.Fatalf("want 6000 after reload+confirm, got %d", bal)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	led, users := newFixture(t)
	users.AdjustBalance(1, 100000)

	o1, _ := led.CreateOrder(1, domain.FamilyDiamonds, "100+80", "123456789", 14000, domain.DebitAtConfirm)
	o2, _ := led.CreateOrder(1, domain.FamilyUC, "60", "512345678", 12000, domain.DebitAtConfirm)
	led.CreateOrder(1, domain.FamilyPP, "1000", "512345678", 2520, domain.DebitAtConfirm)
	led.CreateTopUp(1, 5000, "uzcard")

	led.ConfirmOrder(o1.ID, 99)
	led.RejectOrder(o2.ID, 99)

	s := led.Stats()
	if s.Orders != 3 || s.Pending != 1 || s.Completed != 1 || s.Rejected != 1 {
		t.Fatalf("bad stats: %+v", s)
	}
	if s.Revenue != 14000 {
		t.Fatalf("revenue: want 14000, got %d", s.Revenue)
	}
	if s.TopUps != 1 {
		t.Fatalf("topups: want 1, got %d", s.TopUps)
	}
}
