package catalog

import (
	"errors"
	"testing"

	"ucshop-bot/internal/domain"
)

func TestCatalog_Price(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name    string
		family  domain.ProductFamily
		key     string
		want    int64
		wantErr error
	}{
		{name: "diamonds seed price", family: domain.FamilyDiamonds, key: "100+80", want: 14000},
		{name: "uc seed price", family: domain.FamilyUC, key: "16200", want: 2200000},
		{name: "stale item key", family: domain.FamilyDiamonds, key: "999+0", wantErr: domain.ErrUnknownItem},
		{name: "unknown family", family: domain.ProductFamily("vbucks"), key: "100", wantErr: domain.ErrUnknownItem},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.Price(tt.family, tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("price: want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCatalog_SetPrice(t *testing.T) {
	t.Parallel()

	c := New()
	if err := c.SetPrice(domain.FamilyUC, "60", 12500); err != nil {
		t.Fatalf("set price: %v", err)
	}
	got, err := c.Price(domain.FamilyUC, "60")
	if err != nil || got != 12500 {
		t.Fatalf("want 12500, got %d (%v)", got, err)
	}

	if err := c.SetPrice(domain.FamilyUC, "60", 0); !errors.Is(err, domain.ErrBadAmount) {
		t.Fatalf("zero price must be rejected, got %v", err)
	}
	if err := c.SetPrice(domain.ProductFamily("vbucks"), "x", 1); !errors.Is(err, domain.ErrUnknownItem) {
		t.Fatalf("unknown family must be rejected, got %v", err)
	}
}

func TestCatalog_ItemsSortedByPrice(t *testing.T) {
	t.Parallel()

	items := New().Items(domain.FamilyDiamonds)
	if len(items) == 0 {
		t.Fatal("diamonds table empty")
	}
	for i := 1; i < len(items); i++ {
		if items[i].Price < items[i-1].Price {
			t.Fatalf("items not sorted ascending at %d: %+v", i, items)
		}
	}
}
