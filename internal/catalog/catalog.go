// Package catalog holds the static per-family price tables. Prices are
// integers in so'm. Tables are read-mostly; the only runtime mutation is
// the admin price-edit flow.
package catalog

import (
	"sort"
	"sync"

	"ucshop-bot/internal/domain"
)

// Item is one purchasable package inside a family.
type Item struct {
	Key   string
	Label string
	Price int64
}

type Catalog struct {
	mu     sync.RWMutex
	tables map[domain.ProductFamily]map[string]int64
}

// New returns the catalog seeded with the default price tables.
func New() *Catalog {
	return &Catalog{tables: map[domain.ProductFamily]map[string]int64{
		domain.FamilyDiamonds: {
			"100+80":    14000,
			"310+249":   41000,
			"520+416":   72000,
			"1060+848":  144000,
			"2180+1853": 274000,
			"5600+4760": 719000,
		},
		domain.FamilyUC: {
			"60": 12000, "120": 24000, "180": 36000, "325": 58000,
			"385": 70000, "445": 82000, "660": 114000, "720": 125000,
			"985": 170000, "1320": 228000, "1800": 285000, "2125": 345000,
			"2460": 400000, "2785": 460000, "3850": 555000, "4175": 610000,
			"4510": 670000, "5650": 855000, "8100": 1100000, "9900": 1385000,
			"11950": 1660000, "16200": 2200000,
		},
		domain.FamilyPP: {
			"1000": 2520, "3000": 7560, "5000": 12600, "10000": 25200,
			"20000": 50400, "50000": 116676, "100000": 235242,
		},
		domain.FamilyPremium: {
			"3oy": 165000, "6oy": 225000, "12oy": 389000,
		},
		domain.FamilyStars: {
			"50": 13000, "100": 25000, "250": 60000, "500": 118000,
			"1000": 232000, "2500": 570000,
		},
		domain.FamilyGarden: {
			"raccoon": 95000, "dragonfly": 120000, "queen-bee": 150000,
			"disco-bee": 210000,
		},
		domain.FamilyGST: {
			"1000": 15000, "5000": 70000, "10000": 135000,
		},
		domain.FamilyRobux: {
			"400": 60000, "800": 115000, "1700": 230000, "4500": 580000,
		},
	}}
}

// Price looks up one item. Returns ErrUnknownItem for a stale keyboard key.
func (c *Catalog) Price(family domain.ProductFamily, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[family]
	if !ok {
		return 0, domain.ErrUnknownItem
	}
	price, ok := table[key]
	if !ok {
		return 0, domain.ErrUnknownItem
	}
	return price, nil
}

// Items returns the family's packages sorted by price ascending, the order
// the menus render them in.
func (c *Catalog) Items(family domain.ProductFamily) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table := c.tables[family]
	out := make([]Item, 0, len(table))
	for k, p := range table {
		out = append(out, Item{Key: k, Label: k, Price: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SetPrice updates (or adds) one item. Admin price-edit flow only.
func (c *Catalog) SetPrice(family domain.ProductFamily, key string, price int64) error {
	if price <= 0 {
		return domain.ErrBadAmount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	table, ok := c.tables[family]
	if !ok {
		return domain.ErrUnknownItem
	}
	table[key] = price
	return nil
}
