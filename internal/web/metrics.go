package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts submitted orders per product family.
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ucshop_orders_created_total",
		Help: "Orders submitted for admin review, by product family.",
	}, []string{"family"})

	// OrdersResolved counts terminal order transitions per status.
	OrdersResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ucshop_orders_resolved_total",
		Help: "Orders resolved by an admin, by terminal status.",
	}, []string{"status"})

	// TopUpsResolved counts terminal top-up transitions per status.
	TopUpsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ucshop_topups_resolved_total",
		Help: "Top-up requests resolved by an admin, by terminal status.",
	}, []string{"status"})

	// PromoRedemptions counts redemption attempts per outcome.
	PromoRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ucshop_promo_redemptions_total",
		Help: "Promo redemption attempts, by outcome.",
	}, []string{"outcome"})

	// UpdatesDropped counts updates discarded by the rate limiter.
	UpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ucshop_updates_rate_limited_total",
		Help: "Inbound updates dropped by the per-user rate limiter.",
	})
)
