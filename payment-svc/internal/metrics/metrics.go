// Package metrics exposes Prometheus metrics for the payment service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksTotal counts provider notifications by outcome
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "webhook",
			Name:      "notifications_total",
			Help:      "Total number of provider notifications by outcome",
		},
		[]string{"outcome"},
	)

	SignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "webhook",
			Name:      "signature_failures_total",
			Help:      "Notifications rejected because of a missing or invalid signature",
		},
	)

	// PreferencesCreated counts checkout preferences by the config scope that paid for them
	PreferencesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "checkout",
			Name:      "preferences_created_total",
			Help:      "Total number of provider preferences created",
		},
		[]string{"scope"},
	)

	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Failed calls to the payment provider",
		},
		[]string{"operation"},
	)

	DelegationCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "config",
			Name:      "delegation_cycles_total",
			Help:      "Branch delegation walks aborted by a cycle or the hop limit",
		},
	)

	StockUnderflows = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "inventory",
			Name:      "stock_underflows_total",
			Help:      "Ingredient decrements skipped because stock would go negative",
		},
	)

	ProductsDisabled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "payments",
			Subsystem: "inventory",
			Name:      "products_disabled_total",
			Help:      "Menu products disabled after an ingredient reached its minimum",
		},
	)
)

const (
	OutcomeIgnored      = "ignored"
	OutcomeDuplicate    = "duplicate"
	OutcomeInFlight     = "in_flight"
	OutcomeProcessed    = "processed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeFailed       = "failed"
)
