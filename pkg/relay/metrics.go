// Copyright 2024-2026 Aiku AI

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsTotal counts inbound gateway events by kind and what the
	// handler did with them.
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guild_relay_events_total",
		Help: "Inbound message events by event kind and outcome",
	}, []string{"event", "outcome"})

	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guild_relay_deliveries_total",
		Help: "Webhook deliveries by result",
	}, []string{"result"})

	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guild_relay_delivery_duration_seconds",
		Help:    "Webhook delivery latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms to ~13s
	})

	// diagnosticsTotal counts failure notices sent after a failed delivery.
	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guild_relay_diagnostics_total",
		Help: "Delivery failure notices by result",
	}, []string{"result"})
)

const (
	resultOK    = "ok"
	resultError = "error"
)
