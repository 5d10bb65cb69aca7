// Package metrics exposes Prometheus instrumentation for the wallet's domain
// operations. Served on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "wallet_registrations_total",
		Help: "Number of successfully registered identities.",
	})

var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wallet_authentications_total",
		Help: "Number of authentication attempts by outcome.",
	},
	[]string{"outcome"},
)

var TransfersTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "wallet_transfers_total",
		Help: "Number of committed transfers.",
	})

var SpoofRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "wallet_spoof_rejections_total",
		Help: "Number of requests rejected by the liveness gate.",
	})

var NoFaceRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "wallet_no_face_rejections_total",
		Help: "Number of requests rejected because no face was detected.",
	})

var LivenessScore = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "wallet_liveness_score",
		Help:    "Distribution of liveness classifier scores.",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
