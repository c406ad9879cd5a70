package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersAssigned  *prometheus.CounterVec
	orderRejections *prometheus.CounterVec
	withdrawals     prometheus.Counter
	queueDepth      prometheus.Gauge
	eventLatency    *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Gauge, *prometheus.HistogramVec) {
	assigned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_orders_assigned_total",
			Help: "Number of orders committed to vehicles",
		},
		[]string{"kind"},
	)
	rejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_order_rejections_total",
			Help: "Number of candidate rejections during matching",
		},
		[]string{"cause"},
	)
	withdrawn := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_withdrawals_total",
			Help: "Number of withdrawal requests acted upon",
		},
	)
	depth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Number of pending dispatchable events",
		},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_event_duration_seconds",
			Help:    "Processing time per dispatchable event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)
	return assigned, rejections, withdrawn, depth, latency
}

func init() {
	ordersAssigned, orderRejections, withdrawals, queueDepth, eventLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ordersAssigned, orderRejections, withdrawals, queueDepth, eventLatency)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	ordersAssigned, orderRejections, withdrawals, queueDepth, eventLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

// Rejection cause labels.
const (
	causeUnroutable = "unroutable"
	causeController = "controller"
)
