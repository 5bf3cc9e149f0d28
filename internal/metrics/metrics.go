package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Allocation metrics
	TicketAllocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_ticket_allocations_total",
			Help: "Total number of ticket fee allocations by outcome",
		},
		[]string{"status"},
	)

	PoolAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_pool_allocated_total",
			Help: "Total amount credited to each pool, in smallest token units",
		},
		[]string{"pool"},
	)

	// Conversion metrics
	ConversionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_conversion_requests_total",
			Help: "Total number of conversion requests by outcome",
		},
		[]string{"status"},
	)

	ConversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treasury_conversion_duration_seconds",
		Help:    "End to end conversion duration including the transfer",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	ConvertedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_converted_amount_total",
		Help: "Total output amount transferred out of custody",
	})

	QuoteAge = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasury_quote_age_seconds",
			Help:    "Age of price quotes at the moment they are used",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 120},
		},
		[]string{"feed"},
	)

	TransferFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_transfer_failures_total",
		Help: "Total number of failed custody transfers",
	})

	PriorityFee = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "treasury_priority_fee_micro_lamports",
		Help: "Compute unit price attached to the last custody transfer",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasury_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasury_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
