package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cart_operations_total",
		Help: "Total number of successful cart operations",
	}, []string{"operation"})

	CartOperationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cart_operations_failed_total",
		Help: "Total number of rejected cart operations",
	}, []string{"operation", "reason"})

	PriceMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_price_mismatches_total",
		Help: "Total number of price mismatches raised for confirmation",
	})

	BillsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_bills_generated_total",
		Help: "Total number of bills generated",
	})

	BillGenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_bill_generation_latency_seconds",
		Help:    "Latency of bill generation",
		Buckets: prometheus.DefBuckets,
	})

	SalesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_completed_total",
		Help: "Total number of completed sales",
	})

	SalesAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_amount_total",
		Help: "Sum of completed bill totals",
	})

	ProductsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_products_imported_total",
		Help: "Total number of products added by import",
	})

	ImportRowsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_import_rows_dropped_total",
		Help: "Total number of import rows dropped as invalid",
	})

	SalesArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_archived_total",
		Help: "Total number of completed sales written to the archive",
	})

	ArchiveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_archive_failures_total",
		Help: "Total number of events the archive worker failed to store",
	}, []string{"event_type"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_logins_total",
		Help: "Total number of login attempts",
	}, []string{"role", "result"})

	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_event_publish_failures_total",
		Help: "Total number of domain events that could not be published",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
