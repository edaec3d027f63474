package prometheus

import (
	"fmt"
	"strconv"
	"time"

	"sales-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are built at package level so callers never see a nil collector;
// InitMetrics registers them under the configured prefix.
var (
	// HTTP request metrics
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication operations",
		},
		[]string{"operation"},
	)

	AuthErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication errors by type",
		},
		[]string{"type"},
	)

	// Database operation metrics
	DbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Catalog and registry metrics
	ClientOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_operations_total",
			Help: "Total number of client operations",
		},
		[]string{"operation"},
	)

	ProductOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	ProductStockGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "product_stock",
			Help: "Current stock level for products",
		},
		[]string{"product_id", "sku"},
	)

	// Sale metrics
	SalesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sales_total",
			Help: "Total number of recorded sales",
		},
	)

	SoldUnitsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sold_units_total",
			Help: "Total number of product units sold",
		},
	)

	SalesRejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_rejected_total",
			Help: "Total number of sales rejected by business rules",
		},
		[]string{"reason"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HttpRequestsTotal,
		HttpRequestDuration,
		AuthAttemptsCounter,
		AuthErrorsCounter,
		DbOperationDuration,
		ClientOperationsCounter,
		ProductOperationsCounter,
		ProductStockGauge,
		SalesCounter,
		SoldUnitsCounter,
		SalesRejectedCounter,
	}
}

// InitMetrics registers all metrics on the default registry
func InitMetrics(config *config.Config) error {
	return Register(prometheus.DefaultRegisterer, config.Metrics.Prefix)
}

// Register registers all metrics on reg, prefixing every name with prefix + "_"
func Register(reg prometheus.Registerer, prefix string) error {
	if prefix != "" {
		reg = prometheus.WrapRegistererWithPrefix(prefix+"_", reg)
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthAttempt increments the counter for an auth operation (login, signup, logout, refresh)
func RecordAuthAttempt(operation string) {
	AuthAttemptsCounter.WithLabelValues(operation).Inc()
}

// RecordAuthError increments the counter for auth errors
func RecordAuthError(errorType string) {
	AuthErrorsCounter.WithLabelValues(errorType).Inc()
}

// RecordClientOperation increments the counter for client operations
func RecordClientOperation(operation string) {
	ClientOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// UpdateProductStock updates the gauge for a product's stock
func UpdateProductStock(productID uint, sku string, quantity int) {
	ProductStockGauge.WithLabelValues(strconv.FormatUint(uint64(productID), 10), sku).Set(float64(quantity))
}

// RecordSale counts a sale and the units it moved
func RecordSale(units int) {
	SalesCounter.Inc()
	SoldUnitsCounter.Add(float64(units))
}

// RecordSaleRejected counts a sale refused by a business rule
func RecordSaleRejected(reason string) {
	SalesRejectedCounter.WithLabelValues(reason).Inc()
}
