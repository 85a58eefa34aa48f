package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Commerce records cart, order and HTTP activity. A nil *Commerce is a no-op so
// services can run without a registry.
type Commerce struct {
	cartOps       *prometheus.CounterVec
	ordersPlaced  *prometheus.CounterVec
	orderValue    *prometheus.HistogramVec
	statusChanges *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCommerce registers the metrics on reg. A nil registerer yields a no-op recorder.
func NewCommerce(reg prometheus.Registerer) *Commerce {
	if reg == nil {
		return nil
	}
	c := &Commerce{
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Submitted orders by order type and payment method.",
		}, []string{"order_type", "payment_method"}),
		orderValue: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "order_grand_total",
			Help:    "Grand total of submitted orders in currency units.",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500},
		}, []string{"order_type"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Order status transitions by target status.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(c.cartOps, c.ordersPlaced, c.orderValue, c.statusChanges, c.httpDuration)
	return c
}

// CartOperation counts one cart mutation; err decides the outcome label.
func (c *Commerce) CartOperation(op string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.cartOps.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

func (c *Commerce) OrderSubmitted(orderType, paymentMethod string, grandTotal decimal.Decimal) {
	if c == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(orderType), normalizeLabel(paymentMethod)).Inc()
	c.orderValue.WithLabelValues(normalizeLabel(orderType)).Observe(grandTotal.InexactFloat64())
}

func (c *Commerce) OrderStatusChanged(status string) {
	if c == nil {
		return
	}
	c.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

func (c *Commerce) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpDuration.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
