package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// CheckoutMetrics records checkout and payment gateway activity.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	payments *prometheus.CounterVec
	revenue  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Duration of checkout requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_attempts_total",
		Help:      "Payment gateway attempts by outcome.",
	}, []string{"outcome"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_revenue_cents_total",
		Help:      "Order totals captured by successful checkouts, in cents.",
	})
	reg.MustRegister(duration, attempts, payments, revenue)
	return &CheckoutMetrics{
		duration: duration,
		attempts: attempts,
		payments: payments,
		revenue:  revenue,
	}
}

// ObserveCheckout records one finished checkout.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	c.attempts.WithLabelValues(label).Inc()
}

// IncPaymentAttempt counts one gateway attempt.
func (c *CheckoutMetrics) IncPaymentAttempt(outcome string) {
	if c == nil || c.payments == nil {
		return
	}
	c.payments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddRevenue adds a successful order total.
func (c *CheckoutMetrics) AddRevenue(cents int64) {
	if c == nil || c.revenue == nil || cents <= 0 {
		return
	}
	c.revenue.Add(float64(cents))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
