package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestHTTPRequestDuration(t *testing.T) {
	t.Run("metric_is_registered", func(t *testing.T) {
		assert.NotNil(t, HTTPRequestDuration)
	})

	t.Run("histogram_has_correct_labels", func(t *testing.T) {
		assert.NotPanics(t, func() {
			HTTPRequestDuration.WithLabelValues("GET", "/user", "200").Observe(0.05)
			HTTPRequestDuration.WithLabelValues("POST", "/signin", "401").Observe(0.1)
			HTTPRequestDuration.WithLabelValues("DELETE", "/delete", "500").Observe(0.25)
		})
	})

	t.Run("histogram_has_expected_buckets", func(t *testing.T) {
		expectedBuckets := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

		labels := HTTPRequestDuration.WithLabelValues("POST", "/signup", "201")
		assert.NotPanics(t, func() {
			for _, bucket := range expectedBuckets {
				labels.Observe(bucket)
			}
		})
	})
}

func TestHTTPRequestsTotal(t *testing.T) {
	t.Run("metric_is_registered", func(t *testing.T) {
		assert.NotNil(t, HTTPRequestsTotal)
	})

	t.Run("counter_has_correct_labels", func(t *testing.T) {
		assert.NotPanics(t, func() {
			HTTPRequestsTotal.WithLabelValues("GET", "/user", "200").Inc()
			HTTPRequestsTotal.WithLabelValues("GET", "/users", "403").Inc()
			HTTPRequestsTotal.WithLabelValues("PUT", "/update", "200").Inc()
			HTTPRequestsTotal.WithLabelValues("DELETE", "/delete", "404").Inc()
		})
	})
}

func TestAuthDecisionsTotal(t *testing.T) {
	t.Run("metric_is_registered", func(t *testing.T) {
		assert.NotNil(t, AuthDecisionsTotal)
	})

	t.Run("counter_tracks_all_gate_outcomes", func(t *testing.T) {
		outcomes := []string{
			"exempt", "token_missing", "token_invalid",
			"identity_not_found", "role_denied", "authorized",
		}

		assert.NotPanics(t, func() {
			for _, outcome := range outcomes {
				AuthDecisionsTotal.WithLabelValues(outcome).Inc()
			}
		})
	})
}

func TestTokensIssuedTotal(t *testing.T) {
	t.Run("metric_is_registered", func(t *testing.T) {
		assert.NotNil(t, TokensIssuedTotal)
	})

	t.Run("counter_increments", func(t *testing.T) {
		assert.NotPanics(t, func() {
			TokensIssuedTotal.Inc()
			TokensIssuedTotal.Add(5)
		})
	})
}

func TestDBMetrics(t *testing.T) {
	t.Run("query_duration_records_observations", func(t *testing.T) {
		operations := []string{"select", "insert", "update", "delete"}

		assert.NotPanics(t, func() {
			for _, op := range operations {
				DBQueryDuration.WithLabelValues(op, "accounts").Observe(0.01)
			}
		})
	})

	t.Run("connection_gauges_track_pool_state", func(t *testing.T) {
		assert.NotPanics(t, func() {
			DBConnectionsOpen.Set(25)
			DBConnectionsInUse.Set(5)
			DBConnectionsIdle.Set(20)
		})
	})
}

func TestMetricsInitialization(t *testing.T) {
	t.Run("all_metrics_are_collectors", func(t *testing.T) {
		collectors := []prometheus.Collector{
			HTTPRequestDuration,
			HTTPRequestsTotal,
			AuthDecisionsTotal,
			TokensIssuedTotal,
			DBQueryDuration,
			DBConnectionsOpen,
			DBConnectionsInUse,
			DBConnectionsIdle,
		}

		for _, c := range collectors {
			assert.NotNil(t, c)
		}
	})
}
