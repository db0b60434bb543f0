package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTP(reg)

	m.Observe("GET", "/api/accommodations/{id}", 200, 15*time.Millisecond)
	m.Observe("GET", "/api/accommodations/{id}", 200, 5*time.Millisecond)
	m.Observe("GET", "/api/accommodations/{id}", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/accommodations/{id}", "200")); got != 2 {
		t.Fatalf("expected 2 successful requests, got %v", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 1 {
		t.Fatalf("expected one latency series, got %d", got)
	}
}
