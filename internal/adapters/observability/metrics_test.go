package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"venue_reputation/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "venue_http_requests_total") {
		t.Fatalf("expected venue_http_requests_total in output")
	}
}

func TestMetrics_DomainCounters(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveInsight("generated")
	observability.ObserveDenied("menu.update")
	observability.ObserveBreaker("gemini", "closed", "open", 2)

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	out := rr.Body.String()
	for _, want := range []string{
		`venue_insight_results_total{result="generated"}`,
		`venue_ownership_denials_total{op="menu.update"}`,
		`venue_circuit_breaker_state{service="gemini"} 2`,
		`venue_circuit_breaker_transitions_total{from="closed",service="gemini",to="open"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in metrics output", want)
		}
	}
}
