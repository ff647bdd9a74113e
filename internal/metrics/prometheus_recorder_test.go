package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveOperation("GetFleet", 150*time.Millisecond, OutcomeSuccess)
	pr.ObserveOperation("GetContracts", 20*time.Millisecond, OutcomeFailed)
	pr.IncRequest("system_waypoints", true)
	pr.IncAction("dock", false)
	pr.SetCollectionSize("ships", 3)
	pr.SetActionBacklog(2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
	if got := testutil.ToFloat64(pr.operationResults.WithLabelValues("GetContracts", "failed")); got != 1 {
		t.Fatalf("failed contracts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.collectionSize.WithLabelValues("ships")); got != 3 {
		t.Fatalf("ships gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(pr.actionBacklog); got != 2 {
		t.Fatalf("backlog = %v, want 2", got)
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveOperation("GetFleet", time.Second, OutcomeSuccess)
	pr.IncAction("dock", true)
	pr.SetActionBacklog(1)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncAction("navigate", true)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `cyanfleet_actions_total{action="navigate",result="success"} 1`) {
		t.Fatalf("metrics body missing action counter:\n%s", rec.Body.String())
	}
}
