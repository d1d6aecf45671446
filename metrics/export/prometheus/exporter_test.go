package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nimbusapi/authcore/metrics"
)

type registrySource struct {
	registry *metrics.Registry
}

func (s registrySource) MetricsSnapshot() metrics.Snapshot {
	return s.registry.Snapshot()
}

func TestRenderExposition(t *testing.T) {
	r := metrics.NewRegistry()
	r.RecordOperation("login", metrics.OutcomeSuccess, 20*time.Millisecond)
	r.RecordOperation("login", metrics.OutcomeError, 5*time.Millisecond)
	r.RecordOperation("refresh", metrics.OutcomeSuccess, 2*time.Second)

	out := NewExporter(registrySource{r}).Render()

	for _, want := range []string{
		"# TYPE auth_operations_total counter",
		`auth_operations_total{operation="login",status="success"} 1`,
		`auth_operations_total{operation="login",status="error"} 1`,
		`auth_operations_total{operation="refresh",status="success"} 1`,
		"# TYPE auth_operation_duration_seconds histogram",
		`auth_operation_duration_seconds_bucket{operation="refresh",le="+Inf"} 1`,
		`auth_operation_duration_seconds_count{operation="login"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestBucketsAreCumulative(t *testing.T) {
	r := metrics.NewRegistry()
	r.RecordOperation("login", metrics.OutcomeSuccess, 5*time.Millisecond)   // le=0.01
	r.RecordOperation("login", metrics.OutcomeSuccess, 200*time.Millisecond) // le=0.5

	out := NewExporter(registrySource{r}).Render()

	// The 0.5 bucket must include the 0.01 observation.
	if !strings.Contains(out, `auth_operation_duration_seconds_bucket{operation="login",le="0.5"} 2`) {
		t.Errorf("le=0.5 bucket not cumulative:\n%s", out)
	}
	if !strings.Contains(out, `auth_operation_duration_seconds_bucket{operation="login",le="0.01"} 1`) {
		t.Errorf("le=0.01 bucket wrong:\n%s", out)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := metrics.NewRegistry()
	for _, op := range []string{"login", "register", "refresh", "change_password"} {
		r.RecordOperation(op, metrics.OutcomeSuccess, time.Millisecond)
	}
	e := NewExporter(registrySource{r})
	if e.Render() != e.Render() {
		t.Error("two renders of the same snapshot differ")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	r := metrics.NewRegistry()
	r.RecordOperation("login", metrics.OutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	NewExporter(registrySource{r}).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "auth_operations_total") {
		t.Error("body missing counter family")
	}
}
