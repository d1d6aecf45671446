// Package prometheus renders auth metrics in the Prometheus text exposition
// format without importing the Prometheus client.
package prometheus

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/nimbusapi/authcore/metrics"
)

// Source is anything that can produce a metrics snapshot, typically the
// auth service.
type Source interface {
	MetricsSnapshot() metrics.Snapshot
}

// Exporter renders a Source's snapshot on demand.
type Exporter struct {
	source Source
}

// NewExporter wraps a snapshot source.
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Render produces the full exposition for the current snapshot. Output is
// deterministic: series are sorted by operation and outcome.
func (e *Exporter) Render() string {
	snap := e.source.MetricsSnapshot()
	var b strings.Builder

	b.WriteString("# HELP auth_operations_total Total auth operations by operation and status.\n")
	b.WriteString("# TYPE auth_operations_total counter\n")
	for _, operation := range sortedKeys(snap.Counters) {
		byOutcome := snap.Counters[operation]
		for _, outcome := range sortedKeys(byOutcome) {
			fmt.Fprintf(&b, "auth_operations_total{operation=%q,status=%q} %d\n",
				operation, outcome, byOutcome[outcome])
		}
	}

	b.WriteString("# HELP auth_operation_duration_seconds Auth operation latency in seconds.\n")
	b.WriteString("# TYPE auth_operation_duration_seconds histogram\n")
	for _, operation := range sortedKeys(snap.Durations) {
		h := snap.Durations[operation]
		var cumulative uint64
		for i, le := range metrics.Buckets {
			cumulative += h.Buckets[i]
			fmt.Fprintf(&b, "auth_operation_duration_seconds_bucket{operation=%q,le=\"%g\"} %d\n",
				operation, le, cumulative)
		}
		fmt.Fprintf(&b, "auth_operation_duration_seconds_bucket{operation=%q,le=\"+Inf\"} %d\n",
			operation, h.Count)
		fmt.Fprintf(&b, "auth_operation_duration_seconds_sum{operation=%q} %g\n",
			operation, h.SumSeconds)
		fmt.Fprintf(&b, "auth_operation_duration_seconds_count{operation=%q} %d\n",
			operation, h.Count)
	}

	return b.String()
}

// Handler serves the exposition over HTTP.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
