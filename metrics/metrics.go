// Package metrics collects per-operation counters and duration histograms
// for the auth flows. The in-process Registry is the default Recorder; the
// export subpackages adapt it to Prometheus text exposition and OpenTelemetry.
package metrics

import (
	"sync"
	"time"
)

// Outcome labels attached to every observation.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder receives exactly one observation per auth operation invocation,
// on every exit path.
type Recorder interface {
	RecordOperation(operation, outcome string, elapsed time.Duration)
}

// Nop discards all observations.
type Nop struct{}

func (Nop) RecordOperation(string, string, time.Duration) {}

// Buckets are the histogram upper bounds in seconds. The +Inf bucket is
// implicit.
var Buckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5}

// Registry is a Recorder backed by in-process maps, safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]map[string]uint64
	histograms map[string]*histogram
}

type histogram struct {
	buckets    []uint64 // len(Buckets)+1, last is +Inf
	count      uint64
	sumSeconds float64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]map[string]uint64),
		histograms: make(map[string]*histogram),
	}
}

func (r *Registry) RecordOperation(operation, outcome string, elapsed time.Duration) {
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byOutcome := r.counters[operation]
	if byOutcome == nil {
		byOutcome = make(map[string]uint64)
		r.counters[operation] = byOutcome
	}
	byOutcome[outcome]++

	h := r.histograms[operation]
	if h == nil {
		h = &histogram{buckets: make([]uint64, len(Buckets)+1)}
		r.histograms[operation] = h
	}
	idx := len(Buckets)
	for i, le := range Buckets {
		if seconds <= le {
			idx = i
			break
		}
	}
	h.buckets[idx]++
	h.count++
	h.sumSeconds += seconds
}

// HistogramSnapshot is a point-in-time copy of one operation's durations.
// Buckets are per-bucket counts, not cumulative; the last entry is +Inf.
type HistogramSnapshot struct {
	Buckets    []uint64
	Count      uint64
	SumSeconds float64
}

// Snapshot is a point-in-time copy of the registry.
type Snapshot struct {
	// Counters maps operation -> outcome -> count.
	Counters map[string]map[string]uint64
	// Durations maps operation -> histogram.
	Durations map[string]HistogramSnapshot
}

// Snapshot copies the current state. The result shares no memory with the
// registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Counters:  make(map[string]map[string]uint64, len(r.counters)),
		Durations: make(map[string]HistogramSnapshot, len(r.histograms)),
	}
	for operation, byOutcome := range r.counters {
		copied := make(map[string]uint64, len(byOutcome))
		for outcome, count := range byOutcome {
			copied[outcome] = count
		}
		snap.Counters[operation] = copied
	}
	for operation, h := range r.histograms {
		buckets := make([]uint64, len(h.buckets))
		copy(buckets, h.buckets)
		snap.Durations[operation] = HistogramSnapshot{
			Buckets:    buckets,
			Count:      h.count,
			SumSeconds: h.sumSeconds,
		}
	}
	return snap
}
