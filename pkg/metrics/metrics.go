// Package metrics exposes Prometheus collectors for graph queries, schema
// cache lookups and submissions.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wikiform"

// Recorder groups the collectors. It satisfies sparql.Observer.
type Recorder struct {
	queries     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cache       *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sparql",
			Name:      "attempts_total",
			Help:      "Graph query attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sparql",
			Name:      "attempt_duration_seconds",
			Help:      "Graph query attempt latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema_cache",
			Name:      "lookups_total",
			Help:      "Schema cache lookups by result.",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submit",
			Name:      "requests_total",
			Help:      "Entity submissions by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if reg == nil {
		return r, nil
	}
	var err error
	if r.queries, err = register(reg, r.queries); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.cache, err = register(reg, r.cache); err != nil {
		return nil, err
	}
	if r.submissions, err = register(reg, r.submissions); err != nil {
		return nil, err
	}
	return r, nil
}

// register adds c to reg, reusing the collector already registered under the
// same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("metrics: register: %w", err)
	}
	return c, nil
}

// MustNew is New that panics on registration failure.
func MustNew(reg prometheus.Registerer) *Recorder {
	r, err := New(reg)
	if err != nil {
		panic(err)
	}
	return r
}

// Collectors returns every collector owned by the recorder.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.queries, r.duration, r.cache, r.submissions}
}

// ObserveQuery records one graph query attempt.
func (r *Recorder) ObserveQuery(outcome string, _ int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveCache records a schema cache lookup ("hit", "miss" or "refresh").
func (r *Recorder) ObserveCache(result string) {
	if r == nil {
		return
	}
	r.cache.WithLabelValues(result).Inc()
}

// ObserveSubmission records one submission round trip.
func (r *Recorder) ObserveSubmission(operation, outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(operation, outcome).Inc()
}
