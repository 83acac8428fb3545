// Package prometheus records pipeline counters with the Prometheus client.
//
// A CLI process is short-lived, so nothing is served over HTTP. The
// registry is written to a node_exporter textfile when a command ends.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
	"github.com/custodia-labs/wrapshake/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "wrapshake"

// Outcome label values.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	posesAccepted   prometheus.Counter
	posesRejected   prometheus.Counter
	atomsMasked     prometheus.Counter
	residuesEvicted prometheus.Counter
	invocations     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// New creates and registers the collectors. Labels are attached to every
// metric, typically the run id.
func New(constLabels prometheus.Labels) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Name: name, Help: help, ConstLabels: constLabels,
		})
	}

	m := &Metrics{
		registry:        prometheus.NewRegistry(),
		posesAccepted:   counter("poses_accepted_total", "Docking poses accepted."),
		posesRejected:   counter("poses_rejected_total", "Docking poses rejected for collision."),
		atomsMasked:     counter("receptor_atoms_masked_total", "Receptor atoms neutralised by masking."),
		residuesEvicted: counter("ligand_residues_evicted_total", "Ligand residues evicted by washing."),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "engine_invocations_total",
			Help:        "External engine invocations by engine and outcome.",
			ConstLabels: constLabels,
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Name:        "engine_duration_seconds",
			Help:        "Wall time of external engine invocations.",
			ConstLabels: constLabels,
			// 1s up to about 18h.
			Buckets: prometheus.ExponentialBuckets(1, 4, 9),
		}, []string{"engine"}),
	}
	m.registry.MustRegister(
		m.posesAccepted,
		m.posesRejected,
		m.atomsMasked,
		m.residuesEvicted,
		m.invocations,
		m.duration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PoseAccepted() {
	m.posesAccepted.Inc()
}

func (m *Metrics) PoseRejected() {
	m.posesRejected.Inc()
}

func (m *Metrics) AtomsMasked(n int) {
	m.atomsMasked.Add(float64(n))
}

func (m *Metrics) ResiduesEvicted(n int) {
	m.residuesEvicted.Add(float64(n))
}

// EngineInvocation counts the invocation by outcome and, when the engine
// actually ran, observes its duration.
func (m *Metrics) EngineInvocation(engine string, d time.Duration, err error) {
	m.invocations.WithLabelValues(engine, Outcome(err)).Inc()
	if d > 0 {
		m.duration.WithLabelValues(engine).Observe(d.Seconds())
	}
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Outcome classifies an invocation error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrEngineTimeout):
		return OutcomeTimeout
	case errors.Is(err, domain.ErrEngineFailed):
		return OutcomeFailed
	default:
		return OutcomeCancelled
	}
}
