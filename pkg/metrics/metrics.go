// Package metrics records counters of generation runs and quality gate
// scores on a private Prometheus registry. Batch runs write the registry
// to a node-exporter textfile; the server exposes it over HTTP.
package metrics

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coolbeans/kmdp/pkg/generate"
	"github.com/coolbeans/kmdp/pkg/validate"
)

const namespace = "kmdp"

// Metrics holds the collectors of a kmdp process.
type Metrics struct {
	registry *prometheus.Registry

	ontologies prometheus.Counter
	schemes    prometheus.Counter
	versions   prometheus.Counter
	concepts   prometheus.Counter
	files      *prometheus.CounterVec // By file extension
	failures   *prometheus.CounterVec // By stage

	gateScores   *prometheus.GaugeVec   // By gate
	gateFailures *prometheus.CounterVec // By gate

	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ontologies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ontologies_loaded_total",
			Help:      "Total number of ontology documents loaded",
		}),
		schemes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schemes_generated_total",
			Help:      "Total number of concept scheme series generated",
		}),
		versions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheme_versions_generated_total",
			Help:      "Total number of concept scheme versions generated",
		}),
		concepts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concepts_generated_total",
			Help:      "Total number of concepts written across scheme versions",
		}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Total number of files written, by extension",
		}, []string{"extension"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Total number of failed runs, by stage",
		}, []string{"stage"}),

		gateScores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_score",
			Help:      "Score of the last quality gate run, by gate",
		}, []string{"gate"}),
		gateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_failures_total",
			Help:      "Total number of failed quality gate checks, by gate",
		}, []string{"gate"}),

		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last generation run in seconds",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful generation run",
		}),
	}

	collectors := []prometheus.Collector{
		m.ontologies, m.schemes, m.versions, m.concepts,
		m.files, m.failures, m.gateScores, m.gateFailures,
		m.runDuration, m.lastSuccess,
	}
	for _, collector := range collectors {
		if err := m.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return m, nil
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOntologies counts loaded ontology documents.
func (m *Metrics) RecordOntologies(n int) {
	m.ontologies.Add(float64(n))
}

// RecordGeneration counts what a generation run produced and marks the run
// as successful.
func (m *Metrics) RecordGeneration(report *generate.Report, started time.Time) {
	m.schemes.Add(float64(report.Schemes))
	m.versions.Add(float64(report.Versions))
	m.concepts.Add(float64(report.Concepts))

	for _, file := range report.Files {
		ext := strings.ToLower(filepath.Ext(file))
		if ext == "" {
			ext = "none"
		}
		m.files.WithLabelValues(ext).Inc()
	}

	now := time.Now()
	m.runDuration.Set(now.Sub(started).Seconds())
	m.lastSuccess.Set(float64(now.Unix()))
}

// RecordGates records the score of every gate that ran and counts the
// failed ones. Skipped gates leave their gauge untouched.
func (m *Metrics) RecordGates(report *validate.Report) {
	for _, result := range report.Results {
		switch result.Status {
		case validate.StatusSkip:
			continue
		case validate.StatusFail:
			m.gateFailures.WithLabelValues(result.Gate).Inc()
		}
		m.gateScores.WithLabelValues(result.Gate).Set(result.Score)
	}
}

// RecordFailure counts a failed run at the given stage (load, abstract,
// validate, generate).
func (m *Metrics) RecordFailure(stage string, started time.Time) {
	m.failures.WithLabelValues(stage).Inc()
	m.runDuration.Set(time.Since(started).Seconds())
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
