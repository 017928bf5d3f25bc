// Package validate runs quality gates over concept graphs before code is
// generated from them. A gate measures metrics in [0, 1]; the runner scores
// them against thresholds that can be overridden per gate and metric.
package validate

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coolbeans/kmdp/pkg/skos"
)

// Gate measures one aspect of a concept graph. Check records metrics and
// subject-level findings on the sheet; scoring is left to the Runner.
type Gate interface {
	Name() string
	Defaults() map[string]float64
	Check(in *Input, sheet *Sheet)
}

// conditional is implemented by gates that only apply to some inputs.
type conditional interface {
	Applies(in *Input) (reason string, ok bool)
}

// Input is the graph under validation.
type Input struct {
	Graph  *skos.ConceptGraph
	Source string

	// RequireClosure enables the closure gate.
	RequireClosure bool
}

// Options configures a Runner.
type Options struct {
	// Thresholds overrides gate defaults, keyed "gate.metric".
	Thresholds map[string]float64
	Skip       []string

	// Strict stops the run at the first failing gate.
	Strict bool
	// FailOnWarn stops the run at the first gate with a warning.
	FailOnWarn bool

	// Margin is how far above its threshold a metric still warns. Zero
	// means DefaultMargin.
	Margin float64
}

// DefaultMargin is the relative warning band above a threshold.
const DefaultMargin = 0.1

// Level grades a finding.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Finding is one problem a gate found.
type Finding struct {
	Level   Level   `json:"level"`
	Metric  string  `json:"metric"`
	Subject string  `json:"subject,omitempty"`
	Message string  `json:"message"`
	Value   float64 `json:"value,omitempty"`
}

// Sheet collects what a gate measured.
type Sheet struct {
	metrics  map[string]float64
	findings []Finding
	counts   map[string]int
}

// maxFindings caps the subject-level findings kept per metric.
const maxFindings = 10

// Measure records a metric.
func (s *Sheet) Measure(metric string, value float64) {
	s.metrics[metric] = value
}

// Fail records an error about subject. Past maxFindings per metric the
// error is counted but not kept.
func (s *Sheet) Fail(metric, subject, format string, args ...any) {
	s.add(Finding{Level: LevelError, Metric: metric, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Warn records a warning about subject.
func (s *Sheet) Warn(metric, subject, format string, args ...any) {
	s.add(Finding{Level: LevelWarning, Metric: metric, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (s *Sheet) add(f Finding) {
	key := string(f.Level) + "/" + f.Metric
	s.counts[key]++
	if s.counts[key] <= maxFindings {
		s.findings = append(s.findings, f)
	}
}

// Status is the outcome of a gate.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the scored outcome of one gate.
type Result struct {
	Gate       string             `json:"gate"`
	Status     Status             `json:"status"`
	Score      float64            `json:"score"`
	Metrics    map[string]float64 `json:"metrics"`
	Findings   []Finding          `json:"findings,omitempty"`
	SkipReason string             `json:"skip_reason,omitempty"`
	Elapsed    time.Duration      `json:"elapsed"`
}

// Passed reports whether the gate passed or was skipped.
func (r *Result) Passed() bool { return r.Status != StatusFail }

// Errors returns the error findings.
func (r *Result) Errors() []Finding { return r.filter(LevelError) }

// Warnings returns the warning findings.
func (r *Result) Warnings() []Finding { return r.filter(LevelWarning) }

func (r *Result) filter(level Level) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Level == level {
			out = append(out, f)
		}
	}
	return out
}

// Runner executes gates in order.
type Runner struct {
	gates   []Gate
	options Options
	logger  *slog.Logger
}

// NewRunner creates a runner for the given gates.
func NewRunner(options Options, logger *slog.Logger, gates ...Gate) *Runner {
	if options.Margin == 0 {
		options.Margin = DefaultMargin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{gates: gates, options: options, logger: logger}
}

// DefaultGates returns the scheme, hierarchy, tag and closure gates.
func DefaultGates() []Gate {
	return []Gate{SchemeGate{}, HierarchyGate{}, TagGate{}, ClosureGate{}}
}

// NewDefaultRunner creates a runner over DefaultGates.
func NewDefaultRunner(options Options, logger *slog.Logger) *Runner {
	return NewRunner(options, logger, DefaultGates()...)
}

// Run executes every gate and aggregates the results.
func (r *Runner) Run(in *Input) *Report {
	started := time.Now()
	report := &Report{Source: in.Source, Results: make([]*Result, 0, len(r.gates)), Passed: true}

	for _, gate := range r.gates {
		result := r.execute(gate, in)
		report.Results = append(report.Results, result)

		switch result.Status {
		case StatusSkip:
			report.Skipped++
			continue
		case StatusPass:
			report.PassedGates++
		case StatusFail:
			report.FailedGates++
			report.Passed = false
		}

		if result.Status == StatusFail && r.options.Strict {
			report.HaltedAt = gate.Name()
			break
		}
		if r.options.FailOnWarn && len(result.Warnings()) > 0 {
			report.Passed = false
			report.HaltedAt = gate.Name()
			break
		}
	}

	scored := 0
	for _, result := range report.Results {
		if result.Status != StatusSkip {
			report.Score += result.Score
			scored++
		}
	}
	if scored > 0 {
		report.Score /= float64(scored)
	}
	report.Elapsed = time.Since(started)

	r.logger.Debug("Quality gates finished",
		"source", in.Source, "passed", report.Passed, "score", report.Score, "halted_at", report.HaltedAt)
	return report
}

// RunOne executes the named gate, reporting false when it is not registered.
func (r *Runner) RunOne(name string, in *Input) (*Result, bool) {
	for _, gate := range r.gates {
		if gate.Name() == name {
			return r.execute(gate, in), true
		}
	}
	return nil, false
}

func (r *Runner) execute(gate Gate, in *Input) *Result {
	started := time.Now()
	result := &Result{Gate: gate.Name(), Metrics: map[string]float64{}}

	if r.skipped(gate.Name()) {
		result.Status, result.Score, result.SkipReason = StatusSkip, 1, "skipped by configuration"
		return result
	}
	if c, ok := gate.(conditional); ok {
		if reason, applies := c.Applies(in); !applies {
			result.Status, result.Score, result.SkipReason = StatusSkip, 1, reason
			return result
		}
	}

	sheet := &Sheet{metrics: result.Metrics, counts: map[string]int{}}
	gate.Check(in, sheet)
	result.Findings = sheet.findings
	r.score(gate, result)
	result.Elapsed = time.Since(started)

	r.logger.Debug("Gate checked", "gate", result.Gate, "status", result.Status, "score", result.Score)
	return result
}

// score averages the metrics and turns each miss into an error finding.
// A metric less than Margin above its threshold warns unless it is perfect.
func (r *Runner) score(gate Gate, result *Result) {
	failed := len(result.Errors()) > 0 && len(result.Metrics) == 0
	if len(result.Metrics) == 0 {
		result.Score = 1
	}

	for _, metric := range sortedKeys(result.Metrics) {
		value := result.Metrics[metric]
		threshold := r.threshold(gate, metric)
		result.Score += value / float64(len(result.Metrics))

		switch {
		case value < threshold:
			failed = true
			result.Findings = append(result.Findings, Finding{
				Level:   LevelError,
				Metric:  metric,
				Message: fmt.Sprintf("%s is %.1f%%, below the %.1f%% threshold", metric, value*100, threshold*100),
				Value:   value,
			})
		case value < min(threshold*(1+r.options.Margin), 1):
			result.Findings = append(result.Findings, Finding{
				Level:   LevelWarning,
				Metric:  metric,
				Message: fmt.Sprintf("%s is %.1f%%, near the %.1f%% threshold", metric, value*100, threshold*100),
				Value:   value,
			})
		}
	}

	result.Status = StatusPass
	if failed {
		result.Status = StatusFail
	}
}

func (r *Runner) threshold(gate Gate, metric string) float64 {
	if t, ok := r.options.Thresholds[gate.Name()+"."+metric]; ok {
		return t
	}
	if t, ok := gate.Defaults()[metric]; ok {
		return t
	}
	return 1
}

func (r *Runner) skipped(name string) bool {
	for _, s := range r.options.Skip {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// fraction returns part/whole, or 1 for an empty whole.
func fraction(part, whole int) float64 {
	if whole == 0 {
		return 1
	}
	return float64(part) / float64(whole)
}
