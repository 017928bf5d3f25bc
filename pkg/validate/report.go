package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

// Report aggregates the results of one run.
type Report struct {
	Source      string        `json:"source,omitempty"`
	Passed      bool          `json:"passed"`
	Score       float64       `json:"score"`
	PassedGates int           `json:"gates_passed"`
	FailedGates int           `json:"gates_failed"`
	Skipped     int           `json:"gates_skipped"`
	HaltedAt    string        `json:"halted_at,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	Results     []*Result     `json:"results"`
}

// Result returns the result of the named gate.
func (r *Report) Result(gate string) (*Result, bool) {
	i := slices.IndexFunc(r.Results, func(res *Result) bool { return res.Gate == gate })
	if i < 0 {
		return nil, false
	}
	return r.Results[i], true
}

// Verdict is PASS or FAIL.
func (r *Report) Verdict() string {
	if r.Passed {
		return "PASS"
	}
	return "FAIL"
}

// JSON returns the indented JSON form.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText writes a plain-text report with one aligned block per gate.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Quality gates: %s\n", r.Verdict())
	if r.Source != "" {
		fmt.Fprintf(tw, "Source: %s\n", r.Source)
	}
	fmt.Fprintln(tw)

	for _, res := range r.Results {
		fmt.Fprintf(tw, "[%s]\t%s\t%.1f%%\t%s\n", label(res.Status), res.Gate, res.Score*100, res.Elapsed.Round(time.Microsecond))
		if res.SkipReason != "" {
			fmt.Fprintf(tw, "\t%s\n", res.SkipReason)
		}
		for _, metric := range sortedKeys(res.Metrics) {
			fmt.Fprintf(tw, "\t%s\t%.1f%%\n", metric, res.Metrics[metric]*100)
		}
		for _, f := range res.Findings {
			fmt.Fprintf(tw, "\t%s\t%s: %s\n", strings.ToUpper(string(f.Level)), f.Metric, f.Message)
		}
	}

	fmt.Fprintf(tw, "\n%d passed, %d failed, %d skipped; score %.1f%%\n", r.PassedGates, r.FailedGates, r.Skipped, r.Score*100)
	if r.HaltedAt != "" {
		fmt.Fprintf(tw, "Halted at %s\n", r.HaltedAt)
	}
	return tw.Flush()
}

func (r *Report) String() string {
	var sb strings.Builder
	_ = r.WriteText(&sb)
	return sb.String()
}

// Markdown renders the report for CI job summaries.
func (r *Report) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Quality gates: %s\n\n", r.Verdict())
	if r.Source != "" {
		fmt.Fprintf(&sb, "Source: `%s`\n\n", r.Source)
	}

	sb.WriteString("| Gate | Status | Score | Findings |\n|---|---|---|---|\n")
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "| %s | %s | %.1f%% | %d |\n", res.Gate, label(res.Status), res.Score*100, len(res.Findings))
	}

	for _, res := range r.Results {
		if len(res.Findings) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n\n", res.Gate)
		for _, f := range res.Findings {
			level := string(f.Level)
			if f.Level == LevelError {
				level = "**error**"
			}
			fmt.Fprintf(&sb, "- %s `%s`: %s\n", level, f.Metric, f.Message)
		}
	}

	if r.HaltedAt != "" {
		fmt.Fprintf(&sb, "\nHalted at `%s`.\n", r.HaltedAt)
	}
	return sb.String()
}

func label(s Status) string {
	return strings.ToUpper(string(s))
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
