// Package linkcheck resolves the IRIs a concept graph points at over HTTP:
// concept referents and, optionally, the documents that define the
// concepts and schemes. Requests are rate limited per host.
package linkcheck

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/coolbeans/kmdp/pkg/skos"
)

// Status is the outcome of resolving one link.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusRedirected Status = "redirected"
	StatusBroken     Status = "broken"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
	StatusSkipped    Status = "skipped"
)

// Link is an IRI to resolve together with the concepts and schemes that
// reference it.
type Link struct {
	URI     string   `json:"uri"`
	Sources []string `json:"sources,omitempty"`
}

// Result is the outcome of resolving a Link.
type Result struct {
	URI        string   `json:"uri"`
	Host       string   `json:"host"`
	Status     Status   `json:"status"`
	StatusCode int      `json:"status_code,omitempty"`
	Location   string   `json:"location,omitempty"`
	Error      string   `json:"error,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
	Sources    []string `json:"sources,omitempty"`
}

// OK reports whether the link resolved, directly or through a redirect.
// Skipped links are not failures.
func (r *Result) OK() bool {
	switch r.Status {
	case StatusResolved, StatusRedirected, StatusSkipped:
		return true
	}
	return false
}

// Links collects the referents of every concept in the graph. With
// documents set it also collects the concept and scheme IRIs. IRIs that
// differ only in their fragment name the same document and are merged.
func Links(graph *skos.ConceptGraph, documents bool) []Link {
	var links []Link
	index := make(map[string]int)
	add := func(iri, source string) {
		if iri == "" {
			return
		}
		key := stripFragment(iri)
		i, ok := index[key]
		if !ok {
			i = len(links)
			index[key] = i
			links = append(links, Link{URI: key})
		}
		links[i].Sources = append(links[i].Sources, source)
	}

	for _, scheme := range graph.Schemes() {
		if documents {
			add(scheme.URI, scheme.Name)
		}
		terms := graph.Members(scheme.URI)
		if top, ok := graph.Top(scheme.URI); ok {
			terms = append([]skos.ConceptTerm{top}, terms...)
		}
		for _, term := range terms {
			source := scheme.Name + "/" + term.Tag()
			add(term.Referent, source)
			if documents {
				add(term.URI, source)
			}
		}
	}
	return links
}

func stripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Host
}

// HostStats summarizes the results for one host.
type HostStats struct {
	Host      string `json:"host"`
	Total     int    `json:"total"`
	Resolved  int    `json:"resolved"`
	Failed    int    `json:"failed"`
	AverageMs int64  `json:"average_ms"`
}

// Report is the outcome of a Check.
type Report struct {
	Total      int `json:"total"`
	Resolved   int `json:"resolved"`
	Redirected int `json:"redirected"`
	Broken     int `json:"broken"`
	Timeouts   int `json:"timeouts"`
	Errors     int `json:"errors"`
	Skipped    int `json:"skipped"`

	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`

	Hosts    map[string]*HostStats `json:"hosts"`
	Results  []*Result             `json:"results"`
	Failures []*Result             `json:"failures"`
}

func newReport() *Report {
	return &Report{
		StartedAt: time.Now(),
		Hosts:     make(map[string]*HostStats),
		Results:   []*Result{},
		Failures:  []*Result{},
	}
}

func (r *Report) add(result *Result) {
	r.Results = append(r.Results, result)
	r.Total++

	switch result.Status {
	case StatusResolved:
		r.Resolved++
	case StatusRedirected:
		r.Redirected++
	case StatusBroken:
		r.Broken++
	case StatusTimeout:
		r.Timeouts++
	case StatusError:
		r.Errors++
	case StatusSkipped:
		r.Skipped++
		return
	}
	if !result.OK() {
		r.Failures = append(r.Failures, result)
	}

	stats, ok := r.Hosts[result.Host]
	if !ok {
		stats = &HostStats{Host: result.Host}
		r.Hosts[result.Host] = stats
	}
	stats.AverageMs = (stats.AverageMs*int64(stats.Total) + result.ElapsedMs) / int64(stats.Total+1)
	stats.Total++
	if result.OK() {
		stats.Resolved++
	} else {
		stats.Failed++
	}
}

func (r *Report) finalize() {
	r.DurationMs = time.Since(r.StartedAt).Milliseconds()
	byURI := func(results []*Result) func(i, j int) bool {
		return func(i, j int) bool { return results[i].URI < results[j].URI }
	}
	sort.Slice(r.Results, byURI(r.Results))
	sort.Slice(r.Failures, byURI(r.Failures))
}

// Passed reports whether every checked link resolved.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// SuccessRate is the percentage of checked links that resolved.
func (r *Report) SuccessRate() float64 {
	checked := r.Total - r.Skipped
	if checked == 0 {
		return 100
	}
	return float64(r.Resolved+r.Redirected) / float64(checked) * 100
}

// ToJSON serializes the report.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (r *Result) reason() string {
	if r.Error != "" {
		return r.Error
	}
	if r.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", r.StatusCode)
	}
	return string(r.Status)
}

// ToMarkdown renders the report as Markdown.
func (r *Report) ToMarkdown() string {
	var sb strings.Builder

	sb.WriteString("# Link Resolution Report\n\n")
	fmt.Fprintf(&sb, "- **Links**: %d\n", r.Total)
	fmt.Fprintf(&sb, "- **Resolved**: %d (%d redirected)\n", r.Resolved+r.Redirected, r.Redirected)
	fmt.Fprintf(&sb, "- **Failed**: %d\n", len(r.Failures))
	fmt.Fprintf(&sb, "- **Skipped**: %d\n", r.Skipped)
	fmt.Fprintf(&sb, "- **Success Rate**: %.1f%%\n\n", r.SuccessRate())

	if len(r.Hosts) > 0 {
		sb.WriteString("| Host | Links | Resolved | Failed | Avg Response |\n")
		sb.WriteString("|------|-------|----------|--------|--------------|\n")
		hosts := make([]string, 0, len(r.Hosts))
		for host := range r.Hosts {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)
		for _, host := range hosts {
			s := r.Hosts[host]
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %dms |\n", host, s.Total, s.Resolved, s.Failed, s.AverageMs)
		}
		sb.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		sb.WriteString("| IRI | Status | Reason | Referenced by |\n")
		sb.WriteString("|-----|--------|--------|---------------|\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", f.URI, f.Status, f.reason(), strings.Join(f.Sources, ", "))
		}
	}
	return sb.String()
}

// String returns a plain-text summary.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Links: %d  resolved: %d  redirected: %d  failed: %d  skipped: %d  (%.1f%%, %dms)\n",
		r.Total, r.Resolved, r.Redirected, len(r.Failures), r.Skipped, r.SuccessRate(), r.DurationMs)
	for _, f := range r.Failures {
		fmt.Fprintf(&sb, "  FAIL %s: %s\n", f.URI, f.reason())
		if len(f.Sources) > 0 {
			fmt.Fprintf(&sb, "       referenced by %s\n", strings.Join(f.Sources, ", "))
		}
	}
	return sb.String()
}
