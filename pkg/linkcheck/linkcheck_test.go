package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/ontology"
	"github.com/coolbeans/kmdp/pkg/skos"
)

type site struct {
	*httptest.Server
	okHits    atomic.Int32
	flakyHits atomic.Int32
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		s.okHits.Add(1)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/see", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusSeeOther)
	})
	mux.HandleFunc("/nohead", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if s.flakyHits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("/rdf", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/turtle" {
			w.WriteHeader(http.StatusNotAcceptable)
		}
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testConfig() Config {
	return Config{Timeout: 2 * time.Second, Retries: 1, Concurrency: 2, Accept: "text/turtle"}
}

func byURI(report *Report) map[string]*Result {
	out := make(map[string]*Result, len(report.Results))
	for _, r := range report.Results {
		out[r.URI] = r
	}
	return out
}

func TestCheck(t *testing.T) {
	s := newSite(t)
	links := []Link{
		{URI: s.URL + "/ok", Sources: []string{"Colors/red"}},
		{URI: s.URL + "/gone", Sources: []string{"Colors/blue"}},
		{URI: s.URL + "/see"},
		{URI: s.URL + "/nohead"},
		{URI: s.URL + "/flaky"},
		{URI: s.URL + "/rdf"},
		{URI: "urn:isbn:0451450523"},
	}

	report, err := NewChecker(testConfig(), nil, nil).Check(context.Background(), links)
	require.NoError(t, err)

	results := byURI(report)
	assert.Equal(t, StatusResolved, results[s.URL+"/ok"].Status)
	assert.Equal(t, []string{"Colors/red"}, results[s.URL+"/ok"].Sources)

	assert.Equal(t, StatusBroken, results[s.URL+"/gone"].Status)
	assert.Equal(t, http.StatusNotFound, results[s.URL+"/gone"].StatusCode)

	assert.Equal(t, StatusRedirected, results[s.URL+"/see"].Status)
	assert.Equal(t, "/ok", results[s.URL+"/see"].Location)

	assert.Equal(t, StatusResolved, results[s.URL+"/nohead"].Status, "falls back to GET")
	assert.Equal(t, StatusResolved, results[s.URL+"/flaky"].Status, "retried after 503")
	assert.EqualValues(t, 2, s.flakyHits.Load())
	assert.Equal(t, StatusResolved, results[s.URL+"/rdf"].Status, "sends the Accept header")
	assert.Equal(t, StatusSkipped, results["urn:isbn:0451450523"].Status)

	assert.Equal(t, 7, report.Total)
	assert.Equal(t, 4, report.Resolved)
	assert.Equal(t, 1, report.Redirected)
	assert.Equal(t, 1, report.Broken)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, s.URL+"/gone", report.Failures[0].URI)
	assert.False(t, report.Passed())
	assert.InDelta(t, 83.3, report.SuccessRate(), 0.1)

	host := report.Hosts[hostOf(s.URL)]
	require.NotNil(t, host)
	assert.Equal(t, 6, host.Total)
	assert.Equal(t, 1, host.Failed)
}

func TestCheck_Timeout(t *testing.T) {
	s := newSite(t)
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.Retries = 0

	report, err := NewChecker(cfg, nil, nil).Check(context.Background(), []Link{{URI: s.URL + "/slow"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusTimeout, report.Results[0].Status)
	assert.Equal(t, 1, report.Timeouts)
}

func TestCheck_CachesResults(t *testing.T) {
	s := newSite(t)
	checker := NewChecker(testConfig(), nil, nil)

	_, err := checker.Check(context.Background(), []Link{{URI: s.URL + "/ok", Sources: []string{"a"}}})
	require.NoError(t, err)
	report, err := checker.Check(context.Background(), []Link{{URI: s.URL + "/ok", Sources: []string{"b"}}})
	require.NoError(t, err)

	assert.EqualValues(t, 1, s.okHits.Load())
	assert.Equal(t, []string{"b"}, report.Results[0].Sources)
}

func TestCheck_SkipHosts(t *testing.T) {
	s := newSite(t)
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.SkipHosts = []string{u.Host}

	report, err := NewChecker(cfg, nil, nil).Check(context.Background(), []Link{{URI: s.URL + "/gone"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.Passed())
	assert.EqualValues(t, 100, report.SuccessRate())
}

func TestCheck_RateLimitsPerHost(t *testing.T) {
	s := newSite(t)
	cfg := testConfig()
	cfg.Interval = 100 * time.Millisecond

	started := time.Now()
	_, err := NewChecker(cfg, nil, nil).Check(context.Background(), []Link{
		{URI: s.URL + "/ok"}, {URI: s.URL + "/rdf"}, {URI: s.URL + "/nohead"},
	})
	require.NoError(t, err)
	// /nohead costs two requests: four requests need three intervals.
	assert.GreaterOrEqual(t, time.Since(started), 280*time.Millisecond)
}

func TestCheck_Cancelled(t *testing.T) {
	s := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecker(testConfig(), nil, nil).Check(ctx, []Link{{URI: s.URL + "/ok"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinks(t *testing.T) {
	ont, err := ontology.NewLoader(nil).LoadFile("../ontology/testdata/colors.rdf")
	require.NoError(t, err)
	graph, err := skos.NewAbstractor(skos.DefaultAbstractionConfig(), nil).Abstract(ont)
	require.NoError(t, err)

	referents := Links(graph, false)
	require.Len(t, referents, 1)
	assert.Equal(t, "https://example.org/referents/red", referents[0].URI)
	require.Len(t, referents[0].Sources, 1)
	assert.Contains(t, referents[0].Sources[0], "Colors/")

	all := Links(graph, true)
	uris := make([]string, len(all))
	for i, link := range all {
		uris[i] = link.URI
	}
	assert.ElementsMatch(t, []string{"https://example.org/taxonomy/colors", "https://example.org/referents/red"}, uris)
	for _, link := range all {
		if link.URI == "https://example.org/taxonomy/colors" {
			assert.Len(t, link.Sources, 4, "scheme and its three concepts")
			assert.Contains(t, link.Sources, "Colors")
		}
	}
}

func TestReport_Rendering(t *testing.T) {
	report := newReport()
	report.add(&Result{URI: "https://a.example/x", Host: "a.example", Status: StatusResolved, StatusCode: 200, ElapsedMs: 10})
	report.add(&Result{URI: "https://a.example/y", Host: "a.example", Status: StatusBroken, StatusCode: 410, ElapsedMs: 30, Sources: []string{"Colors/red"}})
	report.finalize()

	assert.EqualValues(t, 20, report.Hosts["a.example"].AverageMs)

	md := report.ToMarkdown()
	assert.Contains(t, md, "# Link Resolution Report")
	assert.Contains(t, md, "| a.example | 2 | 1 | 1 | 20ms |")
	assert.Contains(t, md, "| https://a.example/y | broken | HTTP 410 | Colors/red |")

	text := report.String()
	assert.Contains(t, text, "FAIL https://a.example/y: HTTP 410")
	assert.Contains(t, text, "referenced by Colors/red")

	data, err := report.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"failures"`)
}
