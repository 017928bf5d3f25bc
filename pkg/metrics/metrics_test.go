package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/kmdp/pkg/generate"
	"github.com/coolbeans/kmdp/pkg/validate"
)

func sampleReport() *generate.Report {
	return &generate.Report{
		Files: []string{
			"out/colors/v20240101/colors.go",
			"out/colors/v20240101/colors.xsd",
			"out/colors/colors.go",
			"out/catalog.xml",
		},
		Schemes:  1,
		Versions: 2,
		Concepts: 7,
	}
}

func TestRecordGeneration(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	started := time.Now().Add(-2 * time.Second)
	m.RecordOntologies(2)
	m.RecordGeneration(sampleReport(), started)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ontologies))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.versions))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.concepts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.files.WithLabelValues(".go")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues(".xsd")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.files.WithLabelValues(".xml")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.runDuration), 2.0)
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)
}

func TestRecordFailure(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.RecordFailure("abstract", time.Now())
	m.RecordFailure("abstract", time.Now())
	m.RecordFailure("generate", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.failures.WithLabelValues("abstract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("generate")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess))
}

func TestRegistryGathers(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordGeneration(sampleReport(), time.Now())

	count, err := testutil.GatherAndCount(m.Registry(), "kmdp_files_written_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWriteTextfile(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordOntologies(1)
	m.RecordGeneration(sampleReport(), time.Now())

	path := filepath.Join(t.TempDir(), "kmdp.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "# TYPE kmdp_ontologies_loaded_total counter")
	assert.Contains(t, text, "kmdp_ontologies_loaded_total 1")
	assert.Contains(t, text, `kmdp_files_written_total{extension=".go"} 2`)
	assert.True(t, strings.Contains(text, "kmdp_run_duration_seconds"))
}

func TestWriteTextfileBadPath(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "kmdp.prom")))
}

func TestRecordGates(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	report := &validate.Report{Results: []*validate.Result{
		{Gate: "schemes", Status: validate.StatusPass, Score: 1},
		{Gate: "tags", Status: validate.StatusFail, Score: 0.5},
		{Gate: "closure", Status: validate.StatusSkip, Score: 1},
	}}
	m.RecordGates(report)
	m.RecordGates(report)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateScores.WithLabelValues("schemes")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.gateScores.WithLabelValues("tags")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateFailures.WithLabelValues("tags")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.gateScores), "skipped gates are not recorded")
}
