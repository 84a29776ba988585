package metric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_String(t *testing.T) {
	m := Metrics{
		"a": 1,
		"b": 2,
		"c": 3,
	}

	require.Equal(
		t,
		m.String(),
		` - a: 1
 - b: 2
 - c: 3
`,
	)
}

func TestRepository(t *testing.T) {
	r := NewRepository()
	r.AddMetric(Rows, 3)
	r.AddMetric(Rows, 4)
	r.SetMetric(Files, 2)
	r.SetMetric(Files, 5)

	require.Equal(t, Metrics{Rows: 7, Files: 5}, r.Collect())
}

func TestCollectors_WriteToTextfile(t *testing.T) {
	c := NewCollectors()
	c.Rows.Add(10)
	c.Files.Inc()
	require.Equal(t, float64(10), testutil.ToFloat64(c.Rows))

	path := filepath.Join(t.TempDir(), "tsvchunk.prom")
	require.NoError(t, c.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "tsvchunk_rows_written_total 10")
	require.Contains(t, string(data), "tsvchunk_files_written_total 1")
}

func TestCollectors_Values(t *testing.T) {
	c := NewCollectors()
	c.Groups.Add(4)
	c.OversizedChunks.Inc()
	c.FlushDuration.Observe(0.5)
	c.FlushDuration.Observe(1.5)

	values, err := c.Values()
	require.NoError(t, err)
	require.Equal(t, float64(4), values["tsvchunk_groups_total"])
	require.Equal(t, float64(1), values["tsvchunk_oversized_chunks_total"])
	require.Equal(t, float64(0), values["tsvchunk_rows_written_total"])
	require.Equal(t, float64(2), values["tsvchunk_flush_duration_seconds"])
}
