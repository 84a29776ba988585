package metric

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Collectors exports run metrics in Prometheus format. Collectors are registered
// on their own registry, so that a run can be written out as a textfile.
type Collectors struct {
	Registry *prometheus.Registry

	InputRows       prometheus.Counter
	Groups          prometheus.Counter
	Rows            prometheus.Counter
	Files           prometheus.Counter
	OversizedChunks prometheus.Counter
	FlushDuration   prometheus.Histogram
}

func NewCollectors() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		InputRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsvchunk_input_rows_total",
			Help: "The number of rows loaded from the input table",
		}),
		Groups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsvchunk_groups_total",
			Help: "The number of identifier groups placed into chunks",
		}),
		Rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsvchunk_rows_written_total",
			Help: "The number of rows written to output files",
		}),
		Files: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsvchunk_files_written_total",
			Help: "The number of output files flushed",
		}),
		OversizedChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsvchunk_oversized_chunks_total",
			Help: "The number of chunks holding a single group larger than the row cap",
		}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tsvchunk_flush_duration_seconds",
			Help:    "Time taken to write and consolidate a chunk",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	c.Registry.MustRegister(c.InputRows, c.Groups, c.Rows, c.Files, c.OversizedChunks, c.FlushDuration)
	return c
}

// WriteToTextfile writes the metrics in the text exposition format, which can
// be picked up by node_exporter's textfile collector.
func (c *Collectors) WriteToTextfile(path string) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, c.Registry), "write metrics")
}

// Values gathers counters and returns their values by metric name. Histograms
// are reported by their sample count.
func (c *Collectors) Values() (map[string]float64, error) {
	families, err := c.Registry.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "gather metrics")
	}
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				values[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return values, nil
}
