package metric

import (
	"fmt"
	"sort"

	"github.com/thoas/go-funk"
)

// Names of the metrics recorded during a run.
const (
	InputRows       = "InputRows"
	Groups          = "Groups"
	Rows            = "Rows"
	Files           = "Files"
	OversizedChunks = "OversizedChunks"
)

// Metrics is a snapshot of the recorded metrics.
type Metrics map[string]uint64

func (m Metrics) String() string {
	keys := funk.Keys(m).([]string)
	sort.Strings(keys)

	metricLogs := ""
	for _, key := range keys {
		metricLogs += fmt.Sprintf(" - %s: %d\n", key, m[key])
	}
	return metricLogs
}
