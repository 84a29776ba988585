package tsvchunk

import (
	"time"

	"github.com/ab180/tsvchunk/metric"
	"github.com/samber/lo"
)

// FlushedFile describes an output file and the groups placed into it.
type FlushedFile struct {
	Index     int      `json:"index" yaml:"index"`
	Path      string   `json:"path" yaml:"path"`
	Rows      int      `json:"rows" yaml:"rows"`
	Keys      []string `json:"keys" yaml:"keys"`
	Oversized bool     `json:"oversized,omitempty" yaml:"oversized,omitempty"`
}

// Result is the outcome of a planner run.
type Result struct {
	RunID    string         `json:"runId" yaml:"runId"`
	IDColumn string         `json:"idColumn" yaml:"idColumn"`
	MaxRows  int            `json:"maxRows" yaml:"maxRows"`
	Files    []FlushedFile  `json:"files" yaml:"files"`
	Metrics  metric.Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Elapsed  time.Duration  `json:"elapsed" yaml:"elapsed"`
}

// TotalRows returns the number of rows written to every file.
func (r *Result) TotalRows() int {
	return lo.SumBy(r.Files, func(f FlushedFile) int { return f.Rows })
}

// Assignments returns the output file index of each identifier value.
func (r *Result) Assignments() map[string]int {
	assigned := make(map[string]int)
	for _, f := range r.Files {
		for _, k := range f.Keys {
			assigned[k] = f.Index
		}
	}
	return assigned
}
