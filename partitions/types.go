package partitions

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/thoas/go-funk"
)

// Assignments maps partition ID to the keys placed in the partition.
type Assignments map[string][]string

// Assign runs every key through the partitioner and groups the keys by partition ID.
func Assign(p Partitioner, keys []string, numOutputs int) (Assignments, error) {
	plan := PlanForNumberOf(numOutputs)
	as := make(Assignments, len(plan))
	for _, key := range keys {
		idx, err := p.DeterminePartition(&lrdd.Row{Key: key}, len(plan))
		if err != nil {
			return nil, fmt.Errorf("assign %q: %w", key, err)
		}
		id := plan[idx].ID
		as[id] = append(as[id], key)
	}
	return as, nil
}

// Pretty renders the assignments for logging, eliding long key lists.
func (as Assignments) Pretty() (s string) {
	ids := funk.Keys(as).([]string)
	sort.Strings(ids)
	for _, id := range ids {
		keys := append([]string(nil), as[id]...)
		s += fmt.Sprintf("  %s: %s\n", id, strings.Join(ellipsis(keys, 50, 500), ", "))
	}
	return
}

func ellipsis(ss []string, maxElemLen, maxLen int) []string {
	lenSum := 0
	for i, s := range ss {
		if utf8.RuneCountInString(s) > maxElemLen {
			s = string([]rune(s)[:maxElemLen]) + "…"
			ss[i] = s
		}
		lenSum += len(s)
		if lenSum+len(s) > maxLen {
			return append(ss[:i], "…")
		}
	}
	return ss
}
