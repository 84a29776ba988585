package partitions

import (
	"errors"
	"strconv"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/segmentio/fasthash/fnv1a"
	"go.uber.org/atomic"
)

// ErrNoOutput is returned by Partitioner.DeterminePartition when there's no
// corresponding partition found with the key of given row.
var ErrNoOutput = errors.New("no output")

// Partitioner decides which of the numOutputs partitions a row belongs to.
type Partitioner interface {
	DeterminePartition(r *lrdd.Row, numOutputs int) (int, error)
}

// Partition describes one of the partitions planned for a stage.
type Partition struct {
	ID    string
	Index int
}

// PlanForNumberOf creates n partitions, using its index number for each partition's ID.
func PlanForNumberOf(n int) []Partition {
	if n < 1 {
		n = 1
	}
	pp := make([]Partition, n)
	for i := 0; i < n; i++ {
		pp[i] = Partition{
			ID:    strconv.Itoa(i),
			Index: i,
		}
	}
	return pp
}

type hashKeyPartitioner struct{}

// NewHashKeyPartitioner returns a partitioner which sends rows with the same key
// to the same partition.
func NewHashKeyPartitioner() Partitioner {
	return &hashKeyPartitioner{}
}

func (h *hashKeyPartitioner) DeterminePartition(r *lrdd.Row, numOutputs int) (int, error) {
	// uses Fowler–Noll–Vo hash to determine output shard
	slot := fnv1a.HashString64(r.Key) % uint64(numOutputs)
	return int(slot), nil
}

// ShuffledPartitioner distributes rows evenly in round-robin manner, regardless of their keys.
type ShuffledPartitioner struct {
	sentRows atomic.Uint64
}

func NewShuffledPartitioner() Partitioner {
	return &ShuffledPartitioner{}
}

func (s *ShuffledPartitioner) DeterminePartition(_ *lrdd.Row, numOutputs int) (int, error) {
	slot := (s.sentRows.Inc() - 1) % uint64(numOutputs)
	return int(slot), nil
}

// FiniteKeyPartitioner assigns a predefined set of keys to the partitions.
// Rows with unknown keys are rejected with ErrNoOutput.
type FiniteKeyPartitioner struct {
	KeyToIndex map[string]int
}

// NewContiguousKeyPartitioner splits keys into numOutputs runs of consecutive keys,
// so that concatenating the partitions in order lists the keys in their given order.
func NewContiguousKeyPartitioner(keys []string, numOutputs int) Partitioner {
	if numOutputs < 1 {
		numOutputs = 1
	}
	keyToIndex := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, ok := keyToIndex[k]; !ok {
			keyToIndex[k] = i * numOutputs / len(keys)
		}
	}
	return &FiniteKeyPartitioner{keyToIndex}
}

func (f *FiniteKeyPartitioner) DeterminePartition(r *lrdd.Row, numOutputs int) (int, error) {
	idx, ok := f.KeyToIndex[r.Key]
	if !ok {
		return 0, ErrNoOutput
	}
	return idx % numOutputs, nil
}
