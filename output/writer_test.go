package output

import (
	"testing"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/partitions"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	outs := []*outputMock{{}, {}}
	w := NewWriter(partitions.NewContiguousKeyPartitioner([]string{"a", "b"}, 2), []Output{outs[0], outs[1]})

	rows := lrdd.From(0,
		[]string{"a", "1"},
		[]string{"b", "2"},
		[]string{"a", "3"},
	)
	require.NoError(t, w.Write(rows...))
	require.Equal(t, []*lrdd.Row{rows[0], rows[2]}, outs[0].Rows)
	require.Equal(t, []*lrdd.Row{rows[1]}, outs[1].Rows)

	require.NoError(t, w.Close())
	require.Equal(t, 1, outs[0].Calls.Close)
	require.Equal(t, 1, outs[1].Calls.Close)
}

func TestWriter_UnknownKey(t *testing.T) {
	w := NewWriter(partitions.NewContiguousKeyPartitioner([]string{"a"}, 1), []Output{&outputMock{}})

	err := w.Write(lrdd.KeyValue("z", "z"))
	require.ErrorIs(t, err, partitions.ErrNoOutput)
}

func TestComposedOutput(t *testing.T) {
	m := &outputMock{}
	c := NewCounter()
	out := NewComposed(m, c)

	require.NoError(t, out.Write(lrdd.Value("x"), lrdd.Value("y")))
	require.NoError(t, out.Close())
	require.Len(t, m.Rows, 2)
	require.Equal(t, 2, c.Rows())
	require.Equal(t, 1, m.Calls.Close)
}
