package testutils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// WriteTSV writes the lines into a file named name under dir and returns its path.
func WriteTSV(t require.TestingT, dir, name string, lines ...string) string {
	path := filepath.Join(dir, name)
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteCompressedTSV is WriteTSV compressing the content by the extension of
// name: .gz, .zst or .lz4.
func WriteCompressedTSV(t require.TestingT, dir, name string, lines ...string) string {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch filepath.Ext(name) {
	case ".gz":
		w = gzip.NewWriter(&buf)
	case ".zst":
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	case ".lz4":
		w = lz4.NewWriter(&buf)
	default:
		return WriteTSV(t, dir, name, lines...)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// ReadLines returns the lines of the file without line terminators.
func ReadLines(t require.TestingT, path string) []string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Fields returns the value of the column of each row.
func Fields(rows []*lrdd.Row, col int) []string {
	fields := make([]string, len(rows))
	for i, row := range rows {
		fields[i] = row.Field(col)
	}
	return fields
}

// Keys returns keys of the rows.
func Keys(rows []*lrdd.Row) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = row.Key
	}
	return keys
}
