package lrdd

import "strings"

// Delimiter separates fields of a row in both input and output files.
// Quoting and escaping are not supported.
const Delimiter = "\t"

// Row is a single record of a delimited table.
// Key is the value of the column that the row is currently grouped by.
type Row struct {
	Key    string
	Fields []string

	// Offset is the position of the row among the data rows of its source.
	// Feeders set it; it is never written out.
	Offset int64
}

func Value(fields ...string) *Row {
	return &Row{Fields: fields}
}

func KeyValue(key string, fields ...string) *Row {
	return &Row{Key: key, Fields: fields}
}

// Field returns the i-th field of the row, or an empty string if the row is shorter.
func (r *Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// WithKey returns a shallow copy of the row keyed by given key.
func (r *Row) WithKey(key string) *Row {
	return &Row{Key: key, Fields: r.Fields, Offset: r.Offset}
}

// String formats the row as a delimited line without a line terminator.
func (r *Row) String() string {
	return strings.Join(r.Fields, Delimiter)
}

// Split parses a delimited line into a row. The line must not contain a line terminator.
func Split(line string) *Row {
	return &Row{Fields: strings.Split(line, Delimiter)}
}
