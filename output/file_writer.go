package output

import (
	"bufio"
	"os"

	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/ab180/tsvchunk/lrdd"
)

// FileWriter writes rows into a file as tab-delimited lines, without any quoting or escaping.
type FileWriter struct {
	path string
	file *os.File
	w    *bufio.Writer
	rows int
}

// CreateFile creates or truncates the file at the path.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fsutil.Wrap(err, "create", path)
	}
	return &FileWriter{
		path: path,
		file: f,
		w:    bufio.NewWriterSize(f, 64*1024),
	}, nil
}

// WriteHeader writes column names as a line. It does not count as a row.
func (fw *FileWriter) WriteHeader(columns []string) error {
	return fw.writeLine(columns)
}

func (fw *FileWriter) Write(rows ...*lrdd.Row) error {
	for _, row := range rows {
		if err := fw.writeLine(row.Fields); err != nil {
			return err
		}
		fw.rows++
	}
	return nil
}

func (fw *FileWriter) writeLine(fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := fw.w.WriteByte('\t'); err != nil {
				return fsutil.Wrap(err, "write", fw.path)
			}
		}
		if _, err := fw.w.WriteString(field); err != nil {
			return fsutil.Wrap(err, "write", fw.path)
		}
	}
	return fsutil.Wrap(fw.w.WriteByte('\n'), "write", fw.path)
}

// Rows returns the number of rows written, excluding the header.
func (fw *FileWriter) Rows() int {
	return fw.rows
}

func (fw *FileWriter) Path() string {
	return fw.path
}

func (fw *FileWriter) Close() error {
	if err := fw.w.Flush(); err != nil {
		_ = fw.file.Close()
		return fsutil.Wrap(err, "write", fw.path)
	}
	return fsutil.Wrap(fw.file.Close(), "close", fw.path)
}
