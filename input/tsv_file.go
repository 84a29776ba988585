package input

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/output"
	"github.com/pkg/errors"
	"github.com/therne/errorist"
)

// ErrMalformedRow is returned when a row has different number of fields from the header.
var ErrMalformedRow = errors.New("malformed row")

const defaultBatchSize = 1000

// TSVFile feeds rows of a tab-delimited file. Quote and escape characters are
// not recognized, so fields cannot contain tabs or line breaks. Files ending
// with .gz, .zst or .lz4 are decompressed transparently. Rows are numbered by
// Offset in the order they appear.
type TSVFile struct {
	Path string

	// Header indicates that the first line holds column names. Otherwise columns
	// are named _c0, _c1, ... after the width of the first line.
	Header bool

	BatchSize int

	columns []string
	probed  bool
}

func NewTSVFile(path string, header bool) *TSVFile {
	return &TSVFile{
		Path:      path,
		Header:    header,
		BatchSize: defaultBatchSize,
	}
}

// Columns returns the column names. An empty file has no columns.
func (f *TSVFile) Columns() ([]string, error) {
	if f.probed {
		return f.columns, nil
	}
	r, err := openFile(f.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	lr := newLineReader(r)
	first, ok, err := lr.next()
	if err != nil {
		return nil, fsutil.Wrap(err, "read", f.Path)
	}
	if ok {
		f.columns = headerOf(first, f.Header)
	}
	f.probed = true
	return f.columns, nil
}

func headerOf(line string, hasHeader bool) []string {
	fields := strings.Split(line, lrdd.Delimiter)
	if hasHeader {
		return fields
	}
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = "_c" + strconv.Itoa(i)
	}
	return names
}

func (f *TSVFile) FeedInput(ctx context.Context, out output.Output) (err error) {
	columns, err := f.Columns()
	if err != nil {
		return err
	}
	r, err := openFile(f.Path)
	if err != nil {
		return err
	}
	defer errorist.CloseWithErrCapture(r, &err, errorist.Wrapf("close"))

	batchSize := f.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	batch := make([]*lrdd.Row, 0, batchSize)

	lr := newLineReader(r)
	if f.Header {
		if _, _, err := lr.next(); err != nil {
			return fsutil.Wrap(err, "read", f.Path)
		}
	}
	var offset int64
	for {
		line, ok, err := lr.next()
		if err != nil {
			return fsutil.Wrap(err, "read", f.Path)
		}
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		row := lrdd.Split(line)
		if len(row.Fields) != len(columns) {
			return errors.Wrapf(ErrMalformedRow, "%s:%d: expected %d fields, got %d",
				f.Path, lr.lineNo, len(columns), len(row.Fields))
		}
		row.Offset = offset
		offset++
		batch = append(batch, row)
		if len(batch) == batchSize {
			if err := out.Write(batch...); err != nil {
				return err
			}
			batch = batch[:0]
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if len(batch) > 0 {
		return out.Write(batch...)
	}
	return nil
}

type lineReader struct {
	r      *bufio.Reader
	lineNo int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 256*1024)}
}

// next returns the next line without its terminator. ok is false at the end of input.
func (l *lineReader) next() (line string, ok bool, err error) {
	line, err = l.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if err == io.EOF && line == "" {
		return "", false, nil
	}
	l.lineNo++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}
