package input

import (
	"io"
	"os"
	"strings"

	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/ab180/tsvchunk/internal/pool"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is a compression format of an input file, determined by its extension.
type Compression string

const (
	Uncompressed Compression = ""
	Gzip         Compression = "gzip"
	Zstd         Compression = "zstd"
	LZ4          Compression = "lz4"
)

// CompressionOf returns the compression of the file by its extension: .gz, .zst or .lz4.
func CompressionOf(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	case strings.HasSuffix(path, ".zst"):
		return Zstd
	case strings.HasSuffix(path, ".lz4"):
		return LZ4
	}
	return Uncompressed
}

var lz4Readers = pool.NewWithResetter(
	func() *lz4.Reader {
		return lz4.NewReader(nil)
	},
	func(r **lz4.Reader) {
		(*r).Reset(nil)
	},
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc readCloser) Close() error {
	var firstErr error
	for _, c := range rc.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openFile opens the file, decompressing it by CompressionOf.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsutil.Wrap(err, "open", path)
	}
	switch CompressionOf(path) {
	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fsutil.Wrap(err, "open", path)
		}
		return readCloser{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil

	case Zstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fsutil.Wrap(err, "open", path)
		}
		return readCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			f.Close,
		}}, nil

	case LZ4:
		zr := lz4Readers.GetReleasable()
		zr.Value().Reset(f)
		return readCloser{Reader: zr.Value(), closers: []func() error{
			func() error { zr.ResetAndRelease(); return nil },
			f.Close,
		}}, nil
	}
	return f, nil
}
