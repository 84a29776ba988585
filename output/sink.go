package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/ab180/tsvchunk/partitions"
	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrOutputExists is returned when an output file already exists and overwriting is disabled.
var ErrOutputExists = errors.New("output file already exists")

const tempDirPrefix = "temporary_"

type SinkOptions struct {
	// Dir is the directory output files are placed into. It is created if it does not exist.
	Dir string

	// Prefix and Extension form a file name together with the file index: <Prefix>_<index><Extension>.
	Prefix    string `default:"sample-part"`
	Extension string `default:".tsv"`

	// Header makes every output file start with a line of column names.
	Header bool

	// Overwrite allows replacing existing output files.
	Overwrite bool

	// Shards is the number of intermediate files a chunk is written into before consolidation.
	Shards int `default:"1"`

	BufferLength int `default:"1000"`
}

func DefaultSinkOptions() (o SinkOptions) {
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	o.Header = true
	o.Overwrite = true
	return
}

// FileInfo describes an output file written by ChunkSink.
type FileInfo struct {
	Index int
	Path  string
	Rows  int
}

// ChunkSink places chunks into numbered output files. Each chunk is first written
// into shard files under a temporary directory, then consolidated into a single
// file and moved to its final path.
type ChunkSink struct {
	columns []string
	opts    SinkOptions
}

func NewChunkSink(columns []string, opts SinkOptions) *ChunkSink {
	if opts.Shards < 1 {
		opts.Shards = 1
	}
	if opts.BufferLength < 1 {
		opts.BufferLength = 1
	}
	return &ChunkSink{
		columns: columns,
		opts:    opts,
	}
}

// Path returns the final path of the index-th output file.
func (s *ChunkSink) Path(index int) string {
	return filepath.Join(s.opts.Dir, s.fileName(index))
}

func (s *ChunkSink) fileName(index int) string {
	return fmt.Sprintf("%s_%d%s", s.opts.Prefix, index, s.opts.Extension)
}

func (s *ChunkSink) tempDir(index int) string {
	return filepath.Join(s.opts.Dir, tempDirPrefix+strings.TrimSuffix(s.fileName(index), s.opts.Extension))
}

// Flush writes the rows emitted by scan into the index-th output file. Rows are
// routed to shards by their keys. When keys are given, each shard takes a run of
// consecutive keys, so the file lists groups in the order of the keys, and a row
// with any other key fails the flush.
func (s *ChunkSink) Flush(ctx context.Context, index int, keys []string, scan func(Output) error) (FileInfo, error) {
	info := FileInfo{Index: index, Path: s.Path(index)}

	if err := fsutil.EnsureDir(s.opts.Dir); err != nil {
		return info, err
	}
	if !s.opts.Overwrite {
		exists, err := fsutil.Exists(info.Path)
		if err != nil {
			return info, err
		}
		if exists {
			return info, &fsutil.IOError{Op: "create", Path: info.Path, Err: ErrOutputExists}
		}
	}

	tmpDir := s.tempDir(index)
	if err := fsutil.RemoveAll(tmpDir); err != nil {
		return info, err
	}
	if err := fsutil.EnsureDir(tmpDir); err != nil {
		return info, err
	}

	shardPaths, rows, err := s.writeShards(tmpDir, s.partitionerOf(index, keys), scan)
	if err != nil {
		return info, err
	}
	if err := ctx.Err(); err != nil {
		return info, err
	}
	info.Rows = rows

	merged := filepath.Join(tmpDir, "merged"+s.opts.Extension)
	if err := s.consolidate(merged, shardPaths); err != nil {
		return info, err
	}
	if err := fsutil.Move(merged, info.Path); err != nil {
		return info, err
	}
	if err := fsutil.RemoveAll(tmpDir); err != nil {
		return info, err
	}

	log.Debug().
		Int("index", index).
		Str("path", info.Path).
		Int("rows", rows).
		Int("shards", len(shardPaths)).
		Msg("flushed chunk")
	return info, nil
}

func (s *ChunkSink) partitionerOf(index int, keys []string) partitions.Partitioner {
	if len(keys) == 0 {
		return partitions.NewHashKeyPartitioner()
	}
	p := partitions.NewContiguousKeyPartitioner(keys, s.opts.Shards)
	if s.opts.Shards < 2 {
		return p
	}
	if e := log.Debug(); e.Enabled() {
		if as, err := partitions.Assign(p, keys, s.opts.Shards); err == nil {
			e.Int("index", index).Msgf("shards of chunk:\n%s", as.Pretty())
		} else {
			e.Discard()
		}
	}
	return p
}

func (s *ChunkSink) writeShards(tmpDir string, p partitions.Partitioner, scan func(Output) error) (paths []string, rows int, err error) {
	outs := make([]Output, 0, s.opts.Shards)
	for i, part := range partitions.PlanForNumberOf(s.opts.Shards) {
		path := filepath.Join(tmpDir, fmt.Sprintf("part-%05d%s", part.Index, s.opts.Extension))
		fw, err := CreateFile(path)
		if err != nil {
			_ = NewComposed(outs...).Close()
			return nil, 0, errors.WithMessagef(err, "open shard %d", i)
		}
		outs = append(outs, NewBufferedOutput(fw, s.opts.BufferLength))
		paths = append(paths, path)
	}

	counter := NewCounter()
	out := NewComposed(NewWriter(p, outs), counter)

	var errs *multierror.Error
	if err := scan(out); err != nil {
		errs = multierror.Append(errs, errors.WithMessage(err, "scan rows"))
	}
	if err := out.Close(); err != nil {
		errs = multierror.Append(errs, errors.WithMessage(err, "close shards"))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, 0, err
	}
	return paths, counter.Rows(), nil
}

func (s *ChunkSink) consolidate(dst string, shards []string) error {
	fw, err := CreateFile(dst)
	if err != nil {
		return err
	}
	if s.opts.Header {
		if err := fw.WriteHeader(s.columns); err != nil {
			_ = fw.Close()
			return err
		}
	}
	for _, shard := range shards {
		if err := appendFile(fw.w, shard); err != nil {
			_ = fw.Close()
			return err
		}
	}
	return fw.Close()
}

func appendFile(w *bufio.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fsutil.Wrap(err, "open", path)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fsutil.Wrap(err, "copy", path)
	}
	return nil
}
