package output

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/partitions"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestChunkSink_Flush(t *testing.T) {
	Convey("Given a ChunkSink", t, func() {
		dir := filepath.Join(t.TempDir(), "out")
		opts := DefaultSinkOptions()
		opts.Dir = dir
		opts.Shards = 3
		columns := []string{"id", "value"}

		rows := lrdd.From(0,
			[]string{"A", "1"},
			[]string{"A", "2"},
			[]string{"B", "3"},
			[]string{"C", "4"},
		)
		scan := func(out Output) error {
			return out.Write(rows...)
		}

		Convey("When flushing a chunk with header", func() {
			sink := NewChunkSink(columns, opts)
			info, err := sink.Flush(context.Background(), 1, nil, scan)
			So(err, ShouldBeNil)

			Convey("It should write a single consolidated file", func() {
				So(info.Path, ShouldEqual, filepath.Join(dir, "sample-part_1.tsv"))
				So(info.Rows, ShouldEqual, 4)

				lines := readLines(info.Path)
				So(lines, ShouldHaveLength, 5)
				So(lines[0], ShouldEqual, "id\tvalue")
				body := append([]string(nil), lines[1:]...)
				sort.Strings(body)
				So(body, ShouldResemble, []string{"A\t1", "A\t2", "B\t3", "C\t4"})
			})

			Convey("It should keep rows of a key next to each other", func() {
				lines := readLines(info.Path)[1:]
				var keys []string
				for _, l := range lines {
					k := strings.Split(l, "\t")[0]
					if len(keys) == 0 || keys[len(keys)-1] != k {
						keys = append(keys, k)
					}
				}
				So(keys, ShouldHaveLength, 3)
			})

			Convey("It should remove the temporary directory", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Name(), ShouldEqual, "sample-part_1.tsv")
			})
		})

		Convey("When flushing a chunk with its keys", func() {
			info, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, []string{"C", "A", "B"}, scan)
			So(err, ShouldBeNil)

			Convey("It should write groups in the order of the keys", func() {
				So(readLines(info.Path)[1:], ShouldResemble, []string{"C\t4", "A\t1", "A\t2", "B\t3"})
			})
		})

		Convey("When a chunk has more keys than shards", func() {
			more := lrdd.From(0,
				[]string{"E", "1"},
				[]string{"E", "6"},
				[]string{"D", "2"},
				[]string{"C", "3"},
				[]string{"B", "4"},
				[]string{"A", "5"},
			)
			keys := []string{"E", "D", "C", "B", "A"}
			scanMore := func(out Output) error {
				return out.Write(more...)
			}
			expected := []string{"E\t1", "E\t6", "D\t2", "C\t3", "B\t4", "A\t5"}

			Convey("It should write the same file for any number of shards", func() {
				for _, shards := range []int{1, 2, 3, 4, 8} {
					opts.Shards = shards
					opts.Dir = filepath.Join(t.TempDir(), "out")
					info, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, keys, scanMore)
					So(err, ShouldBeNil)
					So(readLines(info.Path)[1:], ShouldResemble, expected)
				}
			})
		})

		Convey("When a row has a key not given", func() {
			_, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, []string{"A", "B"}, scan)

			Convey("It should fail with ErrNoOutput", func() {
				So(errors.Is(err, partitions.ErrNoOutput), ShouldBeTrue)
			})
		})

		Convey("When flushing a chunk without header", func() {
			opts.Header = false
			info, err := NewChunkSink(columns, opts).Flush(context.Background(), 2, nil, scan)
			So(err, ShouldBeNil)
			So(readLines(info.Path), ShouldHaveLength, 4)
		})

		Convey("When the output file already exists", func() {
			So(fsutil.EnsureDir(dir), ShouldBeNil)
			existing := filepath.Join(dir, "sample-part_1.tsv")
			So(os.WriteFile(existing, []byte("stale\n"), 0o644), ShouldBeNil)

			Convey("It should overwrite it by default", func() {
				_, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, nil, scan)
				So(err, ShouldBeNil)
				So(readLines(existing), ShouldHaveLength, 5)
			})

			Convey("It should refuse to overwrite when disabled", func() {
				opts.Overwrite = false
				_, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, nil, scan)
				So(err, ShouldNotBeNil)

				var ioErr *fsutil.IOError
				So(errorsAs(err, &ioErr), ShouldBeTrue)
				So(ioErr.Err, ShouldEqual, ErrOutputExists)
				So(readLines(existing), ShouldResemble, []string{"stale"})
			})
		})

		Convey("When the output directory cannot be created", func() {
			blocker := filepath.Join(t.TempDir(), "file")
			So(os.WriteFile(blocker, nil, 0o644), ShouldBeNil)
			opts.Dir = filepath.Join(blocker, "out")

			_, err := NewChunkSink(columns, opts).Flush(context.Background(), 1, nil, scan)
			var ioErr *fsutil.IOError
			So(errorsAs(err, &ioErr), ShouldBeTrue)
			So(ioErr.Op, ShouldEqual, "mkdir")
		})
	})
}

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func errorsAs(err error, target interface{}) bool {
	return errors.As(err, target)
}
