package local

import (
	"testing"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/engine/enginetest"
	"github.com/ab180/tsvchunk/input"
	"github.com/ab180/tsvchunk/internal/testutils"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEngine(t *testing.T) {
	enginetest.Run(t, New)
}

func TestEngine_Load(t *testing.T) {
	Convey("Given a local engine", t, func() {
		ctx := testutils.ContextWithTimeout()
		opts := engine.DefaultOptions()
		opts.Parallelism = 4
		opts.BatchSize = 1
		opts.QueueLength = 1
		e, err := New(ctx, opts)
		So(err, ShouldBeNil)

		Convey("When loading a malformed file", func() {
			path := testutils.WriteTSV(t, t.TempDir(), "bad.tsv", "a\tb", "1\t2", "3", "4\t5")
			_, err := e.Load(ctx, engine.Source{Path: path, Header: true})

			Convey("It should fail with ErrMalformedRow", func() {
				So(errors.Is(err, input.ErrMalformedRow), ShouldBeTrue)
			})
		})

		Convey("When rows outnumber the partitions", func() {
			lines := []string{"k"}
			for i := 0; i < 10; i++ {
				lines = append(lines, "x")
			}
			path := testutils.WriteTSV(t, t.TempDir(), "many.tsv", lines...)
			tbl, err := e.Load(ctx, engine.Source{Path: path, Header: true})
			So(err, ShouldBeNil)

			Convey("It should deal rows round-robin", func() {
				parts := tbl.(*table).partitions
				So(parts, ShouldHaveLength, 4)
				for i, p := range parts {
					So(p.Index, ShouldEqual, i)
				}
				So(len(parts[0].rows), ShouldEqual, 3)
				So(len(parts[1].rows), ShouldEqual, 3)
				So(len(parts[2].rows), ShouldEqual, 2)
				So(len(parts[3].rows), ShouldEqual, 2)
				So(tbl.(*table).numRows(), ShouldEqual, 10)
			})
		})

		Convey("When the engine is closed", func() {
			So(e.Close(), ShouldBeNil)

			Convey("Load should fail with ErrClosed", func() {
				_, err := e.Load(ctx, engine.Source{Path: "whatever.tsv"})
				So(errors.Is(err, engine.ErrClosed), ShouldBeTrue)
			})

			Convey("Closing again should fail", func() {
				So(errors.Is(e.Close(), engine.ErrClosed), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := e.Load(ctx, engine.Source{Path: "/nonexistent/file.tsv"})

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestTable_DistinctOrder(t *testing.T) {
	Convey("Given a table loaded into a single partition", t, func() {
		ctx := testutils.ContextWithTimeout()
		e, err := New(ctx, engine.DefaultOptions())
		So(err, ShouldBeNil)
		Reset(func() { _ = e.Close() })

		path := testutils.WriteTSV(t, t.TempDir(), "order.tsv", "c", "b", "a", "c", "b")
		tbl, err := e.Load(ctx, engine.Source{Path: path})
		So(err, ShouldBeNil)

		Convey("Distinct() should follow the order of first appearance", func() {
			values, err := tbl.Distinct(ctx, "_c0")
			So(err, ShouldBeNil)
			So(values, ShouldResemble, []string{"c", "b", "a"})
		})

		Convey("Scan() should emit every row of the group", func() {
			c := &rowCollector{}
			So(tbl.Scan(ctx, "_c0", []string{"b"}, c), ShouldBeNil)
			So(c.n, ShouldEqual, 2)
		})
	})
}

type rowCollector struct {
	n int
}

func (r *rowCollector) Write(rows ...*lrdd.Row) error {
	r.n += len(rows)
	return nil
}

func (r *rowCollector) Close() error { return nil }
