// Package enginetest checks that an engine.Engine implementation fulfils the contract of the planner.
package enginetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/testutils"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

var sample = []string{
	"id\tv",
	"A\ta1",
	"B\tb1",
	"A\ta2",
	"C\tc1",
	"C\tc2",
	"\te1",
	"C\tc3",
}

type collector struct {
	rows []*lrdd.Row
}

func (c *collector) Write(rows ...*lrdd.Row) error {
	c.rows = append(c.rows, rows...)
	return nil
}

func (c *collector) Close() error { return nil }

// Run tests the engine created by the factory.
func Run(t *testing.T, factory engine.Factory) {
	dir := t.TempDir()
	withHeader := testutils.WriteTSV(t, dir, "sample.tsv", sample...)
	empty := testutils.WriteTSV(t, dir, "empty.tsv")
	headerOnly := testutils.WriteTSV(t, dir, "header_only.tsv", sample[0])
	var compressedSamples []string
	for _, ext := range []string{".gz", ".zst", ".lz4"} {
		compressedSamples = append(compressedSamples, testutils.WriteCompressedTSV(t, dir, "sample.tsv"+ext, sample...))
	}

	open := func(ctx context.Context, parallelism int) engine.Engine {
		opts := engine.DefaultOptions()
		opts.Parallelism = parallelism
		opts.BatchSize = 2
		opts.TempDir = t.TempDir()
		e, err := factory(ctx, opts)
		So(err, ShouldBeNil)
		Reset(func() {
			So(e.Close(), ShouldBeNil)
		})
		return e
	}

	for _, parallelism := range []int{1, 3} {
		parallelism := parallelism

		Convey("Given a table with header", t, func() {
			ctx := testutils.ContextWithTimeout()
			e := open(ctx, parallelism)
			tbl, err := e.Load(ctx, engine.Source{Path: withHeader, Header: true})
			So(err, ShouldBeNil)

			Convey("It should name columns after the header", func() {
				So(tbl.Columns(), ShouldResemble, []string{"id", "v"})
			})

			Convey("Calling Distinct() should return every value once in the order of first appearance", func() {
				values, err := tbl.Distinct(ctx, "id")
				So(err, ShouldBeNil)
				So(values, ShouldResemble, []string{"A", "B", "C", ""})
			})

			Convey("Calling Count() should return the group size", func() {
				for value, expected := range map[string]int{"A": 2, "B": 1, "C": 3, "": 1, "Z": 0} {
					cnt, err := tbl.Count(ctx, "id", value)
					So(err, ShouldBeNil)
					So(cnt, ShouldEqual, expected)
				}
			})

			Convey("Calling Scan() should emit groups in the given order, keyed by the value", func() {
				c := new(collector)
				So(tbl.Scan(ctx, "id", []string{"C", "", "A"}, c), ShouldBeNil)
				So(testutils.Keys(c.rows), ShouldResemble, []string{"C", "C", "C", "", "A", "A"})

				So(testutils.Fields(c.rows, 1), ShouldResemble, []string{"c1", "c2", "c3", "e1", "a1", "a2"})
				for _, row := range c.rows {
					So(row.Fields, ShouldHaveLength, 2)
					So(row.Field(0), ShouldEqual, row.Key)
				}
			})

			Convey("Querying an unknown column should fail with ErrColumnNotFound", func() {
				_, err := tbl.Distinct(ctx, "nope")
				So(errors.Is(err, engine.ErrColumnNotFound), ShouldBeTrue)

				_, err = tbl.Count(ctx, "nope", "A")
				So(errors.Is(err, engine.ErrColumnNotFound), ShouldBeTrue)

				err = tbl.Scan(ctx, "nope", []string{"A"}, new(collector))
				So(errors.Is(err, engine.ErrColumnNotFound), ShouldBeTrue)
			})
		})

		Convey("Given a table without header", t, func() {
			ctx := testutils.ContextWithTimeout()
			e := open(ctx, parallelism)
			tbl, err := e.Load(ctx, engine.Source{Path: withHeader, Header: false})
			So(err, ShouldBeNil)

			Convey("It should name columns positionally", func() {
				So(tbl.Columns(), ShouldResemble, []string{"_c0", "_c1"})
			})

			Convey("It should treat the first line as data", func() {
				cnt, err := tbl.Count(ctx, "_c0", "id")
				So(err, ShouldBeNil)
				So(cnt, ShouldEqual, 1)

				values, err := tbl.Distinct(ctx, "_c0")
				So(err, ShouldBeNil)
				So(values, ShouldResemble, []string{"id", "A", "B", "C", ""})
			})
		})

		for _, compressed := range compressedSamples {
			compressed := compressed

			Convey("Given a table compressed as "+filepath.Ext(compressed), t, func() {
				ctx := testutils.ContextWithTimeout()
				e := open(ctx, parallelism)
				tbl, err := e.Load(ctx, engine.Source{Path: compressed, Header: true})
				So(err, ShouldBeNil)

				Convey("It should read the same rows as the plain file", func() {
					So(tbl.Columns(), ShouldResemble, []string{"id", "v"})

					values, err := tbl.Distinct(ctx, "id")
					So(err, ShouldBeNil)
					So(values, ShouldResemble, []string{"A", "B", "C", ""})

					c := new(collector)
					So(tbl.Scan(ctx, "id", values, c), ShouldBeNil)
					So(testutils.Fields(c.rows, 1), ShouldResemble, []string{"a1", "a2", "b1", "c1", "c2", "c3", "e1"})
				})
			})
		}
	}

	Convey("Given an empty file", t, func() {
		ctx := testutils.ContextWithTimeout()
		e := open(ctx, 1)
		tbl, err := e.Load(ctx, engine.Source{Path: empty, Header: true})
		So(err, ShouldBeNil)

		Convey("It should have no columns", func() {
			So(tbl.Columns(), ShouldBeEmpty)

			_, err := tbl.Distinct(ctx, "_c0")
			So(errors.Is(err, engine.ErrColumnNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a file with only a header", t, func() {
		ctx := testutils.ContextWithTimeout()
		e := open(ctx, 1)
		tbl, err := e.Load(ctx, engine.Source{Path: headerOnly, Header: true})
		So(err, ShouldBeNil)

		Convey("It should have columns but no values", func() {
			So(tbl.Columns(), ShouldResemble, []string{"id", "v"})

			values, err := tbl.Distinct(ctx, "id")
			So(err, ShouldBeNil)
			So(values, ShouldBeEmpty)
		})
	})
}
