package input

import (
	"context"
	"testing"

	"github.com/ab180/tsvchunk/lrdd"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReader(t *testing.T) {
	Convey("Given a Reader with two writers", t, func() {
		r := NewReader(4)
		r.Add()
		r.Add()

		Convey("It should copy written rows into a new batch", func() {
			rows := []*lrdd.Row{lrdd.Value("a"), lrdd.Value("b")}
			So(r.Write(context.Background(), rows), ShouldBeNil)
			rows[0] = nil

			batch := <-r.C
			So(*batch, ShouldHaveLength, 2)
			So((*batch)[0].String(), ShouldEqual, "a")
			lrdd.PutRows(batch)
		})

		Convey("It should be closed only after every writer is done", func() {
			r.Done()
			select {
			case _, ok := <-r.C:
				So(ok, ShouldBeTrue)
			default:
			}
			r.Done()
			_, ok := <-r.C
			So(ok, ShouldBeFalse)

			Convey("Closing again should not panic", func() {
				So(r.Close, ShouldNotPanic)
			})
		})

		Convey("It should stop writing when the context is cancelled", func() {
			full := NewReader(0)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(full.Write(ctx, []*lrdd.Row{lrdd.Value("a")}), ShouldEqual, context.Canceled)
		})
	})
}
