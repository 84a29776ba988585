package errgroup

import (
	"context"
	"errors"
	"testing"

	"github.com/ab180/tsvchunk/internal/logutils"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGroup_Go(t *testing.T) {
	Convey("Using errgroup.Go", t, func() {
		wg, _ := WithContext(context.TODO())

		Convey("It should recover panic as error", func() {
			for i := 0; i < 100; i++ {
				wg.Go(func() error {
					panic("hi")
				})
			}
			err := wg.Wait()
			So(err, ShouldNotBeNil)

			var pe *logutils.PanicError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(pe.Reason, ShouldEqual, "panic: hi")
		})

		Convey("It should cancel the context on the first error", func() {
			wg, ctx := WithContext(context.TODO())
			wg.Go(func() error {
				return errors.New("fail")
			})
			wg.Go(func() error {
				<-ctx.Done()
				return nil
			})
			So(wg.Wait(), ShouldBeError, "fail")
		})
	})
}
