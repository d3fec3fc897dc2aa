package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	apperrors "baytt/internal/errors"
)

func TestUntil(t *testing.T) {
	Convey("poll.Until", t, func() {
		ctx := context.Background()
		opts := Options{Interval: time.Millisecond, MaxAttempts: 5, Name: "task t1"}

		Convey("第三次查询成功", func() {
			calls := 0
			out, err := Until(ctx, opts, func(ctx context.Context, attempt int) (string, State, error) {
				calls++
				if attempt == 3 {
					return "url", StateSucceeded, nil
				}
				return "", StatePending, nil
			})
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "url")
			So(calls, ShouldEqual, 3)
		})

		Convey("从不进入终态时恰好查询 MaxAttempts 次后超时", func() {
			calls := 0
			_, err := Until(ctx, opts, func(ctx context.Context, attempt int) (string, State, error) {
				calls++
				return "", StatePending, nil
			})
			So(apperrors.IsTimeoutError(err), ShouldBeTrue)
			So(calls, ShouldEqual, 5)
		})

		Convey("失败状态返回 ProviderError", func() {
			_, err := Until(ctx, opts, func(ctx context.Context, attempt int) (string, State, error) {
				return "", StateFailed, nil
			})
			So(apperrors.IsProviderError(err), ShouldBeTrue)
		})

		Convey("查询出错立即返回", func() {
			boom := errors.New("boom")
			calls := 0
			_, err := Until(ctx, opts, func(ctx context.Context, attempt int) (string, State, error) {
				calls++
				return "", StatePending, boom
			})
			So(err, ShouldEqual, boom)
			So(calls, ShouldEqual, 1)
		})

		Convey("context 取消时停止等待", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Until(cctx, Options{Interval: time.Hour, MaxAttempts: 3, Name: "x"}, func(ctx context.Context, attempt int) (int, State, error) {
				return 0, StatePending, nil
			})
			So(err, ShouldEqual, context.Canceled)
		})
	})
}
