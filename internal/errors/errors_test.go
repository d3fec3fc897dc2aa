package errors

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAppError(t *testing.T) {
	Convey("AppError 分类", t, func() {
		Convey("包装后仍能识别类型", func() {
			base := errors.New("status 429")
			err := fmt.Errorf("synthesize line 3: %w", NewQuotaError("voice quota exceeded", base))

			So(IsQuotaError(err), ShouldBeTrue)
			So(IsProviderError(err), ShouldBeFalse)
			So(errors.Is(err, base), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "status 429")
		})

		Convey("非 AppError 类型为空", func() {
			So(TypeOf(errors.New("plain")), ShouldEqual, ErrorType(""))
			So(TypeOf(nil), ShouldEqual, ErrorType(""))
		})

		Convey("错误码按类型生成", func() {
			So(NewTimeoutError("poll", nil).Code, ShouldEqual, "E1004")
			So(NewAssemblyError("render", nil).Code, ShouldEqual, "E1006")
			So(NewTimeoutError("poll", nil).Error(), ShouldEqual, "poll")
		})
	})
}
