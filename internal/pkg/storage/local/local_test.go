package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("本地存储读写", t, func() {
		dir := t.TempDir()
		s, err := NewLocalStorage(dir, "http://localhost:8080/storage/")
		So(err, ShouldBeNil)
		ctx := context.Background()

		url, err := s.Upload(ctx, "movies/m1/frame.png", strings.NewReader("png-bytes"), "image/png")
		So(err, ShouldBeNil)
		So(url, ShouldEqual, "http://localhost:8080/storage/movies/m1/frame.png")

		exists, err := s.Exists(ctx, "movies/m1/frame.png")
		So(err, ShouldBeNil)
		So(exists, ShouldBeTrue)

		rc, err := s.Download(ctx, "movies/m1/frame.png")
		So(err, ShouldBeNil)
		data, _ := io.ReadAll(rc)
		rc.Close()
		So(string(data), ShouldEqual, "png-bytes")

		Convey("URL 可以还原为本地路径", func() {
			p, ok := s.PathForURL(url)
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, filepath.Join(dir, "movies", "m1", "frame.png"))

			_, ok = s.PathForURL("https://cdn.example.com/movies/m1/frame.png")
			So(ok, ShouldBeFalse)
		})

		Convey("key 不能逃出根目录", func() {
			_, err := s.Upload(ctx, "../../etc/passwd", strings.NewReader("x"), "text/plain")
			So(err, ShouldBeNil)
			_, statErr := os.Stat(filepath.Join(dir, "etc", "passwd"))
			So(statErr, ShouldBeNil)
		})

		Convey("删除后不存在，重复删除不报错", func() {
			So(s.Delete(ctx, "movies/m1/frame.png"), ShouldBeNil)
			exists, _ := s.Exists(ctx, "movies/m1/frame.png")
			So(exists, ShouldBeFalse)
			So(s.Delete(ctx, "movies/m1/frame.png"), ShouldBeNil)
		})

		Convey("读取不存在的文件返回错误", func() {
			_, err := s.Download(ctx, "nope.mp4")
			So(err, ShouldNotBeNil)
		})
	})
}
