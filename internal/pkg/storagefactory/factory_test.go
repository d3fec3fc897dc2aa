package storagefactory

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/config"
	"baytt/internal/pkg/storage"
)

func TestNewStorage(t *testing.T) {
	Convey("NewStorage 按类型创建存储", t, func() {
		ctx := context.Background()

		Convey("本地存储", func() {
			s, err := NewStorage(ctx, &config.StorageConfig{
				Type: "local",
				Local: &config.LocalConfig{
					BasePath: t.TempDir(),
					BaseURL:  "http://localhost:8080/storage",
				},
			})
			So(err, ShouldBeNil)
			So(s.GetStorageType(), ShouldEqual, string(storage.StorageTypeLocal))

			_, ok := s.(storage.PathResolver)
			So(ok, ShouldBeTrue)
		})

		Convey("缺少本地配置", func() {
			s, err := NewStorage(ctx, &config.StorageConfig{Type: "local"})
			So(err, ShouldNotBeNil)
			So(s, ShouldBeNil)
		})

		Convey("缺少 OSS 配置", func() {
			_, err := NewStorage(ctx, &config.StorageConfig{Type: "oss"})
			So(err, ShouldNotBeNil)
		})

		Convey("不支持的类型", func() {
			_, err := NewStorage(ctx, &config.StorageConfig{Type: "s3"})
			So(err, ShouldNotBeNil)
		})
	})
}
