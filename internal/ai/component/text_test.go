package component

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/config"
	"baytt/internal/pkg/movietools/providers"
)

func TestNewTextProvider(t *testing.T) {
	ctx := context.Background()

	Convey("NewTextProvider 按配置选择实现", t, func() {
		Convey("ark 默认经 Eino", func() {
			p, err := NewTextProvider(ctx, &config.AIConfig{Provider: "ark", APIKey: "k"})
			So(err, ShouldBeNil)
			So(p, ShouldHaveSameTypeAs, &providers.EinoTextProvider{})
		})

		Convey("ark + native 直接使用 SDK", func() {
			p, err := NewTextProvider(ctx, &config.AIConfig{Provider: "ark", SDK: "native", APIKey: "k"})
			So(err, ShouldBeNil)
			So(p, ShouldHaveSameTypeAs, &providers.ArkTextProvider{})
		})

		Convey("缺少 api_key 时报错且不返回实现", func() {
			for _, provider := range []string{"ark", "gemini", "openai"} {
				p, err := NewTextProvider(ctx, &config.AIConfig{Provider: provider})
				So(err, ShouldNotBeNil)
				So(p, ShouldBeNil)
			}
		})

		Convey("azure 需要 base_url", func() {
			_, err := NewTextProvider(ctx, &config.AIConfig{Provider: "azure", APIKey: "k", Model: "gpt-4o"})
			So(err, ShouldNotBeNil)
		})

		Convey("未知 provider", func() {
			_, err := NewTextProvider(ctx, &config.AIConfig{Provider: "claude", APIKey: "k"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSamplingFrom(t *testing.T) {
	Convey("samplingFrom 只设置配置过的参数", t, func() {
		s := samplingFrom(config.AIOptionsConfig{})
		So(s.temperature, ShouldBeNil)
		So(s.topP, ShouldBeNil)
		So(s.maxTokens, ShouldBeNil)

		s = samplingFrom(config.AIOptionsConfig{Temperature: 0.7, MaxTokens: 4096})
		So(*s.temperature, ShouldAlmostEqual, 0.7, 0.0001)
		So(*s.maxTokens, ShouldEqual, 4096)
		So(s.topP, ShouldBeNil)
	})
}
