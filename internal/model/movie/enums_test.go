package movie

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTransitionType(t *testing.T) {
	Convey("转场类型解析与混合时长", t, func() {
		So(ParseTransitionType("Fade"), ShouldEqual, TransitionFade)
		So(ParseTransitionType("cross-dissolve"), ShouldEqual, TransitionDissolve)
		So(ParseTransitionType("WIPE"), ShouldEqual, TransitionWipe)
		So(ParseTransitionType("smash cut"), ShouldEqual, TransitionCut)
		So(ParseTransitionType(""), ShouldEqual, TransitionCut)

		// 每种转场的混合时长互不相同
		seen := map[float64]bool{}
		for _, tt := range []TransitionType{TransitionCut, TransitionFade, TransitionDissolve, TransitionWipe} {
			So(seen[tt.BlendDuration()], ShouldBeFalse)
			seen[tt.BlendDuration()] = true
		}
		So(TransitionCut.BlendDuration(), ShouldEqual, 0)
	})
}

func TestNormalize(t *testing.T) {
	Convey("时间段与天气归一化", t, func() {
		So(NormalizeTimeOfDay("Night"), ShouldEqual, "night")
		So(NormalizeTimeOfDay("golden hour"), ShouldEqual, "dusk")
		So(NormalizeTimeOfDay("early-morning"), ShouldEqual, "dawn")
		So(NormalizeTimeOfDay(""), ShouldEqual, "day")

		So(NormalizeWeather("heavy rain"), ShouldEqual, "rain")
		So(NormalizeWeather("Thunderstorm"), ShouldEqual, "rain")
		So(NormalizeWeather("light fog"), ShouldEqual, "fog")
		So(NormalizeWeather(""), ShouldEqual, "clear")
	})
}

func TestBible(t *testing.T) {
	Convey("VisualBible", t, func() {
		Convey("默认值是保守的", func() {
			b := DefaultBible("Rain", "noir")
			So(b.Fallback, ShouldBeTrue)
			So(b.Characters, ShouldBeEmpty)
			So(b.Locations, ShouldBeEmpty)
			So(b.Lighting("night"), ShouldNotBeEmpty)
		})

		Convey("Normalize 补齐缺省光线并归一化 key", func() {
			b := &VisualBible{LightingRules: map[string]string{"Midnight": "sodium lamps"}}
			b.Normalize("Rain", "noir")
			So(b.Title, ShouldEqual, "Rain")
			So(b.Lighting("night"), ShouldEqual, "sodium lamps")
			So(b.Lighting("day"), ShouldNotBeEmpty)
			So(b.Characters, ShouldNotBeNil)
		})

		Convey("按名字查找角色", func() {
			b := &VisualBible{Characters: []CharacterProfile{{Name: "Jack Marlow"}}}
			c, ok := b.Character("jack marlow")
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "Jack Marlow")
		})
	})
}
