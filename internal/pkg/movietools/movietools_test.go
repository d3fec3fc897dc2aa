package movietools

import (
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/model/movie"
)

func TestStripQuotedDialogue(t *testing.T) {
	Convey("StripQuotedDialogue", t, func() {
		lines := []string{"I never forget a face.", "Then you'll remember mine"}
		prompt := `Detective lights a cigarette and says I never forget a face. The suspect replies "Then you'll remember mine" in the rain.`

		out := StripQuotedDialogue(prompt, lines)
		for _, l := range lines {
			So(strings.Contains(strings.ToLower(out), strings.ToLower(l)), ShouldBeFalse)
		}
		So(out, ShouldContainSubstring, "Detective lights a cigarette")
		So(out, ShouldNotContainSubstring, `"`)

		Convey("中文引号也会被移除", func() {
			out := StripQuotedDialogue(`他低声说「别动」然后转身`, nil)
			So(out, ShouldEqual, "他低声说然后转身")
		})
	})
}

func TestTruncateToBudget(t *testing.T) {
	Convey("TruncateToBudget", t, func() {
		So(TruncateToBudget("short", 100), ShouldEqual, "short")

		text := "First sentence is here. Second sentence keeps going, and going further."
		out := TruncateToBudget(text, 40)
		So(out, ShouldEqual, "First sentence is here.")

		cjk := strings.Repeat("雨夜", 50)
		out = TruncateToBudget(cjk, 11)
		So(utf8.ValidString(out), ShouldBeTrue)
		So(utf8.RuneCountInString(out), ShouldEqual, 11)

		Convey("在中文句号处截断时保持完整字符", func() {
			text := strings.Repeat("雨", 10) + "。" + strings.Repeat("夜", 20)
			out := TruncateToBudget(text, 15)
			So(utf8.ValidString(out), ShouldBeTrue)
			So(out, ShouldEqual, strings.Repeat("雨", 10)+"。")
		})

		Convey("在中文逗号处截断", func() {
			text := strings.Repeat("灯", 9) + "，" + strings.Repeat("影", 20)
			out := TruncateToBudget(text, 14)
			So(utf8.ValidString(out), ShouldBeTrue)
			So(out, ShouldEqual, strings.Repeat("灯", 9))
		})
	})
}

func TestContentFilter(t *testing.T) {
	Convey("ContentFilter", t, func() {
		cf := NewContentFilter()
		out := cf.FilterContent("A bloody corpse lies in the alley, NUDE mannequin nearby")
		So(out, ShouldEqual, "A stained motionless figure lies in the alley, mannequin nearby")

		So(cf.CheckContent("nude figure").IsSafe, ShouldBeFalse)
		So(cf.CheckContent("rainy street").IsSafe, ShouldBeTrue)
		// 词边界匹配，不误伤 bloodhound
		So(cf.FilterContent("a bloodhound"), ShouldEqual, "a bloodhound")
	})
}

func TestCleanForSpeech(t *testing.T) {
	Convey("CleanForSpeech 移除表演提示", t, func() {
		tc := NewTextCleaner()
		So(tc.CleanForSpeech(`(whispering) "Don't move." [beat]`), ShouldEqual, "Don't move.")
		So(tc.CleanForSpeech("（冷笑）你来晚了"), ShouldEqual, "你来晚了")
		So(tc.CleanForSpeech("*sighs* Fine & dandy"), ShouldEqual, "Fine and dandy")
	})
}

func TestSlugAndFuzzy(t *testing.T) {
	Convey("Slugify", t, func() {
		So(Slugify("  Rainy Alley — Downtown "), ShouldEqual, "rainy-alley-downtown")
		So(Slugify("Joe's Diner #2"), ShouldEqual, "joe-s-diner-2")
		So(Slugify("警察局 大厅"), ShouldEqual, "警察局-大厅")
	})

	Convey("FuzzyMatch", t, func() {
		So(FuzzyMatch("Police Station", "police station"), ShouldEqual, 1)
		So(FuzzyMatch("Police Station", "The Police Station Lobby"), ShouldEqual, 1)
		So(FuzzyMatch("rainy alley downtown", "downtown alley"), ShouldBeGreaterThanOrEqualTo, 0.5)
		So(FuzzyMatch("harbor warehouse", "mountain cabin"), ShouldEqual, 0)
		So(FuzzyMatch("", "x"), ShouldEqual, 0)

		// 字面子串但不是同一个词
		So(FuzzyMatch("Bar", "Crowbar Alley"), ShouldBeLessThan, 0.5)
		So(FuzzyMatch("Park", "Parking Garage"), ShouldBeLessThan, 0.5)
	})

	Convey("IsPlaceholderURL", t, func() {
		So(IsPlaceholderURL(""), ShouldBeTrue)
		So(IsPlaceholderURL("https://cdn.example.com/placeholder.png"), ShouldBeTrue)
		So(IsPlaceholderURL("data:image/png;base64,"), ShouldBeTrue)
		So(IsPlaceholderURL("data:image/png;base64,iVBOR"), ShouldBeFalse)
		So(IsPlaceholderURL("https://cdn.example.com/frame.jpg"), ShouldBeFalse)
	})
}

func TestPromptBuilder(t *testing.T) {
	bible := &movie.VisualBible{
		Genre:         "noir",
		Tone:          "bleak",
		LightingRules: map[string]string{"night": "sodium streetlights"},
		Characters: []movie.CharacterProfile{
			{Name: "Jack", Appearance: "tired man in his fifties", Wardrobe: "grey trench coat"},
		},
		Locations: []movie.LocationProfile{{Name: "Alley", Description: "narrow brick alley with fire escapes"}},
		Forbidden: []string{"text overlays"},
	}
	scene := &movie.Scene{
		Number:     1,
		Header:     movie.SceneHeader{Location: "Alley", TimeOfDay: "night", Weather: "heavy rain"},
		Characters: []movie.SceneCharacter{{Name: "Jack"}},
		Action:     []string{"Jack kneels over the corpse.", `He mutters "Not again."`},
		Dialogue:   []movie.DialogueLine{{Character: "Jack", Text: "Not again."}},
	}

	Convey("BuildScenePrompt 只含画面信息", t, func() {
		b := NewPromptBuilder(bible)
		prompt := b.BuildScenePrompt(scene, 1500)
		So(prompt, ShouldNotContainSubstring, "Not again")
		So(prompt, ShouldContainSubstring, "grey trench coat")
		So(prompt, ShouldContainSubstring, "sodium streetlights")
		So(prompt, ShouldNotContainSubstring, "corpse")

		short := b.BuildScenePrompt(scene, 60)
		So(utf8.RuneCountInString(short), ShouldBeLessThanOrEqualTo, 60)
	})

	Convey("BuildLocationPrompt 不含人物", t, func() {
		b := NewPromptBuilder(bible)
		prompt := b.BuildLocationPrompt(scene)
		So(prompt, ShouldContainSubstring, "narrow brick alley")
		So(prompt, ShouldContainSubstring, "weather: rain")
		So(prompt, ShouldContainSubstring, "no people")
		So(prompt, ShouldNotContainSubstring, "Jack")
	})
}
