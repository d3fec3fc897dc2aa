package jsonrepair

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type sample struct {
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
	Scenes []struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"scenes"`
}

func TestRepair(t *testing.T) {
	Convey("Repair 按畸形类别修复", t, func() {
		Convey("markdown 代码块", func() {
			raw := "```json\n{\"title\": \"Noir\"}\n```"
			out, err := Repair(raw)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "Noir"}`)
		})

		Convey("前后夹带说明文字", func() {
			raw := "Sure! Here is the bible:\n{\"title\": \"Noir\"}\nLet me know if you need more."
			out, err := Repair(raw)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "Noir"}`)
		})

		Convey("尾逗号", func() {
			out, err := Repair(`{"title": "Noir", "tags": ["rain", "night",],}`)
			So(err, ShouldBeNil)
			So(json.Valid([]byte(out)), ShouldBeTrue)
			So(out, ShouldEqual, `{"title": "Noir", "tags": ["rain", "night"]}`)
		})

		Convey("未配平的括号按栈顺序补齐", func() {
			out, err := Repair(`{"title": "Noir", "scenes": [{"number": 1, "text": "a"}, {"number": 2`)
			So(err, ShouldBeNil)
			So(json.Valid([]byte(out)), ShouldBeTrue)
			So(out, ShouldEqual, `{"title": "Noir", "scenes": [{"number": 1, "text": "a"}, {"number": 2}]}`)
		})

		Convey("未闭合的字符串", func() {
			out, err := Repair(`{"title": "The detective walks into the ra`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "The detective walks into the ra"}`)
		})

		Convey("字符串末尾的悬空转义符被丢弃", func() {
			out, err := Repair(`{"title": "abc\`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "abc"}`)
		})

		Convey("字符串内的裸换行被转义", func() {
			out, err := Repair("{\"title\": \"line one\nline two\"}")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "line one\nline two"}`)
		})

		Convey("截断在键或冒号之后", func() {
			out, err := Repair(`{"title": "Noir", "genre"`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "Noir", "genre":null}`)

			out, err = Repair(`{"title": "Noir", "genre":`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"title": "Noir", "genre":null}`)
		})

		Convey("截断的字面量被补全", func() {
			out, err := Repair(`{"ok": tr`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"ok": true}`)
		})

		Convey("数组中的字符串不是键", func() {
			out, err := Repair(`["a", "b"`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `["a", "b"]`)
		})

		Convey("字符串中的括号和逗号不受影响", func() {
			out, err := Repair(`{"text": "a {b} [c], d,]"`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"text": "a {b} [c], d,]"}`)
		})

		Convey("多余的闭合符号被忽略", func() {
			out, err := Repair(`{"tags": ["a"]]}`)
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"tags": ["a"]}`)
		})

		Convey("没有 JSON 时返回 ErrNoJSON", func() {
			_, err := Repair("I cannot help with that.")
			So(err, ShouldEqual, ErrNoJSON)
		})
	})
}

func TestUnmarshal(t *testing.T) {
	Convey("Unmarshal 容错解析", t, func() {
		Convey("合法 JSON 直接解析", func() {
			var s sample
			So(Unmarshal(`{"title": "Noir", "tags": ["rain"]}`, &s), ShouldBeNil)
			So(s.Title, ShouldEqual, "Noir")
			So(s.Tags, ShouldResemble, []string{"rain"})
		})

		Convey("截断的响应修复后解析", func() {
			var s sample
			raw := "```json\n{\"title\": \"Noir\", \"scenes\": [{\"number\": 1, \"text\": \"Rain falls\"}, {\"number\": 2, \"text\": \"The door op"
			So(Unmarshal(raw, &s), ShouldBeNil)
			So(len(s.Scenes), ShouldEqual, 2)
			So(s.Scenes[1].Text, ShouldEqual, "The door op")
		})

		Convey("无法修复时返回错误", func() {
			var s sample
			So(Unmarshal("no json here", &s), ShouldNotBeNil)
		})
	})
}
