package movie

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlaceholderEntryFilter(t *testing.T) {
	Convey("placeholderEntryFilter 只匹配同一个键下的无效图片", t, func() {
		f := placeholderEntryFilter("rainy-alley", "night", "rain")
		So(f["slug"], ShouldEqual, "rainy-alley")
		So(f["time_of_day"], ShouldEqual, "night")
		So(f["weather"], ShouldEqual, "rain")

		conds := f["$or"].(bson.A)
		So(len(conds), ShouldEqual, 4)
		So(conds[1], ShouldResemble, bson.M{"image_url": ""})

		var patterns []*regexp.Regexp
		for _, c := range conds[2:] {
			re := c.(bson.M)["image_url"].(primitive.Regex)
			expr := re.Pattern
			if re.Options == "i" {
				expr = "(?i)" + expr
			}
			patterns = append(patterns, regexp.MustCompile(expr))
		}
		matches := func(url string) bool {
			for _, p := range patterns {
				if p.MatchString(url) {
					return true
				}
			}
			return false
		}

		So(matches("https://cdn.example.com/PlaceHolder.png"), ShouldBeTrue)
		So(matches("data:image/png;base64,"), ShouldBeTrue)
		So(matches("data:image/png;base64,  "), ShouldBeTrue)
		So(matches("data:image/png;base64,iVBOR"), ShouldBeFalse)
		So(matches("https://cdn.example.com/locations/alley.png"), ShouldBeFalse)
	})
}
