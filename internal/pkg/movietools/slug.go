package movietools

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

// Slugify 生成地点缓存键
// 小写，字母和数字（含中日韩文字）保留，其余字符折叠为单个连字符
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var (
	segOnce   sync.Once
	segmenter *gse.Segmenter
)

func loadSegmenter() *gse.Segmenter {
	segOnce.Do(func() {
		var seg gse.Segmenter
		if err := seg.LoadDictEmbed(); err != nil {
			// 分词词典加载失败时退化为按空白切分
			return
		}
		segmenter = &seg
	})
	return segmenter
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "at": true,
	"on": true, "and": true, "to": true, "de": true, "的": true, "之": true,
}

// Tokenize 把名称切分为去重的词集合
// 中文按 gse 分词，英文按空白和标点
func Tokenize(text string) map[string]bool {
	text = strings.ToLower(text)
	var words []string
	if seg := loadSegmenter(); seg != nil {
		words = seg.Cut(text, true)
	} else {
		words = strings.Fields(text)
	}

	tokens := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" || stopWords[w] {
			continue
		}
		tokens[w] = true
	}
	return tokens
}

// FuzzyMatch 名称相似度 [0,1]，按词集合的 Jaccard 系数
// 一方的词集合完整包含另一方时视为 1（"Police Station" 与 "The Police Station Lobby"），
// 只在字面上是子串不算（"Bar" 与 "Crowbar Alley"）
func FuzzyMatch(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return 0
	}
	if la == lb {
		return 1
	}

	ta, tb := Tokenize(la), Tokenize(lb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	if inter == len(ta) || inter == len(tb) {
		return 1
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// IsPlaceholderURL 是否为无效的占位帧
// 空串、包含 placeholder、或者没有数据的 data URL
func IsPlaceholderURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return true
	}
	if strings.Contains(strings.ToLower(url), "placeholder") {
		return true
	}
	if strings.HasPrefix(url, "data:") {
		_, payload, ok := strings.Cut(url, ",")
		return !ok || strings.TrimSpace(payload) == ""
	}
	return false
}
