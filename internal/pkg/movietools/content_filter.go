package movietools

import (
	"regexp"
	"strings"
)

// ContentFilter 内容过滤器
// 图片和视频服务会拒绝含有某些词的提示词，提交前先替换或移除
type ContentFilter struct {
	// 替换为更中性的说法
	wordReplacements map[string]string

	// 直接移除
	forbiddenWords map[string]bool
}

// NewContentFilter 创建内容过滤器实例
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		wordReplacements: map[string]string{
			"corpse":    "motionless figure",
			"dead body": "motionless figure",
			"blood":     "dark stain",
			"bloody":    "stained",
			"gore":      "aftermath",
			"murder":    "crime",
			"murdered":  "found",
			"killing":   "crime",
			"suicide":   "tragedy",
			"尸体":        "静止的身影",
			"血":         "污迹",
			"谋杀":        "案件",
			"自杀":        "悲剧",
		},
		forbiddenWords: map[string]bool{
			"nude":      true,
			"naked":     true,
			"sexual":    true,
			"explicit":  true,
			"watermark": true,
			"色情":        true,
			"裸体":        true,
		},
	}
}

// CheckResult 检查结果
type CheckResult struct {
	IsSafe bool     // 是否通过检查
	Issues []string // 发现的问题列表
}

// CheckContent 检查内容是否包含需要移除的词
func (cf *ContentFilter) CheckContent(content string) *CheckResult {
	result := &CheckResult{
		IsSafe: true,
		Issues: make([]string, 0),
	}

	lower := strings.ToLower(content)
	for word := range cf.forbiddenWords {
		if strings.Contains(lower, word) {
			result.IsSafe = false
			result.Issues = append(result.Issues, "forbidden word: "+word)
		}
	}
	return result
}

// FilterContent 替换敏感词并移除违禁词
// 英文按词边界匹配，不区分大小写
func (cf *ContentFilter) FilterContent(content string) string {
	filtered := content

	// 长词先替换，避免 "blood" 抢先命中 "bloody"
	for _, original := range sortedByLength(cf.wordReplacements) {
		filtered = replaceWord(filtered, original, cf.wordReplacements[original])
	}
	for word := range cf.forbiddenWords {
		filtered = replaceWord(filtered, word, "")
	}

	return cleanWhitespace(filtered)
}

func replaceWord(content, word, replacement string) string {
	if !isASCII(word) {
		return strings.ReplaceAll(content, word, replacement)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return re.ReplaceAllString(content, replacement)
}

func sortedByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// 插入排序，词表很小
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

var multiSpace = regexp.MustCompile(`[ \t]{2,}`)

// cleanWhitespace 清理多余的空格
func cleanWhitespace(content string) string {
	content = multiSpace.ReplaceAllString(content, " ")
	content = strings.ReplaceAll(content, " ,", ",")
	content = strings.ReplaceAll(content, " .", ".")
	return strings.TrimSpace(content)
}
