package movietools

import (
	"regexp"
	"strings"
)

// TextCleaner 文本清理器，用于清理待合成的台词
type TextCleaner struct{}

// NewTextCleaner 创建文本清理器实例
func NewTextCleaner() *TextCleaner {
	return &TextCleaner{}
}

var (
	parenRe      = regexp.MustCompile(`\([^)]*\)`)
	bracketRe    = regexp.MustCompile(`\[[^\]]*\]`)
	braceRe      = regexp.MustCompile(`\{[^}]*\}`)
	cnParenRe    = regexp.MustCompile(`（[^）]*）`)
	cnBracketRe  = regexp.MustCompile(`【[^】]*】`)
	asteriskRe   = regexp.MustCompile(`\*[^*]*\*`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanForSpeech 移除括号里的表演提示（例如 "(whispering)"、"[sighs]"），
// 以及包裹台词的引号，返回可直接合成的文本
func (tc *TextCleaner) CleanForSpeech(text string) string {
	for _, re := range []*regexp.Regexp{parenRe, bracketRe, braceRe, cnParenRe, cnBracketRe, asteriskRe} {
		text = re.ReplaceAllString(text, "")
	}

	text = strings.ReplaceAll(text, "&", " and ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"“”「」'`)
	return strings.TrimSpace(text)
}
