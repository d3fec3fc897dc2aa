package movietools

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"baytt/internal/model/movie"
)

var quotedSpanRe = regexp.MustCompile(`"[^"]*"|“[^”]*”|「[^」]*」|『[^』]*』`)

// StripQuotedDialogue 从视觉提示词中去掉所有台词文本和引号内容
// 台词由语音合成单独生成，不能出现在画面提示词里
func StripQuotedDialogue(text string, lines []string) string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		text = replaceFold(text, line, "")
	}
	text = quotedSpanRe.ReplaceAllString(text, "")
	return cleanWhitespace(text)
}

// replaceFold 不区分大小写的全部替换
func replaceFold(s, old, repl string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(old))
	return re.ReplaceAllLiteralString(s, repl)
}

// TruncateToBudget 截断到 max 个字符（按 rune 计）
// 优先在最后一个句号，其次逗号处截断
func TruncateToBudget(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)[:max]

	if i := lastRuneIndex(runes, ".。!！?？"); i > max/2 {
		return strings.TrimSpace(string(runes[:i+1]))
	}
	if i := lastRuneIndex(runes, ",，;；"); i > max/2 {
		return strings.TrimSpace(string(runes[:i]))
	}
	return strings.TrimSpace(string(runes))
}

// lastRuneIndex 最后一个属于 chars 的字符的 rune 下标，没有返回 -1
func lastRuneIndex(runes []rune, chars string) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(chars, runes[i]) {
			return i
		}
	}
	return -1
}

// PromptBuilder 图片与视频提示词构建器
type PromptBuilder struct {
	bible  *movie.VisualBible
	filter *ContentFilter
}

// NewPromptBuilder 创建提示词构建器
func NewPromptBuilder(bible *movie.VisualBible) *PromptBuilder {
	return &PromptBuilder{
		bible:  bible,
		filter: NewContentFilter(),
	}
}

// BuildLocationPrompt 地点参考图提示词
// 风格 + 地点描述 + 时间段 + 天气 + 场景提示，明确不含人物
func (b *PromptBuilder) BuildLocationPrompt(scene *movie.Scene) string {
	h := scene.Header
	var parts []string

	if style := b.bible.StyleLine(); style != "" {
		parts = append(parts, "Cinematic establishing shot, "+style)
	}

	desc := h.Location
	if loc, ok := b.bible.Location(h.Location); ok && loc.Description != "" {
		desc = fmt.Sprintf("%s: %s", loc.Name, loc.Description)
	}
	setting := "exterior"
	if h.Interior {
		setting = "interior"
	}
	parts = append(parts, fmt.Sprintf("%s, %s", desc, setting))

	timeOfDay := movie.NormalizeTimeOfDay(h.TimeOfDay)
	parts = append(parts, fmt.Sprintf("time of day: %s", timeOfDay))
	if lighting := b.bible.Lighting(timeOfDay); lighting != "" {
		parts = append(parts, "lighting: "+lighting)
	}
	parts = append(parts, "weather: "+movie.NormalizeWeather(h.Weather))

	if scene.Visual.Mood != "" {
		parts = append(parts, "mood: "+scene.Visual.Mood)
	}
	if len(scene.Continuity.PersistentElements) > 0 {
		parts = append(parts, "set details: "+strings.Join(scene.Continuity.PersistentElements, ", "))
	}

	parts = append(parts, "empty scene, no people, no characters, no figures, no text")
	return b.filter.FilterContent(strings.Join(parts, ". "))
}

// BuildScenePrompt 图生视频提示词：只描述画面
// 去掉台词与引号，过滤敏感词，截断到 maxChars
func (b *PromptBuilder) BuildScenePrompt(scene *movie.Scene, maxChars int) string {
	var parts []string

	if style := b.bible.StyleLine(); style != "" {
		parts = append(parts, style)
	}
	if scene.Visual.Camera != "" {
		parts = append(parts, "Camera: "+scene.Visual.Camera)
	} else if b.bible.Camera.Movement != "" {
		parts = append(parts, "Camera: "+b.bible.Camera.Movement)
	}
	lighting := scene.Visual.Lighting
	if lighting == "" {
		lighting = b.bible.Lighting(scene.Header.TimeOfDay)
	}
	if lighting != "" {
		parts = append(parts, "Lighting: "+lighting)
	}

	for _, c := range scene.Characters {
		desc := c.Name
		if profile, ok := b.bible.Character(c.Name); ok && profile.Appearance != "" {
			desc += ", " + profile.Appearance
		}
		wardrobe := c.Wardrobe
		if wardrobe == "" {
			if profile, ok := b.bible.Character(c.Name); ok {
				wardrobe = profile.Wardrobe
			}
		}
		if wardrobe != "" {
			desc += ", wearing " + wardrobe
		}
		if c.Blocking != "" {
			desc += ", " + c.Blocking
		}
		parts = append(parts, desc)
	}

	if len(scene.Action) > 0 {
		parts = append(parts, "Action: "+strings.Join(scene.Action, " "))
	}
	if len(scene.Visual.Shots) > 0 {
		parts = append(parts, "Shots: "+strings.Join(scene.Visual.Shots, "; "))
	}
	if len(b.bible.Forbidden) > 0 {
		parts = append(parts, "Avoid: "+strings.Join(b.bible.Forbidden, ", "))
	}

	prompt := strings.Join(parts, ". ")
	prompt = StripQuotedDialogue(prompt, scene.DialogueTexts())
	prompt = b.filter.FilterContent(prompt)
	return TruncateToBudget(prompt, maxChars)
}
