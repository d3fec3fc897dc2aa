// Package jsonrepair 容错解析模型返回的 JSON
//
// 大模型输出经常被 markdown 代码块包裹、夹带说明文字、因 max_tokens 截断，
// 或者带有尾逗号。Repair 只做结构层面的修复，不猜测缺失的内容。
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON 文本中找不到 JSON 对象或数组
var ErrNoJSON = errors.New("no JSON object or array found")

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)(?:```|$)")

// Unmarshal 先按标准 JSON 解析，失败后修复再解析
func Unmarshal(raw string, v any) error {
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	repaired, err := Repair(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("unmarshal repaired json: %w", err)
	}
	return nil
}

// StripFences 移除 markdown 代码块标记，保留代码块内容
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "```") {
		return content
	}
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// Repair 修复常见的结构性问题：
// 代码块/前后缀说明文字、字符串中的裸换行、未闭合的字符串、尾逗号、
// 截断的键或字面量、未配平的括号（按栈顺序补齐）。
func Repair(raw string) (string, error) {
	s := StripFences(raw)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	s = s[start:]

	var (
		out      strings.Builder
		stack    []byte
		inString bool
		escaped  bool
	)
	out.Grow(len(s) + 16)

scan:
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				out.WriteByte(ch)
			case ch == '\\':
				escaped = true
				out.WriteByte(ch)
			case ch == '"':
				inString = false
				out.WriteByte(ch)
			case ch == '\n':
				out.WriteString(`\n`)
			case ch == '\r':
				out.WriteString(`\r`)
			case ch == '\t':
				out.WriteString(`\t`)
			default:
				out.WriteByte(ch)
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out.WriteByte(ch)
		case '{':
			stack = append(stack, '}')
			out.WriteByte(ch)
		case '[':
			stack = append(stack, ']')
			out.WriteByte(ch)
		case '}', ']':
			depth := lastIndexByte(stack, ch)
			if depth < 0 {
				// 多余的闭合符号
				continue
			}
			for len(stack) > depth {
				closer := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				trimDangling(&out)
				out.WriteByte(closer)
			}
			if len(stack) == 0 {
				// 根值结束，丢弃后面的说明文字
				break scan
			}
		default:
			out.WriteByte(ch)
		}
	}

	if inString {
		text := out.String()
		if escaped {
			text = text[:len(text)-1]
		}
		out.Reset()
		out.WriteString(text)
		out.WriteByte('"')
	}

	for len(stack) > 0 {
		closer := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		trimDangling(&out)
		out.WriteByte(closer)
	}

	return removeTrailingCommas(out.String()), nil
}

// trimDangling 处理闭合前的悬空内容：尾逗号、缺值的冒号、缺冒号的键、截断的字面量
func trimDangling(out *strings.Builder) {
	text := strings.TrimRight(out.String(), " \t\r\n")

	for {
		switch {
		case strings.HasSuffix(text, ","):
			text = strings.TrimRight(text[:len(text)-1], " \t\r\n")
			continue
		case strings.HasSuffix(text, ":"):
			text += "null"
		case strings.HasSuffix(text, `"`) && isDanglingKey(text):
			text += ":null"
		default:
			text = completeLiteral(text)
		}
		break
	}

	out.Reset()
	out.WriteString(text)
}

// isDanglingKey 判断结尾的字符串是否为对象中尚未给出值的键
func isDanglingKey(text string) bool {
	open := stringStart(text)
	if open <= 0 {
		return false
	}
	before := strings.TrimRight(text[:open], " \t\r\n")
	if before == "" {
		return false
	}
	last := before[len(before)-1]
	if last != '{' && last != ',' {
		return false
	}
	// 逗号后的字符串只有在对象内才是键
	return last == '{' || enclosingContainer(before) == '{'
}

// stringStart 返回结尾字符串的起始引号位置
func stringStart(text string) int {
	for i := len(text) - 2; i >= 0; i-- {
		if text[i] != '"' {
			continue
		}
		backslashes := 0
		for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

// enclosingContainer 返回文本末尾所在的容器类型（'{' 或 '['）
func enclosingContainer(text string) byte {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1]
}

func completeLiteral(text string) string {
	end := len(text)
	start := end
	for start > 0 && text[start-1] >= 'a' && text[start-1] <= 'z' {
		start--
	}
	if start == end {
		return text
	}
	partial := text[start:end]
	for _, lit := range []string{"true", "false", "null"} {
		if partial != lit && strings.HasPrefix(lit, partial) {
			return text[:start] + lit
		}
	}
	return text
}

// removeTrailingCommas 删除紧跟在 } 或 ] 之前的逗号（忽略字符串内部）
func removeTrailingCommas(text string) string {
	var out strings.Builder
	out.Grow(len(text))
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			out.WriteByte(ch)
			continue
		}
		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(text) && strings.IndexByte(" \t\r\n", text[j]) >= 0 {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				continue
			}
		}
		out.WriteByte(ch)
	}
	return out.String()
}

func lastIndexByte(stack []byte, b byte) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == b {
			return i
		}
	}
	return -1
}
