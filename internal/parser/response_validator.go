package parser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"job-agent-go/internal/types"
)

// ExtractJSONObject 从文本中提取第一个完整的JSON对象
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ExtractJSONArray 从文本中提取第一个完整的JSON数组
func ExtractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '[' {
			level++
		} else if text[i] == ']' {
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// SanitizeJSON 会遍历 src，将任何位于字符串字面量内部但并非"真正结束"的双引号写成 \",
// 以保证整个 JSON 在 Go 端能够正常反序列化。
// 它通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断该 " 是否为字符串的结束。
// 反斜杠转义逻辑则正常处理 \\ 和 \"。
func SanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				// 遇到非转义的 "，并且当前不在字符串里 -> 开始一个新字符串
				inStr = true
				b.WriteByte(c)
			} else {
				// 当前在字符串里，检查这是不是字符串的真正结束
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				// 下一个非空白字符是 JSON 语法里的 :, ], }, 或 , 时才是 string-end
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false

		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)

		} else {
			escaped = false
			b.WriteByte(c)
		}
	}

	return b.String()
}

// normalizeContent 去除BOM并保证内容为合法UTF-8
func normalizeContent(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	return content
}

// ParseStructuredResume 解析LLM返回的结构化简历数据
// name/email/skills/experience/education 任一缺失视为无效
func ParseStructuredResume(content string) (*types.StructuredResumeData, error) {
	content = normalizeContent(content)

	jsonStr := ExtractJSONObject(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in model response")
	}

	var data types.StructuredResumeData
	// ① 正常解析
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		// ② 解析失败 -> 自动修复再试一次
		fixedJSONStr := SanitizeJSON(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixedJSONStr), &data); jsonErr != nil {
			return nil, fmt.Errorf("failed to unmarshal resume data after sanitization. Original error: %w. Sanitization error: %v", err, jsonErr)
		}
	}

	if err := ValidateStructuredResume(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ValidateStructuredResume 校验结构化简历数据的必填字段
func ValidateStructuredResume(data *types.StructuredResumeData) error {
	if strings.TrimSpace(data.Name) == "" {
		return fmt.Errorf("resume data missing required field: name")
	}
	if strings.TrimSpace(data.Email) == "" {
		return fmt.Errorf("resume data missing required field: email")
	}
	if data.Skills == nil {
		return fmt.Errorf("resume data missing required field: skills")
	}
	if data.Experience == nil {
		return fmt.Errorf("resume data missing required field: experience")
	}
	if data.Education == nil {
		return fmt.Errorf("resume data missing required field: education")
	}
	return nil
}

// jobMatchEnvelope 兼容 {"matches":[...]} 包装格式
type jobMatchEnvelope struct {
	Matches []json.RawMessage `json:"matches"`
}

// ParseJobMatches 解析LLM返回的岗位匹配结果
// 兼容裸数组和 {"matches":[...]} 两种格式
// 逐条校验，丢弃格式不完整的条目，返回有效条目和丢弃数量
func ParseJobMatches(content string) ([]types.LLMJobMatch, int, error) {
	content = normalizeContent(content)

	var rawEntries []json.RawMessage

	// '{' 先于 '[' 出现时按对象包装格式解析
	objIdx := strings.Index(content, "{")
	arrIdx := strings.Index(content, "[")
	if objIdx != -1 && (arrIdx == -1 || objIdx < arrIdx) {
		if objStr := ExtractJSONObject(content); objStr != "" {
			var envelope jobMatchEnvelope
			if err := json.Unmarshal([]byte(objStr), &envelope); err == nil && envelope.Matches != nil {
				rawEntries = envelope.Matches
			}
		}
	}

	if rawEntries == nil {
		arrStr := ExtractJSONArray(content)
		if arrStr == "" {
			return nil, 0, fmt.Errorf("no JSON array found in model response")
		}
		if err := json.Unmarshal([]byte(arrStr), &rawEntries); err != nil {
			fixed := SanitizeJSON(arrStr)
			if jsonErr := json.Unmarshal([]byte(fixed), &rawEntries); jsonErr != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal job matches after sanitization. Original error: %w. Sanitization error: %v", err, jsonErr)
			}
		}
	}

	matches := make([]types.LLMJobMatch, 0, len(rawEntries))
	dropped := 0
	for _, raw := range rawEntries {
		var m types.LLMJobMatch
		if err := json.Unmarshal(raw, &m); err != nil {
			dropped++
			continue
		}
		if strings.TrimSpace(m.JobID) == "" || len(m.MatchReasons) == 0 {
			dropped++
			continue
		}
		matches = append(matches, m)
	}

	return matches, dropped, nil
}
