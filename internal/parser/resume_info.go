package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"job-agent-go/internal/types"

	"gorm.io/datatypes"
)

// ContactInfo 从简历文本中启发式提取的联系信息
type ContactInfo struct {
	Name    string
	Email   string
	Phone   string
	Summary string
}

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	// 摘要段通常跟在 Summary/Objective/Profile 等标题之后
	summaryRe = regexp.MustCompile(`(?i)(?:Summary|Objective|Profile|About|Professional Summary)[:\s]*([^\n]+(?:\n[^\n]+)*)`)
)

// ExtractContactInfo 不依赖模型的轻量联系信息提取
// 模型不可用时用于文档标题等场景的兜底
func ExtractContactInfo(text string) ContactInfo {
	var info ContactInfo

	if m := emailRe.FindString(text); m != "" {
		info.Email = m
	}
	if m := phoneRe.FindString(text); m != "" {
		info.Phone = m
	}

	// 第一行非空文本通常是姓名
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) < 50 && !strings.Contains(line, "@") {
			info.Name = line
		}
		break
	}

	if m := summaryRe.FindStringSubmatch(text); len(m) > 1 {
		summary := strings.TrimSpace(m[1])
		if len(summary) > 500 {
			summary = summary[:500]
		}
		info.Summary = summary
	}

	return info
}

// MarshalStructuredResume 将结构化简历数据序列化为数据库JSON列
func MarshalStructuredResume(data *types.StructuredResumeData) (datatypes.JSON, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
