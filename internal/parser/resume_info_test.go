package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleResumeText = `Jane Doe
jane.doe@example.com
(555) 123-4567

Professional Summary: Backend engineer with 8 years of experience
building distributed systems in Go.

Experience
Senior Engineer, Acme Corp`

func TestExtractContactInfo(t *testing.T) {
	info := ExtractContactInfo(sampleResumeText)

	assert.Equal(t, "Jane Doe", info.Name)
	assert.Equal(t, "jane.doe@example.com", info.Email)
	assert.Equal(t, "(555) 123-4567", info.Phone)
	assert.Contains(t, info.Summary, "Backend engineer")
}

func TestExtractContactInfo_FirstLineTooLong(t *testing.T) {
	text := "This first line is way too long to plausibly be a person's name at all\njane@example.com"
	info := ExtractContactInfo(text)
	assert.Empty(t, info.Name, "过长的首行不应该当作姓名")
	assert.Equal(t, "jane@example.com", info.Email)
}

func TestExtractContactInfo_EmailFirstLine(t *testing.T) {
	info := ExtractContactInfo("jane@example.com\nJane Doe")
	assert.Empty(t, info.Name, "含@的首行不应该当作姓名")
}

func TestExtractContactInfo_Empty(t *testing.T) {
	info := ExtractContactInfo("")
	assert.Empty(t, info.Name)
	assert.Empty(t, info.Email)
	assert.Empty(t, info.Phone)
	assert.Empty(t, info.Summary)
}

func TestExtractContactInfo_SummaryCapped(t *testing.T) {
	long := "Summary: "
	for i := 0; i < 200; i++ {
		long += "very long "
	}
	info := ExtractContactInfo(long)
	assert.LessOrEqual(t, len(info.Summary), 500, "摘要应该截断到500字符")
}
