package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject(`前缀文本 {"a": 1} 后缀`), "应该提取出完整对象")
	assert.Equal(t, `{"a": {"b": 2}}`, ExtractJSONObject(`{"a": {"b": 2}}`), "嵌套对象应该整体提取")
	assert.Equal(t, "", ExtractJSONObject("没有对象"), "无对象时返回空串")
	assert.Equal(t, "", ExtractJSONObject(`{"未闭合": 1`), "未闭合对象返回空串")
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[1, 2, 3]`, ExtractJSONArray("```json\n[1, 2, 3]\n```"))
	assert.Equal(t, `[{"a": [1]}]`, ExtractJSONArray(`结果: [{"a": [1]}]`), "嵌套数组应该整体提取")
	assert.Equal(t, "", ExtractJSONArray("没有数组"))
}

func TestSanitizeJSON(t *testing.T) {
	// 字符串内部未转义的引号应该被修复
	broken := `{"desc": "He said "hello" to me"}`
	fixed := SanitizeJSON(broken)
	assert.Equal(t, `{"desc": "He said \"hello\" to me"}`, fixed)

	// 已经合法的JSON保持不变
	valid := `{"a": "b", "c": ["d", "e"]}`
	assert.Equal(t, valid, SanitizeJSON(valid))
}

func TestParseStructuredResume(t *testing.T) {
	content := "```json\n" + `{
		"name": "Jane Doe",
		"email": "jane@example.com",
		"phone": "123-456-7890",
		"skills": ["Go"],
		"experience": [{"title": "Engineer", "company": "Acme"}],
		"education": [{"degree": "BSc", "institution": "MIT"}]
	}` + "\n```"

	data, err := ParseStructuredResume(content)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", data.Name)
	assert.Equal(t, []string{"Go"}, data.Skills)
	require.Len(t, data.Experience, 1)
	assert.Equal(t, "Acme", data.Experience[0].Company)
}

func TestParseStructuredResume_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"缺少name", `{"email": "a@b.com", "skills": [], "experience": [], "education": []}`},
		{"缺少email", `{"name": "Jane", "skills": [], "experience": [], "education": []}`},
		{"缺少skills", `{"name": "Jane", "email": "a@b.com", "experience": [], "education": []}`},
		{"缺少experience", `{"name": "Jane", "email": "a@b.com", "skills": [], "education": []}`},
		{"缺少education", `{"name": "Jane", "email": "a@b.com", "skills": [], "experience": []}`},
		{"没有JSON", `无法解析简历`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStructuredResume(tc.content)
			assert.Error(t, err)
		})
	}
}

func TestParseStructuredResume_EmptyArraysAreValid(t *testing.T) {
	// 必填字段只要求存在，空数组是合法的
	data, err := ParseStructuredResume(`{"name": "Jane", "email": "a@b.com", "skills": [], "experience": [], "education": []}`)
	require.NoError(t, err)
	assert.Empty(t, data.Skills)
}

func TestParseJobMatches_BareArray(t *testing.T) {
	content := `[
		{"jobId": "JOB-001", "relevanceScore": 95, "matchReasons": ["fit"]},
		{"jobId": "JOB-002", "relevanceScore": 80, "matchReasons": ["partial"]}
	]`
	matches, dropped, err := ParseJobMatches(content)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, matches, 2)
	assert.Equal(t, "JOB-001", matches[0].JobID)
	assert.Equal(t, 95, matches[0].RelevanceScore)
}

func TestParseJobMatches_Envelope(t *testing.T) {
	content := `{"matches": [{"jobId": "JOB-001", "relevanceScore": 90, "matchReasons": ["fit"]}]}`
	matches, dropped, err := ParseJobMatches(content)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, matches, 1)
	assert.Equal(t, "JOB-001", matches[0].JobID)
}

func TestParseJobMatches_DropsMalformedEntries(t *testing.T) {
	content := `[
		{"jobId": "JOB-001", "relevanceScore": 90, "matchReasons": ["fit"]},
		{"jobId": "", "relevanceScore": 80, "matchReasons": ["no id"]},
		{"jobId": "JOB-003", "relevanceScore": 70},
		{"jobId": "JOB-004", "relevanceScore": 60, "matchReasons": []}
	]`
	matches, dropped, err := ParseJobMatches(content)
	require.NoError(t, err)
	assert.Equal(t, 3, dropped, "空jobId、缺少matchReasons和空matchReasons的条目都应该丢弃")
	require.Len(t, matches, 1)
	assert.Equal(t, "JOB-001", matches[0].JobID)
}

func TestParseJobMatches_EmptyMatchReasonsDropped(t *testing.T) {
	// matchReasons至少要有一条理由，空数组视为畸形条目
	content := `[
		{"jobId": "JOB-001", "relevanceScore": 90, "matchReasons": []},
		{"jobId": "JOB-002", "relevanceScore": 80, "matchReasons": ["fit"]}
	]`
	matches, dropped, err := ParseJobMatches(content)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, matches, 1)
	assert.Equal(t, "JOB-002", matches[0].JobID)
}

func TestParseJobMatches_NoArray(t *testing.T) {
	_, _, err := ParseJobMatches("抱歉，我无法完成匹配。")
	assert.Error(t, err, "完全没有数组时应该报错")
}

func TestParseJobMatches_MarkdownFence(t *testing.T) {
	content := "```json\n[{\"jobId\": \"JOB-001\", \"relevanceScore\": 88, \"matchReasons\": [\"fit\"]}]\n```"
	matches, dropped, err := ParseJobMatches(content)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, matches, 1)
}
