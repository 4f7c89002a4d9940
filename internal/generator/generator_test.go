package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"job-agent-go/internal/constants"
	"job-agent-go/internal/llm"
	"job-agent-go/internal/storage/models"
	"job-agent-go/internal/types"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// mockStore 模拟持久化层
type mockStore struct {
	resumes       map[uint64]*models.Resume
	jobs          map[uint64]*models.Job
	activeJobs    []models.Job
	listActiveErr error
	createDocErr  error

	createdDocs   []*models.GeneratedDocument
	extractedText map[uint64]string
	extractedData map[uint64]datatypes.JSON
}

func newMockStore() *mockStore {
	return &mockStore{
		resumes:       make(map[uint64]*models.Resume),
		jobs:          make(map[uint64]*models.Job),
		extractedText: make(map[uint64]string),
		extractedData: make(map[uint64]datatypes.JSON),
	}
}

func (m *mockStore) GetResumeByID(ctx context.Context, id uint64) (*models.Resume, error) {
	return m.resumes[id], nil
}

func (m *mockStore) GetJobByID(ctx context.Context, id uint64) (*models.Job, error) {
	return m.jobs[id], nil
}

func (m *mockStore) ListActiveJobs(ctx context.Context) ([]models.Job, error) {
	return m.activeJobs, m.listActiveErr
}

func (m *mockStore) CreateGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument) error {
	if m.createDocErr != nil {
		return m.createDocErr
	}
	doc.ID = uint64(len(m.createdDocs) + 1)
	m.createdDocs = append(m.createdDocs, doc)
	return nil
}

func (m *mockStore) UpdateResumeExtractedText(ctx context.Context, id uint64, text string) error {
	m.extractedText[id] = text
	return nil
}

func (m *mockStore) UpdateResumeExtractedData(ctx context.Context, id uint64, data datatypes.JSON) error {
	m.extractedData[id] = data
	return nil
}

// mockModel 模拟模型调用，按任务名返回预设内容并记录调用和提示词
type mockModel struct {
	responses map[string]string
	errByTask map[string]error
	failOn    map[int]error // 按调用序号(从1开始)注入失败

	calls   []string
	prompts []string
}

func (m *mockModel) Invoke(ctx context.Context, task string, messages []*schema.Message, format *llm.ResponseFormat) (string, error) {
	m.calls = append(m.calls, task)
	if len(messages) > 0 {
		m.prompts = append(m.prompts, messages[len(messages)-1].Content)
	} else {
		m.prompts = append(m.prompts, "")
	}
	if err, ok := m.failOn[len(m.calls)]; ok {
		return "", err
	}
	if err, ok := m.errByTask[task]; ok {
		return "", err
	}
	if resp, ok := m.responses[task]; ok {
		return resp, nil
	}
	return "generated content", nil
}

// mockTextSource 模拟简历文本来源
type mockTextSource struct {
	text  string
	err   error
	calls int
}

func (m *mockTextSource) GetText(ctx context.Context, fileKey, fileName, mimeType, storedText string) (string, error) {
	m.calls++
	return m.text, m.err
}

func newTestGenerator(t *testing.T, store *mockStore, text *mockTextSource, model *mockModel) *Generator {
	t.Helper()
	gen, err := NewGenerator(&Components{
		Store:      store,
		TextSource: text,
		Model:      model,
	}, nil)
	require.NoError(t, err, "创建生成器失败")
	return gen
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

const validResumeJSON = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"phone": "123-456-7890",
	"summary": "Backend engineer",
	"skills": ["Go", "MySQL"],
	"experience": [{"title": "Engineer", "company": "Acme", "startDate": "2020-01", "endDate": "2023-06", "description": "Built services"}],
	"education": [{"degree": "BSc", "institution": "MIT", "graduationDate": "2019"}]
}`

func TestNewGenerator_RequiredComponents(t *testing.T) {
	_, err := NewGenerator(nil, nil)
	assert.Error(t, err, "缺少组件时应该报错")

	_, err = NewGenerator(&Components{Store: newMockStore()}, nil)
	assert.Error(t, err, "缺少模型时应该报错")
}

func TestGenerateResume_WithoutResumeRef(t *testing.T) {
	store := newMockStore()
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	doc, err := gen.GenerateResume(context.Background(), 1, ResumeRequest{AdditionalInfo: "senior roles"})
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeResume, doc.DocumentType)
	assert.True(t, strings.HasPrefix(doc.Title, "Generated Resume - "), "标题应该带日期后缀")
	assert.Equal(t, []string{"generate_resume"}, model.calls)
	assert.Len(t, store.createdDocs, 1, "文档应该已持久化")
}

func TestGenerateResume_UsesCachedStructuredData(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{
		ID:            10,
		UserID:        1,
		ExtractedData: datatypes.JSON(validResumeJSON),
	}
	text := &mockTextSource{text: "raw resume text"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, text, model)

	_, err := gen.GenerateResume(context.Background(), 1, ResumeRequest{ResumeID: uint64Ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, 0, text.calls, "已有结构化数据时不应该再提取文本")
}

func TestGenerateResume_UnownedResumeNotFound(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 2}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.GenerateResume(context.Background(), 1, ResumeRequest{ResumeID: uint64Ptr(10)})
	assert.True(t, IsNotFound(err), "他人的简历应该返回NotFound")
	assert.Empty(t, model.calls, "引用解析失败时不应该消耗模型调用")
}

func TestGenerateResume_ExtractionFailureDegrades(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, FileKey: "1/key.pdf", MimeType: constants.MimePDF}
	text := &mockTextSource{err: errors.New("tika unreachable")}
	model := &mockModel{}
	gen := newTestGenerator(t, store, text, model)

	doc, err := gen.GenerateResume(context.Background(), 1, ResumeRequest{ResumeID: uint64Ptr(10)})
	require.NoError(t, err, "文本提取失败应该降级而不是中止")
	assert.NotNil(t, doc)
	assert.Equal(t, []string{"generate_resume"}, model.calls)
}

func TestGenerateCoverLetter_JobNotFound(t *testing.T) {
	store := newMockStore()
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.GenerateCoverLetter(context.Background(), 1, CoverLetterRequest{JobID: 99})
	assert.True(t, IsNotFound(err), "岗位不存在应该返回NotFound")
	assert.Empty(t, model.calls)
}

func TestGenerateCoverLetter_Success(t *testing.T) {
	store := newMockStore()
	store.jobs[5] = &models.Job{ID: 5, JobID: "JOB-001", Title: "Go Engineer", Company: "Acme", Status: constants.JobStatusActive}
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "resume body"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{text: "resume body"}, model)

	doc, err := gen.GenerateCoverLetter(context.Background(), 1, CoverLetterRequest{JobID: 5, ResumeID: uint64Ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeCoverLetter, doc.DocumentType)
	assert.Equal(t, "Cover Letter - Go Engineer at Acme", doc.Title)
	require.NotNil(t, doc.JobID)
	assert.Equal(t, uint64(5), *doc.JobID)
}

func TestGenerateRecommendation_EmptyRelationshipInfo(t *testing.T) {
	store := newMockStore()
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.GenerateRecommendationLetter(context.Background(), 1, RecommendationRequest{RelationshipInfo: "   "})
	assert.True(t, IsValidation(err), "空的relationshipInfo应该校验失败")
	assert.Empty(t, model.calls, "校验失败时不应该消耗模型调用")
}

func TestGenerateRecommendation_WithTargetJob(t *testing.T) {
	store := newMockStore()
	store.jobs[5] = &models.Job{ID: 5, Title: "Team Lead", Company: "Acme"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	doc, err := gen.GenerateRecommendationLetter(context.Background(), 1, RecommendationRequest{
		RelationshipInfo: "I managed Jane for 3 years",
		JobID:            uint64Ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeRecommendation, doc.DocumentType)
	require.NotNil(t, doc.JobID)
	assert.Equal(t, uint64(5), *doc.JobID)
}

func TestGenerateFromResume_InvalidDocumentType(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.GenerateFromResume(context.Background(), 1, TemplateRequest{ResumeID: 10, DocumentType: "poem"})
	assert.True(t, IsValidation(err), "不支持的文档类型应该校验失败")
	assert.Empty(t, model.calls)
}

func TestGenerateFromResume_TitleFromResumeName(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "Jane Doe\njane@example.com\nGo developer"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{text: "Jane Doe\njane@example.com\nGo developer"}, model)

	doc, err := gen.GenerateFromResume(context.Background(), 1, TemplateRequest{ResumeID: 10, DocumentType: constants.DocTypeResume})
	require.NoError(t, err)
	assert.Equal(t, "Professional Resume - Jane Doe", doc.Title)
}

func TestFindMatchingJobs_LimitValidation(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	for _, limit := range []int{0, -1, 21, 100} {
		_, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: limit})
		assert.True(t, IsValidation(err), "limit=%d 应该校验失败", limit)
	}
	assert.Empty(t, model.calls, "limit校验失败时不应该消耗模型调用")
}

func TestFindMatchingJobs_UnownedResume(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 2}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: 5})
	assert.True(t, IsNotFound(err))
	assert.Empty(t, model.calls)
}

func TestFindMatchingJobs_NoActiveJobs(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "text"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{text: "text"}, model)

	matches, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, matches, "没有在招岗位时应该返回空结果")
	assert.Empty(t, model.calls, "没有在招岗位时不应该消耗模型调用")
}

func TestFindMatchingJobs_OrderLimitAndUnknownIDs(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "text"}
	store.activeJobs = []models.Job{
		{ID: 1, JobID: "JOB-001", Title: "A"},
		{ID: 2, JobID: "JOB-002", Title: "B"},
		{ID: 3, JobID: "JOB-003", Title: "C"},
	}
	model := &mockModel{responses: map[string]string{
		"job_match": `{"matches": [
			{"jobId": "JOB-003", "relevanceScore": 92, "matchReasons": ["strong fit"]},
			{"jobId": "JOB-999", "relevanceScore": 80, "matchReasons": ["unknown job"]},
			{"jobId": "JOB-001", "relevanceScore": 75, "matchReasons": ["partial fit"]},
			{"jobId": "JOB-002", "relevanceScore": 60, "matchReasons": ["weak fit"]}
		]}`,
	}}
	gen := newTestGenerator(t, store, &mockTextSource{text: "text"}, model)

	matches, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2, "结果数不应该超过limit")
	// 无法解析的JOB-999被丢弃，剩余结果保持模型给出的顺序
	assert.Equal(t, "JOB-003", matches[0].Job.JobID)
	assert.Equal(t, 92, matches[0].RelevanceScore)
	assert.Equal(t, "JOB-001", matches[1].Job.JobID)
}

func TestFindMatchingJobs_MalformedModelOutput(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "text"}
	store.activeJobs = []models.Job{{ID: 1, JobID: "JOB-001", Title: "A"}}
	model := &mockModel{responses: map[string]string{
		"job_match": "I could not produce any matches, sorry.",
	}}
	gen := newTestGenerator(t, store, &mockTextSource{text: "text"}, model)

	_, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationInvalid, "完全无法解析的输出应该是致命错误")
}

func TestFindMatchingJobs_MatchesNotPersisted(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, ExtractedText: "text"}
	store.activeJobs = []models.Job{{ID: 1, JobID: "JOB-001", Title: "A"}}
	model := &mockModel{responses: map[string]string{
		"job_match": `[{"jobId": "JOB-001", "relevanceScore": 90, "matchReasons": ["fit"]}]`,
	}}
	gen := newTestGenerator(t, store, &mockTextSource{text: "text"}, model)

	matches, err := gen.FindMatchingJobs(context.Background(), 1, MatchRequest{ResumeID: 10, Limit: 5})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Empty(t, store.createdDocs, "匹配结果不应该持久化")
}

func TestExtractStructuredData(t *testing.T) {
	store := newMockStore()
	resume := &models.Resume{ID: 10, UserID: 1}
	store.resumes[10] = resume
	model := &mockModel{responses: map[string]string{
		"extract_structured_data": "```json\n" + validResumeJSON + "\n```",
	}}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	data, err := gen.ExtractStructuredData(context.Background(), resume, "resume text")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", data.Name)
	assert.Equal(t, "jane@example.com", data.Email)
	assert.NotEmpty(t, store.extractedData[10], "结构化数据应该回填到简历记录")
}

func TestExtractStructuredData_InvalidOutput(t *testing.T) {
	store := newMockStore()
	resume := &models.Resume{ID: 10, UserID: 1}
	store.resumes[10] = resume
	model := &mockModel{responses: map[string]string{
		"extract_structured_data": `{"name": "Jane"}`,
	}}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	_, err := gen.ExtractStructuredData(context.Background(), resume, "resume text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationInvalid, "缺少必填字段应该校验失败")
	assert.Empty(t, store.extractedData, "校验失败时不应该回填数据")
}

func TestAutoGenerateOnUpload_AllSucceed(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, FileKey: "1/key.pdf"}
	model := &mockModel{responses: map[string]string{
		"extract_structured_data": validResumeJSON,
	}}
	gen := newTestGenerator(t, store, &mockTextSource{text: "Jane Doe\nresume text"}, model)

	outcomes := gen.AutoGenerateOnUpload(context.Background(), 1, 10)
	require.Len(t, outcomes, 4, "应该有提取+三份文档共4个结果")
	for _, o := range outcomes {
		assert.True(t, o.Succeeded, "任务%s应该成功", o.Task)
	}
	require.Len(t, store.createdDocs, 3, "三份文档都应该持久化")

	// 原始文本随结构化数据一起回填
	assert.Equal(t, "Jane Doe\nresume text", store.extractedText[10], "提取文本应该回填到简历记录")
	assert.NotEmpty(t, store.extractedData[10])

	// 三份文档的标题都使用结构化数据中的姓名
	assert.Equal(t, "Professional Resume - Jane Doe", store.createdDocs[0].Title)
	assert.Equal(t, "General Cover Letter - Jane Doe", store.createdDocs[1].Title)
	assert.Equal(t, "Recommendation Letter Template - Jane Doe", store.createdDocs[2].Title)
}

func TestAutoGenerateOnUpload_ResumeUsesStructuredData(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, FileKey: "1/key.pdf"}
	model := &mockModel{responses: map[string]string{
		"extract_structured_data": validResumeJSON,
	}}
	gen := newTestGenerator(t, store, &mockTextSource{text: "raw resume text"}, model)

	outcomes := gen.AutoGenerateOnUpload(context.Background(), 1, 10)
	require.Len(t, outcomes, 4)
	require.Equal(t, []string{"extract_structured_data", "generate_resume", "generate_from_resume", "generate_from_resume"}, model.calls)

	// 简历文档基于提取出的结构化数据生成，而不是原始文本
	resumePrompt := model.prompts[1]
	assert.Contains(t, resumePrompt, "using this structured data", "简历生成应该走结构化数据提示词")
	assert.Contains(t, resumePrompt, "Jane Doe")
	assert.NotContains(t, resumePrompt, "raw resume text")
}

func TestAutoGenerateOnUpload_ExtractionFailureAborts(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, FileKey: "1/key.pdf"}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{err: errors.New("source unavailable")}, model)

	outcomes := gen.AutoGenerateOnUpload(context.Background(), 1, 10)
	require.Len(t, outcomes, 1, "提取失败应该中止整个流程")
	assert.Equal(t, types.AutoGenTaskExtract, outcomes[0].Task)
	assert.False(t, outcomes[0].Succeeded)
	assert.Empty(t, model.calls, "提取失败后不应该再调用模型")
}

func TestAutoGenerateOnUpload_PartialFailure(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 1, FileKey: "1/key.pdf"}
	// 第1次调用是结构化提取，第3次是第二份文档生成
	model := &mockModel{
		responses: map[string]string{"extract_structured_data": validResumeJSON},
		failOn:    map[int]error{3: fmt.Errorf("model temporarily unavailable")},
	}
	gen := newTestGenerator(t, store, &mockTextSource{text: "resume text"}, model)

	outcomes := gen.AutoGenerateOnUpload(context.Background(), 1, 10)
	require.Len(t, outcomes, 4, "单个文档失败不应该影响其余任务")

	byTask := make(map[types.AutoGenTask]types.AutoGenOutcome, len(outcomes))
	for _, o := range outcomes {
		byTask[o.Task] = o
	}
	assert.True(t, byTask[types.AutoGenTaskExtract].Succeeded)
	assert.True(t, byTask[types.AutoGenTaskResume].Succeeded)
	assert.False(t, byTask[types.AutoGenTaskCoverLetter].Succeeded, "第二份文档应该失败")
	assert.NotEmpty(t, byTask[types.AutoGenTaskCoverLetter].Error)
	assert.True(t, byTask[types.AutoGenTaskRecommendation].Succeeded)
	assert.Len(t, store.createdDocs, 2, "只有两份文档持久化")
}

func TestAutoGenerateOnUpload_UnownedResume(t *testing.T) {
	store := newMockStore()
	store.resumes[10] = &models.Resume{ID: 10, UserID: 2}
	model := &mockModel{}
	gen := newTestGenerator(t, store, &mockTextSource{}, model)

	outcomes := gen.AutoGenerateOnUpload(context.Background(), 1, 10)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Succeeded)
	assert.Empty(t, model.calls)
}

func TestDecodeAutoGenerateTask(t *testing.T) {
	userID, resumeID, err := DecodeAutoGenerateTask([]byte(`{"task_uuid":"x","user_id":1,"resume_id":10,"file_key":"1/key.pdf"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), userID)
	assert.Equal(t, uint64(10), resumeID)

	_, _, err = DecodeAutoGenerateTask([]byte(`{"user_id":0,"resume_id":10}`))
	assert.Error(t, err, "缺少user_id应该报错")

	_, _, err = DecodeAutoGenerateTask([]byte(`not json`))
	assert.Error(t, err, "非法JSON应该报错")
}
