package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-agent-go/internal/constants"
	"job-agent-go/internal/llm"
	"job-agent-go/internal/logger"
	"job-agent-go/internal/parser"
	"job-agent-go/internal/storage/models"
	"job-agent-go/internal/types"
)

// Components 聚合生成流水线的功能组件依赖，便于集中管理和测试替换
type Components struct {
	Store      DocumentStore // 持久化
	TextSource TextSource    // 简历文本来源
	Model      ModelInvoker  // 模型调用
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	TimeLocation *time.Location // 时区设置，文档标题中的日期使用
}

// Generator 文档生成编排器
// 每次请求是独立的流水线: 解析引用 -> 提取 -> 构建提示词 -> 模型调用 -> 校验 -> 持久化
type Generator struct {
	store DocumentStore
	text  TextSource
	model ModelInvoker
	loc   *time.Location
}

// NewGenerator 创建文档生成编排器
func NewGenerator(comp *Components, set *Settings) (*Generator, error) {
	if comp == nil || comp.Store == nil {
		return nil, fmt.Errorf("store不能为空")
	}
	if comp.Model == nil {
		return nil, fmt.Errorf("model不能为空")
	}

	loc := time.Local
	if set != nil && set.TimeLocation != nil {
		loc = set.TimeLocation
	}

	return &Generator{
		store: comp.Store,
		text:  comp.TextSource,
		model: comp.Model,
		loc:   loc,
	}, nil
}

// ---- 请求/结果类型 ----

// ResumeRequest 简历生成请求
type ResumeRequest struct {
	ResumeID       *uint64
	AdditionalInfo string
}

// CoverLetterRequest 求职信生成请求
type CoverLetterRequest struct {
	JobID          uint64
	ResumeID       *uint64
	AdditionalInfo string
}

// RecommendationRequest 推荐信生成请求
type RecommendationRequest struct {
	RelationshipInfo string
	ResumeID         *uint64
	JobID            *uint64
	AdditionalInfo   string
}

// TemplateRequest 从已有简历生成指定类型文档的请求
type TemplateRequest struct {
	ResumeID     uint64
	DocumentType string
}

// MatchRequest 岗位匹配请求
type MatchRequest struct {
	ResumeID uint64
	Limit    int
}

// JobMatch 单条岗位匹配结果，Job一定非nil
// 匹配结果不持久化
type JobMatch struct {
	Job            *models.Job `json:"job"`
	RelevanceScore int         `json:"relevanceScore"`
	MatchReasons   []string    `json:"matchReasons"`
}

// ---- 引用解析 ----

// resolveOwnedResume 解析简历引用并校验归属
// 不存在或不属于该用户时返回 ErrNotFound，不泄露他人数据
func (g *Generator) resolveOwnedResume(ctx context.Context, op string, userID, resumeID uint64) (*models.Resume, error) {
	resume, err := g.store.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, newError(op, StageResolve, err, "查询简历失败")
	}
	if resume == nil || resume.UserID != userID {
		return nil, newError(op, StageResolve, ErrNotFound, "resume")
	}
	return resume, nil
}

// resolveJob 解析岗位引用，不存在时返回 ErrNotFound
func (g *Generator) resolveJob(ctx context.Context, op string, jobID uint64) (*models.Job, error) {
	job, err := g.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, newError(op, StageResolve, err, "查询岗位失败")
	}
	if job == nil {
		return nil, newError(op, StageResolve, ErrNotFound, "job")
	}
	return job, nil
}

// resumeText 获取简历文本，提取失败时降级为空文本继续生成
func (g *Generator) resumeText(ctx context.Context, resume *models.Resume) string {
	if resume == nil {
		return ""
	}
	if g.text == nil {
		return resume.ExtractedText
	}
	text, err := g.text.GetText(ctx, resume.FileKey, resume.FileName, resume.MimeType, resume.ExtractedText)
	if err != nil {
		// 降级: 用空简历上下文继续，生成质量为尽力而为
		logger.Ctx(ctx).Warn().Err(err).Uint64("resume_id", resume.ID).Msg("简历文本提取失败，降级为空上下文")
		return ""
	}
	return text
}

// persistDocument 保存生成的文档
func (g *Generator) persistDocument(ctx context.Context, op string, doc *models.GeneratedDocument) (*models.GeneratedDocument, error) {
	if err := g.store.CreateGeneratedDocument(ctx, doc); err != nil {
		return nil, newError(op, StagePersist, err, "")
	}
	return doc, nil
}

// dateSuffix 文档标题中的日期部分
func (g *Generator) dateSuffix() string {
	return time.Now().In(g.loc).Format("2006-01-02")
}

// ---- 生成操作 ----

// GenerateResume 生成专业简历
// 简历引用可选；已有结构化数据时优先使用
func (g *Generator) GenerateResume(ctx context.Context, userID uint64, req ResumeRequest) (*models.GeneratedDocument, error) {
	const op = "GenerateResume"

	var resumeText, structuredJSON string
	if req.ResumeID != nil {
		resume, err := g.resolveOwnedResume(ctx, op, userID, *req.ResumeID)
		if err != nil {
			return nil, err
		}
		// 有缓存的结构化数据时跳过提取
		if len(resume.ExtractedData) > 0 {
			structuredJSON = string(resume.ExtractedData)
		} else {
			resumeText = g.resumeText(ctx, resume)
		}
	}

	messages := parser.BuildResumeGenerationMessages(resumeText, structuredJSON, req.AdditionalInfo)
	content, err := g.model.Invoke(ctx, "generate_resume", messages, nil)
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	return g.persistDocument(ctx, op, &models.GeneratedDocument{
		UserID:       userID,
		DocumentType: constants.DocTypeResume,
		Title:        fmt.Sprintf("Generated Resume - %s", g.dateSuffix()),
		Content:      content,
	})
}

// GenerateCoverLetter 为指定岗位生成求职信
// 岗位引用必须可解析
func (g *Generator) GenerateCoverLetter(ctx context.Context, userID uint64, req CoverLetterRequest) (*models.GeneratedDocument, error) {
	const op = "GenerateCoverLetter"

	job, err := g.resolveJob(ctx, op, req.JobID)
	if err != nil {
		return nil, err
	}

	var resumeText string
	if req.ResumeID != nil {
		resume, err := g.resolveOwnedResume(ctx, op, userID, *req.ResumeID)
		if err != nil {
			return nil, err
		}
		resumeText = g.resumeText(ctx, resume)
	}

	messages := parser.BuildCoverLetterMessages(parser.JobPromptInfo{
		JobID:        job.JobID,
		Title:        job.Title,
		Company:      job.Company,
		Location:     job.Location,
		JobType:      job.JobType,
		Description:  job.Description,
		Requirements: job.Requirements,
	}, resumeText, req.AdditionalInfo)

	content, err := g.model.Invoke(ctx, "generate_cover_letter", messages, nil)
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	jobID := job.ID
	return g.persistDocument(ctx, op, &models.GeneratedDocument{
		UserID:       userID,
		DocumentType: constants.DocTypeCoverLetter,
		JobID:        &jobID,
		Title:        fmt.Sprintf("Cover Letter - %s at %s", job.Title, job.Company),
		Content:      content,
	})
}

// GenerateRecommendationLetter 生成推荐信
// relationshipInfo必填，空白时校验失败且不消耗模型调用
func (g *Generator) GenerateRecommendationLetter(ctx context.Context, userID uint64, req RecommendationRequest) (*models.GeneratedDocument, error) {
	const op = "GenerateRecommendationLetter"

	if strings.TrimSpace(req.RelationshipInfo) == "" {
		return nil, newError(op, StageResolve, ErrValidation, "relationshipInfo不能为空")
	}

	var resumeText string
	if req.ResumeID != nil {
		resume, err := g.resolveOwnedResume(ctx, op, userID, *req.ResumeID)
		if err != nil {
			return nil, err
		}
		resumeText = g.resumeText(ctx, resume)
	}

	var targetPosition string
	var docJobID *uint64
	if req.JobID != nil {
		job, err := g.resolveJob(ctx, op, *req.JobID)
		if err != nil {
			return nil, err
		}
		targetPosition = fmt.Sprintf("Target Position: %s at %s", job.Title, job.Company)
		id := job.ID
		docJobID = &id
	}

	messages := parser.BuildRecommendationMessages(req.RelationshipInfo, resumeText, targetPosition, req.AdditionalInfo)
	content, err := g.model.Invoke(ctx, "generate_recommendation", messages, nil)
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	return g.persistDocument(ctx, op, &models.GeneratedDocument{
		UserID:       userID,
		DocumentType: constants.DocTypeRecommendation,
		JobID:        docJobID,
		Title:        fmt.Sprintf("Recommendation Letter - %s", g.dateSuffix()),
		Content:      content,
	})
}

// GenerateFromResume 基于已上传简历生成指定类型的文档模板
func (g *Generator) GenerateFromResume(ctx context.Context, userID uint64, req TemplateRequest) (*models.GeneratedDocument, error) {
	const op = "GenerateFromResume"

	switch req.DocumentType {
	case constants.DocTypeResume, constants.DocTypeCoverLetter, constants.DocTypeRecommendation:
	default:
		return nil, newError(op, StageResolve, ErrValidation, fmt.Sprintf("不支持的文档类型: %s", req.DocumentType))
	}

	resume, err := g.resolveOwnedResume(ctx, op, userID, req.ResumeID)
	if err != nil {
		return nil, err
	}

	resumeText := g.resumeText(ctx, resume)
	name := parser.ExtractContactInfo(resumeText).Name
	return g.generateTemplateDoc(ctx, op, userID, req.DocumentType, resumeText, name)
}

// generateTemplateDoc 模板类文档的公共生成路径，自动生成流程复用
// displayName 用于文档标题，为空时退回占位名
func (g *Generator) generateTemplateDoc(ctx context.Context, op string, userID uint64, docType, resumeText, displayName string) (*models.GeneratedDocument, error) {
	messages, err := parser.BuildTemplateMessages(docType, resumeText)
	if err != nil {
		return nil, newError(op, StagePrompt, ErrValidation, err.Error())
	}

	content, err := g.model.Invoke(ctx, "generate_from_resume", messages, nil)
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	name := displayName
	if name == "" {
		name = "User"
	}

	var title string
	switch docType {
	case constants.DocTypeResume:
		title = fmt.Sprintf("Professional Resume - %s", name)
	case constants.DocTypeCoverLetter:
		title = fmt.Sprintf("General Cover Letter - %s", name)
	case constants.DocTypeRecommendation:
		title = fmt.Sprintf("Recommendation Letter Template - %s", name)
	}

	return g.persistDocument(ctx, op, &models.GeneratedDocument{
		UserID:       userID,
		DocumentType: docType,
		Title:        title,
		Content:      content,
	})
}

// FindMatchingJobs 用模型对简历和在招岗位做匹配
// 结果不持久化；limit越界时校验失败且不消耗模型调用
func (g *Generator) FindMatchingJobs(ctx context.Context, userID uint64, req MatchRequest) ([]JobMatch, error) {
	const op = "FindMatchingJobs"

	if req.Limit < constants.MatchLimitMin || req.Limit > constants.MatchLimitMax {
		return nil, newError(op, StageResolve, ErrValidation,
			fmt.Sprintf("limit必须在[%d,%d]内, got %d", constants.MatchLimitMin, constants.MatchLimitMax, req.Limit))
	}

	resume, err := g.resolveOwnedResume(ctx, op, userID, req.ResumeID)
	if err != nil {
		return nil, err
	}

	jobs, err := g.store.ListActiveJobs(ctx)
	if err != nil {
		return nil, newError(op, StageResolve, err, "查询在招岗位失败")
	}

	// 没有在招岗位时不调用模型
	if len(jobs) == 0 {
		return []JobMatch{}, nil
	}

	resumeText := g.resumeText(ctx, resume)

	jobInfos := make([]parser.JobPromptInfo, len(jobs))
	jobByID := make(map[string]*models.Job, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		jobInfos[i] = parser.JobPromptInfo{
			JobID:        job.JobID,
			Title:        job.Title,
			Company:      job.Company,
			Description:  job.Description,
			Requirements: job.Requirements,
		}
		jobByID[job.JobID] = job
	}

	messages := parser.BuildJobMatchMessages(resumeText, jobInfos, req.Limit)
	content, err := g.model.Invoke(ctx, "job_match", messages, llm.JobMatchesFormat())
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	rawMatches, dropped, err := parser.ParseJobMatches(content)
	if err != nil {
		// 完全解析失败才是致命错误，单条畸形只做过滤
		return nil, newError(op, StageValidate, ErrGenerationInvalid, err.Error())
	}
	if dropped > 0 {
		logger.Ctx(ctx).Warn().Int("dropped", dropped).Msg("岗位匹配结果中存在畸形条目，已丢弃")
	}

	// 按模型给出的顺序关联岗位记录，无法解析的条目丢弃，总数不超过limit
	matches := make([]JobMatch, 0, req.Limit)
	for _, m := range rawMatches {
		if len(matches) >= req.Limit {
			break
		}
		job, ok := jobByID[m.JobID]
		if !ok {
			continue
		}
		matches = append(matches, JobMatch{
			Job:            job,
			RelevanceScore: m.RelevanceScore,
			MatchReasons:   m.MatchReasons,
		})
	}

	return matches, nil
}

// ExtractStructuredData 用模型从简历文本中提取结构化数据并回填到简历记录
func (g *Generator) ExtractStructuredData(ctx context.Context, resume *models.Resume, resumeText string) (*types.StructuredResumeData, error) {
	const op = "ExtractStructuredData"

	messages := parser.BuildStructuredExtractionMessages(resumeText)
	content, err := g.model.Invoke(ctx, "extract_structured_data", messages, llm.ResumeDataFormat())
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	data, err := parser.ParseStructuredResume(content)
	if err != nil {
		return nil, newError(op, StageValidate, ErrGenerationInvalid, err.Error())
	}

	raw, err := parser.MarshalStructuredResume(data)
	if err != nil {
		return nil, newError(op, StageValidate, err, "序列化结构化数据失败")
	}
	if err := g.store.UpdateResumeExtractedData(ctx, resume.ID, raw); err != nil {
		return nil, newError(op, StagePersist, err, "")
	}

	return data, nil
}

// IsNotFound 判断错误是否为引用解析失败
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation 判断错误是否为请求校验失败
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
