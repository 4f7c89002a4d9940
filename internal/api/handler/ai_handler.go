package handler

import (
	"context"

	"job-agent-go/internal/config"
	"job-agent-go/internal/generator"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// 未指定limit时返回的匹配岗位数
const defaultMatchLimit = 5

// AIHandler AI文档生成与岗位匹配接口
type AIHandler struct {
	cfg *config.Config
	gen *generator.Generator
}

// NewAIHandler 创建AI接口处理器
func NewAIHandler(cfg *config.Config, gen *generator.Generator) *AIHandler {
	return &AIHandler{cfg: cfg, gen: gen}
}

type generateResumeRequest struct {
	ResumeID       *uint64 `json:"resumeId"`
	AdditionalInfo string  `json:"additionalInfo"`
}

// HandleGenerateResume 生成专业简历
func (h *AIHandler) HandleGenerateResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req generateResumeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}

	doc, err := h.gen.GenerateResume(ctx, userID, generator.ResumeRequest{
		ResumeID:       req.ResumeID,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	c.JSON(consts.StatusOK, toDocumentResponse(doc))
}

type generateCoverLetterRequest struct {
	JobID          uint64  `json:"jobId"`
	ResumeID       *uint64 `json:"resumeId"`
	AdditionalInfo string  `json:"additionalInfo"`
}

// HandleGenerateCoverLetter 为指定岗位生成求职信
func (h *AIHandler) HandleGenerateCoverLetter(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req generateCoverLetterRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if req.JobID == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "jobId不能为空"})
		return
	}

	doc, err := h.gen.GenerateCoverLetter(ctx, userID, generator.CoverLetterRequest{
		JobID:          req.JobID,
		ResumeID:       req.ResumeID,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	c.JSON(consts.StatusOK, toDocumentResponse(doc))
}

type generateRecommendationRequest struct {
	RelationshipInfo string  `json:"relationshipInfo"`
	ResumeID         *uint64 `json:"resumeId"`
	JobID            *uint64 `json:"jobId"`
	AdditionalInfo   string  `json:"additionalInfo"`
}

// HandleGenerateRecommendation 生成推荐信
func (h *AIHandler) HandleGenerateRecommendation(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req generateRecommendationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}

	doc, err := h.gen.GenerateRecommendationLetter(ctx, userID, generator.RecommendationRequest{
		RelationshipInfo: req.RelationshipInfo,
		ResumeID:         req.ResumeID,
		JobID:            req.JobID,
		AdditionalInfo:   req.AdditionalInfo,
	})
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	c.JSON(consts.StatusOK, toDocumentResponse(doc))
}

type generateFromResumeRequest struct {
	ResumeID     uint64 `json:"resumeId"`
	DocumentType string `json:"documentType"`
}

// HandleGenerateFromResume 基于已上传简历生成指定类型的文档模板
func (h *AIHandler) HandleGenerateFromResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req generateFromResumeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if req.ResumeID == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resumeId不能为空"})
		return
	}

	doc, err := h.gen.GenerateFromResume(ctx, userID, generator.TemplateRequest{
		ResumeID:     req.ResumeID,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	c.JSON(consts.StatusOK, toDocumentResponse(doc))
}

type matchJobsRequest struct {
	ResumeID uint64 `json:"resumeId"`
	Limit    *int   `json:"limit"` // 区分"未提供"和"显式传0"
}

// resolveMatchLimit 未提供limit时使用默认值，显式传入的值原样透传给校验层
func resolveMatchLimit(limit *int) int {
	if limit == nil {
		return defaultMatchLimit
	}
	return *limit
}

type matchJobsResponse struct {
	Matches []matchEntry `json:"matches"`
	Count   int          `json:"count"`
}

type matchEntry struct {
	Job            jobResponse `json:"job"`
	RelevanceScore int         `json:"relevanceScore"`
	MatchReasons   []string    `json:"matchReasons"`
}

// HandleMatchJobs 用模型对简历和在招岗位做匹配，结果不持久化
func (h *AIHandler) HandleMatchJobs(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req matchJobsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if req.ResumeID == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resumeId不能为空"})
		return
	}
	matches, err := h.gen.FindMatchingJobs(ctx, userID, generator.MatchRequest{
		ResumeID: req.ResumeID,
		Limit:    resolveMatchLimit(req.Limit),
	})
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	entries := make([]matchEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, matchEntry{
			Job:            toJobResponse(m.Job),
			RelevanceScore: m.RelevanceScore,
			MatchReasons:   m.MatchReasons,
		})
	}

	c.JSON(consts.StatusOK, matchJobsResponse{Matches: entries, Count: len(entries)})
}
