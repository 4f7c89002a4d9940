package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"job-agent-go/internal/config"
	"job-agent-go/internal/constants"
	"job-agent-go/internal/storage"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// JobHandler 岗位管理接口，写操作仅管理员可用
type JobHandler struct {
	cfg     *config.Config
	storage *storage.Storage
}

// NewJobHandler 创建岗位处理器
func NewJobHandler(cfg *config.Config, storage *storage.Storage) *JobHandler {
	return &JobHandler{cfg: cfg, storage: storage}
}

type jobRequest struct {
	JobID        string `json:"jobId"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	JobType      string `json:"jobType"`
	Salary       string `json:"salary"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Benefits     string `json:"benefits"`
	Status       string `json:"status"`
}

// HandleCreateJob 发布岗位
func (h *JobHandler) HandleCreateJob(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !isAdmin(c) {
		c.JSON(consts.StatusForbidden, utils.H{"error": "仅管理员可发布岗位"})
		return
	}

	var req jobRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Company) == "" || strings.TrimSpace(req.Description) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "title/company/description不能为空"})
		return
	}

	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		// 未指定岗位编号时自动生成
		u, err := uuid.NewV7()
		if err != nil {
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "生成岗位编号失败"})
			return
		}
		jobID = fmt.Sprintf("JOB-%s", strings.ToUpper(u.String()[:8]))
	}

	status := req.Status
	if status == "" {
		status = constants.JobStatusActive
	}
	switch status {
	case constants.JobStatusActive, constants.JobStatusClosed, constants.JobStatusDraft:
	default:
		c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的岗位状态: " + status})
		return
	}

	job := &models.Job{
		JobID:        jobID,
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		JobType:      req.JobType,
		Salary:       req.Salary,
		Description:  req.Description,
		Requirements: req.Requirements,
		Benefits:     req.Benefits,
		Status:       status,
		PostedBy:     userID,
	}
	if err := h.storage.MySQL.CreateJob(ctx, job); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "保存岗位失败"})
		return
	}

	c.JSON(consts.StatusOK, toJobResponse(job))
}

// HandleListJobs 岗位列表，支持按状态/类型/关键词过滤
func (h *JobHandler) HandleListJobs(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireUser(c); !ok {
		return
	}

	filter := storage.JobFilter{
		Status:  c.Query("status"),
		JobType: c.Query("job_type"),
		Keyword: c.Query("keyword"),
	}
	// 普通用户默认只看在招岗位
	if filter.Status == "" && !isAdmin(c) {
		filter.Status = constants.JobStatusActive
	}

	jobs, err := h.storage.MySQL.ListJobs(ctx, filter)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位列表失败"})
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, toJobResponse(&jobs[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"jobs": resp, "count": len(resp)})
}

// HandleGetJob 获取单个岗位，路径参数可以是数字主键或岗位编号
func (h *JobHandler) HandleGetJob(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireUser(c); !ok {
		return
	}

	param := c.Param("id")
	var job *models.Job
	var err error
	if id, perr := strconv.ParseUint(param, 10, 64); perr == nil {
		job, err = h.storage.MySQL.GetJobByID(ctx, id)
	} else {
		job, err = h.storage.MySQL.GetJobByJobID(ctx, param)
	}
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位失败"})
		return
	}
	if job == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
		return
	}

	c.JSON(consts.StatusOK, toJobResponse(job))
}

// HandleUpdateJob 更新岗位，只更新请求体中出现的字段
func (h *JobHandler) HandleUpdateJob(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !isAdmin(c) {
		c.JSON(consts.StatusForbidden, utils.H{"error": "仅管理员可更新岗位"})
		return
	}
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.storage.MySQL.GetJobByID(ctx, jobID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位失败"})
		return
	}
	if job == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
		return
	}

	var fields map[string]interface{}
	if err := c.BindJSON(&fields); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}

	// 请求体字段名 -> 数据库列名
	allowed := map[string]string{
		"title":        "title",
		"company":      "company",
		"location":     "location",
		"jobType":      "job_type",
		"salary":       "salary",
		"description":  "description",
		"requirements": "requirements",
		"benefits":     "benefits",
		"status":       "status",
	}
	updates := make(map[string]interface{})
	for key, column := range allowed {
		if v, exists := fields[key]; exists {
			updates[column] = v
		}
	}
	if v, exists := updates["status"]; exists {
		status, _ := v.(string)
		switch status {
		case constants.JobStatusActive, constants.JobStatusClosed, constants.JobStatusDraft:
		default:
			c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的岗位状态"})
			return
		}
	}
	if len(updates) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "没有可更新的字段"})
		return
	}

	if err := h.storage.MySQL.UpdateJob(ctx, jobID, updates); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "更新岗位失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// HandleDeleteJob 删除岗位
func (h *JobHandler) HandleDeleteJob(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !isAdmin(c) {
		c.JSON(consts.StatusForbidden, utils.H{"error": "仅管理员可删除岗位"})
		return
	}
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	job, err := h.storage.MySQL.GetJobByID(ctx, jobID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位失败"})
		return
	}
	if job == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
		return
	}

	if err := h.storage.MySQL.DeleteJob(ctx, jobID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "删除岗位失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}
