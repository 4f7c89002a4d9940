package handler

import (
	"context"
	"time"

	"job-agent-go/internal/constants"
	"job-agent-go/internal/storage"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ApplicationHandler 岗位投递接口
type ApplicationHandler struct {
	storage *storage.Storage
}

// NewApplicationHandler 创建投递处理器
func NewApplicationHandler(storage *storage.Storage) *ApplicationHandler {
	return &ApplicationHandler{storage: storage}
}

type createApplicationRequest struct {
	JobID    uint64  `json:"jobId"`
	ResumeID *uint64 `json:"resumeId"`
	Notes    string  `json:"notes"`
}

type applicationResponse struct {
	ID        uint64    `json:"id"`
	JobID     uint64    `json:"jobId"`
	ResumeID  *uint64   `json:"resumeId,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
}

func toApplicationResponse(a *models.Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		JobID:     a.JobID,
		ResumeID:  a.ResumeID,
		Status:    a.Status,
		Notes:     a.Notes,
		AppliedAt: a.AppliedAt,
	}
}

// HandleCreateApplication 投递岗位
// 只能投递在招岗位，附带的简历必须属于当前用户
func (h *ApplicationHandler) HandleCreateApplication(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createApplicationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	if req.JobID == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "jobId不能为空"})
		return
	}

	job, err := h.storage.MySQL.GetJobByID(ctx, req.JobID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询岗位失败"})
		return
	}
	if job == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
		return
	}
	if job.Status != constants.JobStatusActive {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "岗位已停止招聘"})
		return
	}

	resumeID := req.ResumeID
	if resumeID != nil {
		resume, err := h.storage.MySQL.GetResumeByID(ctx, *resumeID)
		if err != nil {
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询简历失败"})
			return
		}
		if resume == nil || resume.UserID != userID {
			c.JSON(consts.StatusNotFound, utils.H{"error": "简历不存在"})
			return
		}
	} else {
		// 未指定简历时回退到主简历，没有主简历就不附带简历
		primary, err := h.storage.MySQL.GetPrimaryResume(ctx, userID)
		if err != nil {
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询主简历失败"})
			return
		}
		if primary != nil {
			id := primary.ID
			resumeID = &id
		}
	}

	application := &models.Application{
		UserID:    userID,
		JobID:     job.ID,
		ResumeID:  resumeID,
		Notes:     req.Notes,
		AppliedAt: time.Now(),
	}
	if err := h.storage.MySQL.CreateApplication(ctx, application); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "保存投递记录失败"})
		return
	}

	c.JSON(consts.StatusOK, toApplicationResponse(application))
}

// HandleListApplications 列出当前用户的投递记录
func (h *ApplicationHandler) HandleListApplications(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	apps, err := h.storage.MySQL.ListUserApplications(ctx, userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询投递记录失败"})
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for i := range apps {
		resp = append(resp, toApplicationResponse(&apps[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"applications": resp, "count": len(resp)})
}

// getOwnedApplication 查询投递记录并校验归属，管理员可访问全部记录
func (h *ApplicationHandler) getOwnedApplication(ctx context.Context, c *app.RequestContext, userID uint64, appID uint64) *models.Application {
	application, err := h.storage.MySQL.GetApplicationByID(ctx, appID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询投递记录失败"})
		return nil
	}
	if application == nil || (application.UserID != userID && !isAdmin(c)) {
		c.JSON(consts.StatusNotFound, utils.H{"error": "投递记录不存在"})
		return nil
	}
	return application
}

// HandleGetApplication 获取单条投递记录
func (h *ApplicationHandler) HandleGetApplication(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	application := h.getOwnedApplication(ctx, c, userID, appID)
	if application == nil {
		return
	}
	c.JSON(consts.StatusOK, toApplicationResponse(application))
}

// HandleDeleteApplication 撤回投递
func (h *ApplicationHandler) HandleDeleteApplication(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	application := h.getOwnedApplication(ctx, c, userID, appID)
	if application == nil {
		return
	}

	if err := h.storage.MySQL.DeleteApplication(ctx, application.ID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "删除投递记录失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}

type updateApplicationStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateApplicationStatus 更新投递状态，仅管理员可用
func (h *ApplicationHandler) HandleUpdateApplicationStatus(ctx context.Context, c *app.RequestContext) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !isAdmin(c) {
		c.JSON(consts.StatusForbidden, utils.H{"error": "仅管理员可更新投递状态"})
		return
	}
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateApplicationStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}
	switch req.Status {
	case "pending", "reviewing", "accepted", "rejected":
	default:
		c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的投递状态: " + req.Status})
		return
	}

	application, err := h.storage.MySQL.GetApplicationByID(ctx, appID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询投递记录失败"})
		return
	}
	if application == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "投递记录不存在"})
		return
	}

	if err := h.storage.MySQL.UpdateApplicationStatus(ctx, appID, req.Status); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "更新投递状态失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}
