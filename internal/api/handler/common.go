package handler

import (
	"strconv"
	"time"

	"job-agent-go/internal/generator"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// 认证中间件写入请求上下文的键
const (
	CtxKeyUserID   = "user_id"
	CtxKeyUserRole = "user_role"
)

// currentUserID 从请求上下文中取当前用户ID，由认证中间件设置
func currentUserID(c *app.RequestContext) (uint64, bool) {
	v, exists := c.Get(CtxKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// isAdmin 当前用户是否为管理员
func isAdmin(c *app.RequestContext) bool {
	v, exists := c.Get(CtxKeyUserRole)
	if !exists {
		return false
	}
	role, ok := v.(string)
	return ok && role == "admin"
}

// requireUser 取当前用户ID，未认证时直接写401
func requireUser(c *app.RequestContext) (uint64, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(consts.StatusUnauthorized, utils.H{"error": "未授权访问"})
	}
	return userID, ok
}

// parseIDParam 解析路径中的数字ID参数
func parseIDParam(c *app.RequestContext, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的" + name + "参数"})
		return 0, false
	}
	return id, true
}

// writeGenerateError 把生成流水线错误映射为HTTP状态码
// 归属校验失败与记录不存在同样返回404，不暴露资源是否存在
func writeGenerateError(c *app.RequestContext, err error) {
	switch {
	case generator.IsValidation(err):
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case generator.IsNotFound(err):
		c.JSON(consts.StatusNotFound, utils.H{"error": "引用的记录不存在"})
	default:
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}

// documentResponse 生成文档的API表示
type documentResponse struct {
	ID            uint64    `json:"id"`
	DocumentType  string    `json:"documentType"`
	JobID         *uint64   `json:"jobId,omitempty"`
	ApplicationID *uint64   `json:"applicationId,omitempty"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FileURL       string    `json:"fileUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toDocumentResponse(doc *models.GeneratedDocument) documentResponse {
	return documentResponse{
		ID:            doc.ID,
		DocumentType:  doc.DocumentType,
		JobID:         doc.JobID,
		ApplicationID: doc.ApplicationID,
		Title:         doc.Title,
		Content:       doc.Content,
		FileURL:       doc.FileURL,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

// resumeResponse 简历记录的API表示，不包含提取文本全文
type resumeResponse struct {
	ID           uint64    `json:"id"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	IsPrimary    bool      `json:"isPrimary"`
	HasExtracted bool      `json:"hasExtractedData"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toResumeResponse(r *models.Resume) resumeResponse {
	return resumeResponse{
		ID:           r.ID,
		FileName:     r.FileName,
		FileURL:      r.FileURL,
		FileSize:     r.FileSize,
		MimeType:     r.MimeType,
		IsPrimary:    r.IsPrimary,
		HasExtracted: len(r.ExtractedData) > 0,
		CreatedAt:    r.CreatedAt,
	}
}

// jobResponse 岗位的API表示
type jobResponse struct {
	ID           uint64    `json:"id"`
	JobID        string    `json:"jobId"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location,omitempty"`
	JobType      string    `json:"jobType"`
	Salary       string    `json:"salary,omitempty"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements,omitempty"`
	Benefits     string    `json:"benefits,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toJobResponse(j *models.Job) jobResponse {
	return jobResponse{
		ID:           j.ID,
		JobID:        j.JobID,
		Title:        j.Title,
		Company:      j.Company,
		Location:     j.Location,
		JobType:      j.JobType,
		Salary:       j.Salary,
		Description:  j.Description,
		Requirements: j.Requirements,
		Benefits:     j.Benefits,
		Status:       j.Status,
		CreatedAt:    j.CreatedAt,
	}
}
