package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"job-agent-go/internal/config"
	"job-agent-go/internal/constants"
	"job-agent-go/internal/generator"
	"job-agent-go/internal/logger"
	"job-agent-go/internal/storage"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
)

// ResumeHandler 简历上传与管理接口
type ResumeHandler struct {
	cfg     *config.Config
	storage *storage.Storage
	gen     *generator.Generator
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(cfg *config.Config, storage *storage.Storage, gen *generator.Generator) *ResumeHandler {
	return &ResumeHandler{
		cfg:     cfg,
		storage: storage,
		gen:     gen,
	}
}

// resumeUploadResponse 简历上传响应
type resumeUploadResponse struct {
	Resume             resumeResponse `json:"resume"`
	AutoGenerateQueued bool           `json:"autoGenerateQueued"`
}

// resolveMimeType 确定上传文件的MIME类型，优先使用表单里的Content-Type
func resolveMimeType(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf":
		return constants.MimePDF
	case ".docx":
		return constants.MimeDocx
	case ".doc":
		return constants.MimeDocLegacy
	default:
		return ""
	}
}

// HandleUploadResume 处理简历上传
// 上传成功后默认投递一条自动生成任务到消息队列，任务失败不影响上传结果
func (h *ResumeHandler) HandleUploadResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}

	if fileHeader.Size > constants.MaxResumeBytes {
		c.JSON(consts.StatusBadRequest, utils.H{"error": fmt.Sprintf("文件大小超过限制(%dMB)", constants.MaxResumeBytes/1024/1024)})
		return
	}

	mimeType := resolveMimeType(fileHeader)
	switch mimeType {
	case constants.MimePDF, constants.MimeDocx, constants.MimeDocLegacy:
	default:
		c.JSON(consts.StatusBadRequest, utils.H{"error": "只支持PDF和Word格式的简历"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件内容失败"})
		return
	}

	// 1. 上传原始文件到MinIO
	fileKey, fileURL, err := h.storage.MinIO.UploadResumeFile(
		ctx, userID, fileHeader.Filename, bytes.NewReader(fileBytes), int64(len(fileBytes)), mimeType)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("filename", fileHeader.Filename).Msg("上传简历到MinIO失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "上传简历文件失败"})
		return
	}

	// 2. 写入简历记录
	resume := &models.Resume{
		UserID:   userID,
		FileName: fileHeader.Filename,
		FileURL:  fileURL,
		FileKey:  fileKey,
		FileSize: int64(len(fileBytes)),
		MimeType: mimeType,
	}
	if err := h.storage.MySQL.CreateResume(ctx, resume); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("保存简历记录失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "保存简历记录失败"})
		return
	}

	// 3. 可选设为主简历
	if c.PostForm("is_primary") == "true" {
		if err := h.storage.MySQL.SetPrimaryResume(ctx, userID, resume.ID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Uint64("resume_id", resume.ID).Msg("设置主简历失败")
		} else {
			resume.IsPrimary = true
		}
	}

	// 4. 投递自动生成任务，auto_generate=false时跳过
	queued := false
	if c.PostForm("auto_generate") != "false" && h.storage.RabbitMQ != nil {
		if err := h.publishAutoGenerateTask(ctx, userID, resume); err != nil {
			// 任务投递失败只记录日志，上传本身已成功
			logger.Ctx(ctx).Warn().Err(err).Uint64("resume_id", resume.ID).Msg("投递自动生成任务失败")
		} else {
			queued = true
		}
	}

	c.JSON(consts.StatusOK, resumeUploadResponse{
		Resume:             toResumeResponse(resume),
		AutoGenerateQueued: queued,
	})
}

// publishAutoGenerateTask 向消息队列投递自动生成任务
func (h *ResumeHandler) publishAutoGenerateTask(ctx context.Context, userID uint64, resume *models.Resume) error {
	taskUUID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成任务UUID失败: %w", err)
	}

	task := storage.AutoGenerateTask{
		TaskUUID:   taskUUID.String(),
		UserID:     userID,
		ResumeID:   resume.ID,
		FileKey:    resume.FileKey,
		EnqueuedAt: time.Now(),
	}
	return h.storage.RabbitMQ.PublishJSON(ctx, constants.AutoGenExchange, constants.AutoGenRoutingKey, task, true)
}

// HandleListResumes 列出当前用户的所有简历
func (h *ResumeHandler) HandleListResumes(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	resumes, err := h.storage.MySQL.ListUserResumes(ctx, userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询简历列表失败"})
		return
	}

	resp := make([]resumeResponse, 0, len(resumes))
	for i := range resumes {
		resp = append(resp, toResumeResponse(&resumes[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"resumes": resp, "count": len(resp)})
}

// getOwnedResume 查询简历并校验归属，失败时已写入响应
func (h *ResumeHandler) getOwnedResume(ctx context.Context, c *app.RequestContext, userID, resumeID uint64) *models.Resume {
	resume, err := h.storage.MySQL.GetResumeByID(ctx, resumeID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询简历失败"})
		return nil
	}
	if resume == nil || resume.UserID != userID {
		c.JSON(consts.StatusNotFound, utils.H{"error": "简历不存在"})
		return nil
	}
	return resume
}

// HandleGetResume 获取单份简历
func (h *ResumeHandler) HandleGetResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resumeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resume := h.getOwnedResume(ctx, c, userID, resumeID)
	if resume == nil {
		return
	}
	c.JSON(consts.StatusOK, toResumeResponse(resume))
}

// HandleDeleteResume 删除简历记录及其对象存储文件
func (h *ResumeHandler) HandleDeleteResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resumeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resume := h.getOwnedResume(ctx, c, userID, resumeID)
	if resume == nil {
		return
	}

	if err := h.storage.MySQL.DeleteResume(ctx, resumeID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "删除简历失败"})
		return
	}

	// 对象存储和缓存清理失败不影响删除结果
	if h.storage.MinIO != nil && resume.FileKey != "" {
		if err := h.storage.MinIO.DeleteFile(ctx, resume.FileKey); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("file_key", resume.FileKey).Msg("删除MinIO简历文件失败")
		}
	}
	if h.storage.Redis != nil && resume.FileKey != "" {
		if err := h.storage.Redis.DeleteCachedResumeText(ctx, resume.FileKey); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("file_key", resume.FileKey).Msg("清理简历文本缓存失败")
		}
	}

	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}

// HandleSetPrimaryResume 把指定简历设为主简历
func (h *ResumeHandler) HandleSetPrimaryResume(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	resumeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if resume := h.getOwnedResume(ctx, c, userID, resumeID); resume == nil {
		return
	}

	if err := h.storage.MySQL.SetPrimaryResume(ctx, userID, resumeID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "设置主简历失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"primary": true})
}

// StartAutoGenerateConsumer 启动自动生成任务消费者
// 业务层面的失败已体现在逐任务结果中，消息一律Ack避免毒消息循环
func (h *ResumeHandler) StartAutoGenerateConsumer(ctx context.Context) error {
	if h.storage.RabbitMQ == nil {
		return fmt.Errorf("RabbitMQ未初始化")
	}

	if err := h.storage.RabbitMQ.EnsureExchange(constants.AutoGenExchange, "direct", true); err != nil {
		return fmt.Errorf("确保交换机存在失败: %w", err)
	}
	if err := h.storage.RabbitMQ.EnsureQueue(constants.AutoGenQueue, true); err != nil {
		return fmt.Errorf("确保队列存在失败: %w", err)
	}
	if err := h.storage.RabbitMQ.BindQueue(constants.AutoGenQueue, constants.AutoGenExchange, constants.AutoGenRoutingKey); err != nil {
		return fmt.Errorf("绑定队列失败: %w", err)
	}

	prefetch := h.cfg.RabbitMQ.PrefetchCount
	if prefetch <= 0 {
		prefetch = 1
	}

	logger.Info().
		Str("queue", constants.AutoGenQueue).
		Int("prefetch", prefetch).
		Msg("自动生成消费者就绪")

	_, err := h.storage.RabbitMQ.StartConsumer(constants.AutoGenQueue, prefetch, func(data []byte) bool {
		userID, resumeID, err := generator.DecodeAutoGenerateTask(data)
		if err != nil {
			// 消息格式错误，重入队只会无限循环
			logger.Error().Err(err).Msg("自动生成任务消息格式错误，丢弃")
			return true
		}

		outcomes := h.gen.AutoGenerateOnUpload(ctx, userID, resumeID)
		for _, o := range outcomes {
			ev := logger.Info()
			if !o.Succeeded {
				ev = logger.Warn().Str("error", o.Error)
			}
			ev.Uint64("resume_id", resumeID).
				Str("task", string(o.Task)).
				Bool("succeeded", o.Succeeded).
				Msg("自动生成子任务完成")
		}
		return true
	})
	return err
}
