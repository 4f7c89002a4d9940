package handler

import (
	"context"
	"strings"

	"job-agent-go/internal/constants"
	"job-agent-go/internal/storage"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// DocumentHandler AI生成文档的管理接口
type DocumentHandler struct {
	storage *storage.Storage
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(storage *storage.Storage) *DocumentHandler {
	return &DocumentHandler{storage: storage}
}

// HandleListDocuments 列出当前用户的生成文档，支持按类型过滤
func (h *DocumentHandler) HandleListDocuments(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	docType := c.Query("type")
	if docType != "" {
		switch docType {
		case constants.DocTypeResume, constants.DocTypeCoverLetter, constants.DocTypeRecommendation:
		default:
			c.JSON(consts.StatusBadRequest, utils.H{"error": "无效的文档类型: " + docType})
			return
		}
	}

	docs, err := h.storage.MySQL.ListUserGeneratedDocuments(ctx, userID, docType)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询文档列表失败"})
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, toDocumentResponse(&docs[i]))
	}
	c.JSON(consts.StatusOK, utils.H{"documents": resp, "count": len(resp)})
}

// getOwnedDocument 查询文档并校验归属，失败时已写入响应
func (h *DocumentHandler) getOwnedDocument(ctx context.Context, c *app.RequestContext, userID, docID uint64) *models.GeneratedDocument {
	doc, err := h.storage.MySQL.GetGeneratedDocumentByID(ctx, docID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "查询文档失败"})
		return nil
	}
	if doc == nil || doc.UserID != userID {
		c.JSON(consts.StatusNotFound, utils.H{"error": "文档不存在"})
		return nil
	}
	return doc
}

// HandleGetDocument 获取单份文档
func (h *DocumentHandler) HandleGetDocument(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc := h.getOwnedDocument(ctx, c, userID, docID)
	if doc == nil {
		return
	}
	c.JSON(consts.StatusOK, toDocumentResponse(doc))
}

type updateDocumentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// HandleUpdateDocument 更新文档标题或正文
func (h *DocumentHandler) HandleUpdateDocument(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if doc := h.getOwnedDocument(ctx, c, userID, docID); doc == nil {
		return
	}

	var req updateDocumentRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			c.JSON(consts.StatusBadRequest, utils.H{"error": "title不能为空"})
			return
		}
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if len(updates) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "没有可更新的字段"})
		return
	}

	if err := h.storage.MySQL.UpdateGeneratedDocument(ctx, docID, updates); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "更新文档失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"updated": true})
}

// HandleDeleteDocument 删除文档
func (h *DocumentHandler) HandleDeleteDocument(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if doc := h.getOwnedDocument(ctx, c, userID, docID); doc == nil {
		return
	}

	if err := h.storage.MySQL.DeleteGeneratedDocument(ctx, docID); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "删除文档失败"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"deleted": true})
}
