package router

import (
	"context"
	"strconv"

	"job-agent-go/internal/api/handler"
	"job-agent-go/internal/config"
	"job-agent-go/internal/storage"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// Handlers 路由注册需要的全部处理器
type Handlers struct {
	AI          *handler.AIHandler
	Resume      *handler.ResumeHandler
	Job         *handler.JobHandler
	Document    *handler.DocumentHandler
	Application *handler.ApplicationHandler
}

// RegisterRoutes 注册API路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config, store *storage.Storage, handlers Handlers) {
	// 健康检查不走认证
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	// 服务端API密钥校验
	if len(cfg.Server.APIKeys) > 0 {
		api.Use(apiKeyMiddleware(cfg.Server.APIKeys))
	}
	// 解析当前用户并写入请求上下文
	api.Use(userMiddleware(store.MySQL))

	// 简历
	api.POST("/resumes", handlers.Resume.HandleUploadResume)
	api.GET("/resumes", handlers.Resume.HandleListResumes)
	api.GET("/resumes/:id", handlers.Resume.HandleGetResume)
	api.DELETE("/resumes/:id", handlers.Resume.HandleDeleteResume)
	api.PUT("/resumes/:id/primary", handlers.Resume.HandleSetPrimaryResume)

	// 岗位
	api.POST("/jobs", handlers.Job.HandleCreateJob)
	api.GET("/jobs", handlers.Job.HandleListJobs)
	api.GET("/jobs/:id", handlers.Job.HandleGetJob)
	api.PUT("/jobs/:id", handlers.Job.HandleUpdateJob)
	api.DELETE("/jobs/:id", handlers.Job.HandleDeleteJob)

	// 投递
	api.POST("/applications", handlers.Application.HandleCreateApplication)
	api.GET("/applications", handlers.Application.HandleListApplications)
	api.GET("/applications/:id", handlers.Application.HandleGetApplication)
	api.DELETE("/applications/:id", handlers.Application.HandleDeleteApplication)
	api.PUT("/applications/:id/status", handlers.Application.HandleUpdateApplicationStatus)

	// AI生成与匹配
	ai := api.Group("/ai")
	ai.POST("/generate/resume", handlers.AI.HandleGenerateResume)
	ai.POST("/generate/cover-letter", handlers.AI.HandleGenerateCoverLetter)
	ai.POST("/generate/recommendation-letter", handlers.AI.HandleGenerateRecommendation)
	ai.POST("/generate/from-resume", handlers.AI.HandleGenerateFromResume)
	ai.POST("/match-jobs", handlers.AI.HandleMatchJobs)

	// 生成文档
	api.GET("/documents", handlers.Document.HandleListDocuments)
	api.GET("/documents/:id", handlers.Document.HandleGetDocument)
	api.PUT("/documents/:id", handlers.Document.HandleUpdateDocument)
	api.DELETE("/documents/:id", handlers.Document.HandleDeleteDocument)
}

// apiKeyMiddleware 校验Authorization头中的服务端API密钥
func apiKeyMiddleware(apiKeys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		allowed[k] = struct{}{}
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			_, ok := allowed[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的API密钥"})
			ctx.Abort()
		}),
	)
}

// userResolver 认证中间件需要的用户查询操作，由storage.MySQL实现
type userResolver interface {
	GetUserByID(ctx context.Context, userID uint64) (*models.User, error)
	GetOrCreateUserByOpenID(ctx context.Context, openID, name, email string) (*models.User, error)
}

// userMiddleware 解析当前用户并写入请求上下文
// 优先使用X-User-ID头；没有时按X-User-OpenID头自动建档（首次OAuth登录）
func userMiddleware(store userResolver) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		var user *models.User
		var err error

		if idStr := string(ctx.GetHeader("X-User-ID")); idStr != "" {
			userID, perr := strconv.ParseUint(idStr, 10, 64)
			if perr != nil || userID == 0 {
				ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的X-User-ID头"})
				ctx.Abort()
				return
			}
			user, err = store.GetUserByID(c, userID)
		} else if openID := string(ctx.GetHeader("X-User-OpenID")); openID != "" {
			user, err = store.GetOrCreateUserByOpenID(c, openID,
				string(ctx.GetHeader("X-User-Name")), string(ctx.GetHeader("X-User-Email")))
		} else {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "缺少X-User-ID或X-User-OpenID头"})
			ctx.Abort()
			return
		}

		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询用户失败"})
			ctx.Abort()
			return
		}
		if user == nil {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "用户不存在"})
			ctx.Abort()
			return
		}

		ctx.Set(handler.CtxKeyUserID, user.ID)
		ctx.Set(handler.CtxKeyUserRole, user.Role)
		ctx.Next(c)
	}
}
