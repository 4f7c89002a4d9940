package generator

import (
	"context"

	"job-agent-go/internal/llm"
	"job-agent-go/internal/storage/models"

	"github.com/cloudwego/eino/schema"
	"gorm.io/datatypes"
)

// TextSource 简历文本来源接口，由parser.ResumeTextSource实现
type TextSource interface {
	// GetText 获取简历纯文本
	// storedText为数据库中已回填的文本，非空时直接返回
	GetText(ctx context.Context, fileKey, fileName, mimeType, storedText string) (string, error)
}

// ModelInvoker 模型调用接口，由llm.Gateway实现
type ModelInvoker interface {
	Invoke(ctx context.Context, task string, messages []*schema.Message, format *llm.ResponseFormat) (string, error)
}

// DocumentStore 生成流水线用到的持久化操作，由storage.MySQL实现
type DocumentStore interface {
	GetResumeByID(ctx context.Context, id uint64) (*models.Resume, error)
	GetJobByID(ctx context.Context, id uint64) (*models.Job, error)
	ListActiveJobs(ctx context.Context) ([]models.Job, error)
	CreateGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument) error
	UpdateResumeExtractedText(ctx context.Context, id uint64, text string) error
	UpdateResumeExtractedData(ctx context.Context, id uint64, data datatypes.JSON) error
}
