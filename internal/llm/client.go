package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
)

// 模型调用的哨兵错误
var (
	// ErrModelUnavailable 模型服务不可达或返回非200
	ErrModelUnavailable = errors.New("model service unavailable")

	// ErrModelRefused 模型因内容审查等原因拒绝生成
	ErrModelRefused = errors.New("model refused to generate")

	// ErrEmptyCompletion 模型返回了空内容
	ErrEmptyCompletion = errors.New("model returned empty completion")
)

// ResponseFormat OpenAI兼容的结构化输出约束
type ResponseFormat struct {
	Type       string      `json:"type"` // "json_schema" 或 "json_object"
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema 结构化输出的schema定义
type JSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

// CompletionClient 聊天补全客户端接口
// format为nil时返回自由文本，非nil时要求模型输出符合schema的JSON
type CompletionClient interface {
	Complete(ctx context.Context, messages []*schema.Message, format *ResponseFormat) (*schema.Message, error)
}

type taskContextKey struct{}

// ContextWithTask 把任务名写入上下文，网关在每次调用前设置
// 客户端可以据此按任务切换模型
func ContextWithTask(ctx context.Context, task string) context.Context {
	return context.WithValue(ctx, taskContextKey{}, task)
}

// TaskFromContext 读取上下文中的任务名，没有时返回空串
func TaskFromContext(ctx context.Context) string {
	task, _ := ctx.Value(taskContextKey{}).(string)
	return task
}
