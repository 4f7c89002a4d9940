package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"job-agent-go/internal/logger"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var gatewayTracer = otel.Tracer("job-agent-go/llm/gateway")

// Gateway 模型调用网关，统一超时、追踪和错误分类
type Gateway struct {
	client  CompletionClient
	timeout time.Duration
}

// NewGateway 创建模型调用网关
func NewGateway(client CompletionClient, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		client:  client,
		timeout: timeout,
	}
}

// Invoke 执行一次模型调用，返回补全文本
// task 仅用于追踪和日志，如 "generate_resume"
func (g *Gateway) Invoke(ctx context.Context, task string, messages []*schema.Message, format *ResponseFormat) (string, error) {
	ctx, span := gatewayTracer.Start(ctx, "llm.Invoke")
	defer span.End()
	span.SetAttributes(attribute.String("llm.task", task))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = ContextWithTask(ctx, task)

	log := logger.Ctx(ctx)
	log.Debug().Str("task", task).Int("messages", len(messages)).Msg("调用LLM")

	response, err := g.client.Complete(ctx, messages, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("task", task).Msg("LLM调用失败")
		return "", fmt.Errorf("llm invoke (%s): %w", task, err)
	}

	if response == nil || strings.TrimSpace(response.Content) == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", fmt.Errorf("llm invoke (%s): %w", task, ErrEmptyCompletion)
	}

	span.SetAttributes(attribute.Int("llm.completion_chars", len(response.Content)))
	span.SetStatus(codes.Ok, "")
	return response.Content, nil
}
