package llm

import (
	"context"
	"time"

	"job-agent-go/pkg/ratelimit"

	"github.com/cloudwego/eino/schema"
)

// RateLimitedCompletionClient 对模型调用进行限流和重试的代理
type RateLimitedCompletionClient struct {
	original    CompletionClient
	rateLimiter *ratelimit.TokenBucket
}

// 确保RateLimitedCompletionClient实现了CompletionClient接口
var _ CompletionClient = (*RateLimitedCompletionClient)(nil)

// NewRateLimitedCompletionClient 创建一个新的限流代理
// 容量设为QPM的一半，允许一定的突发流量
func NewRateLimitedCompletionClient(original CompletionClient, qpm int) *RateLimitedCompletionClient {
	return &RateLimitedCompletionClient{
		original:    original,
		rateLimiter: ratelimit.NewTokenBucket(qpm, qpm/2),
	}
}

// WithRetryPolicy 设置重试策略
func (rl *RateLimitedCompletionClient) WithRetryPolicy(waitTime time.Duration, maxRetries int) *RateLimitedCompletionClient {
	rl.rateLimiter.WithRetryPolicy(waitTime, maxRetries)
	return rl
}

// Complete 代理Complete方法，增加限流和重试逻辑
func (rl *RateLimitedCompletionClient) Complete(ctx context.Context, messages []*schema.Message, format *ResponseFormat) (*schema.Message, error) {
	var response *schema.Message

	err := rl.rateLimiter.RetryWithBackoff(ctx, func() error {
		var callErr error
		response, callErr = rl.original.Complete(ctx, messages, format)
		return callErr
	})

	return response, err
}
