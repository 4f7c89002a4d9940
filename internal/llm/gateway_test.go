package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient 模拟底层模型客户端
type fakeClient struct {
	response *schema.Message
	err      error
	calls    int
	lastTask string
}

func (f *fakeClient) Complete(ctx context.Context, messages []*schema.Message, format *ResponseFormat) (*schema.Message, error) {
	f.calls++
	f.lastTask = TaskFromContext(ctx)
	return f.response, f.err
}

func TestGateway_Invoke(t *testing.T) {
	client := &fakeClient{response: &schema.Message{Role: schema.Assistant, Content: "generated text"}}
	gw := NewGateway(client, 5*time.Second)

	content, err := gw.Invoke(context.Background(), "generate_resume", []*schema.Message{schema.UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "generated text", content)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "generate_resume", client.lastTask, "任务名应该通过上下文传递给客户端")
}

func TestGateway_InvokeError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	gw := NewGateway(client, 5*time.Second)

	_, err := gw.Invoke(context.Background(), "job_match", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_match", "错误信息应该包含任务名")
}

func TestGateway_EmptyCompletion(t *testing.T) {
	client := &fakeClient{response: &schema.Message{Role: schema.Assistant, Content: "   "}}
	gw := NewGateway(client, 5*time.Second)

	_, err := gw.Invoke(context.Background(), "generate_resume", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCompletion, "空白补全应该视为空结果")
}

func TestGateway_DefaultTimeout(t *testing.T) {
	gw := NewGateway(&fakeClient{}, 0)
	assert.Equal(t, 60*time.Second, gw.timeout, "未配置超时应该使用默认值")
}

func TestRateLimitedClient_Retries(t *testing.T) {
	// 第一次返回可重试错误，第二次成功
	client := &flakyClient{failures: 1, failErr: errors.New("429 Too Many Requests")}
	rl := NewRateLimitedCompletionClient(client, 6000).WithRetryPolicy(time.Millisecond, 3)

	resp, err := rl.Complete(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, client.calls)
}

func TestRateLimitedClient_NonRetryable(t *testing.T) {
	client := &flakyClient{failures: 10, failErr: errors.New("invalid request")}
	rl := NewRateLimitedCompletionClient(client, 6000).WithRetryPolicy(time.Millisecond, 3)

	_, err := rl.Complete(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, client.calls, "不可重试的错误只应该调用一次")
}

// flakyClient 前N次调用失败
type flakyClient struct {
	failures int
	failErr  error
	calls    int
}

func (f *flakyClient) Complete(ctx context.Context, messages []*schema.Message, format *ResponseFormat) (*schema.Message, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failErr
	}
	return &schema.Message{Role: schema.Assistant, Content: "ok"}, nil
}
