package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Allow(t *testing.T) {
	// 容量2，初始填满
	tb := NewTokenBucket(60, 2)

	assert.True(t, tb.Allow(), "第一个请求应该放行")
	assert.True(t, tb.Allow(), "第二个请求应该放行")
	assert.False(t, tb.Allow(), "令牌耗尽后应该拒绝")
}

func TestTokenBucket_Refill(t *testing.T) {
	// 6000 QPM = 每秒100个令牌
	tb := NewTokenBucket(6000, 1)

	require.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "令牌刚耗尽")

	time.Sleep(50 * time.Millisecond)
	assert.True(t, tb.Allow(), "等待后令牌应该已补充")
}

func TestTokenBucket_DefaultCapacity(t *testing.T) {
	tb := NewTokenBucket(60, 0)
	assert.Equal(t, float64(30), tb.capacity, "默认容量应该是QPM的一半")

	tb = NewTokenBucket(1, 0)
	assert.Equal(t, float64(1), tb.capacity, "容量最小为1")
}

func TestTokenBucket_WaitRespectsContext(t *testing.T) {
	// 极低速率，令牌耗尽后等待会很久
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "上下文超时应该中断等待")
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("invalid api key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "不可重试的错误不应该重试")
}

func TestRetryWithBackoff_RetryableError(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 3)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("429 Too Many Requests")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "可重试错误应该重试到成功")
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	tb := NewTokenBucket(6000, 10).WithRetryPolicy(time.Millisecond, 2)

	calls := 0
	err := tb.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "初次调用加2次重试")
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errors.New("context deadline exceeded")))
	assert.True(t, isRetryableError(errors.New("read tcp: i/o timeout")))
	assert.True(t, isRetryableError(errors.New("服务器繁忙，请稍后再试")))
	assert.False(t, isRetryableError(errors.New("401 unauthorized")))
}
