package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	// DashScope的OpenAI兼容端点
	openAICompatibleQwenAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultQwenModelName       = "qwen-plus"
)

// AliyunQwenChatModel 通过OpenAI兼容API与阿里云通义千问模型交互
type AliyunQwenChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
	// resolveModel 按任务名返回专用模型，返回空串时使用默认模型
	resolveModel func(task string) string
}

// 确保AliyunQwenChatModel实现了CompletionClient接口
var _ CompletionClient = (*AliyunQwenChatModel)(nil)

// NewAliyunQwenChatModel 创建一个新的 AliyunQwenChatModel 实例
func NewAliyunQwenChatModel(apiKey string, modelName string, apiURL string) (*AliyunQwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultQwenModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = openAICompatibleQwenAPIURL
	}

	log.Printf("使用阿里云通义千问 LLM 客户端，API URL: %s, 模型: %s", url, mn)

	return &AliyunQwenChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{},
	}, nil
}

// --- OpenAI Compatible Request/Response Structures ---

type openAIChatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []*schema.Message `json:"messages"` // eino schema.Message的role/content与OpenAI格式兼容
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openAIChatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// WithModelResolver 设置按任务名选择模型的回调，如 config.GetModelForTask
func (aq *AliyunQwenChatModel) WithModelResolver(resolve func(task string) string) *AliyunQwenChatModel {
	aq.resolveModel = resolve
	return aq
}

// modelForRequest 根据上下文中的任务名选择本次请求的模型
func (aq *AliyunQwenChatModel) modelForRequest(ctx context.Context) string {
	if aq.resolveModel != nil {
		if task := TaskFromContext(ctx); task != "" {
			if m := aq.resolveModel(task); strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return aq.modelName
}

// Complete 实现CompletionClient接口
func (aq *AliyunQwenChatModel) Complete(ctx context.Context, messages []*schema.Message, format *ResponseFormat) (*schema.Message, error) {
	reqPayload := openAIChatCompletionRequest{
		Model:          aq.modelForRequest(ctx),
		Messages:       messages,
		ResponseFormat: format,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aq.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+aq.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := aq.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API 请求失败，状态 %s: %s", ErrModelUnavailable, httpResp.Status, string(bodyBytes))
	}

	var openAIResp openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
	}

	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: 从 API 收到空选项", ErrEmptyCompletion)
	}

	choice := openAIResp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, ErrModelRefused
	}

	responseContent := ""
	if choice.Message.Content != nil {
		responseContent = *choice.Message.Content
	}

	role := schema.RoleType(choice.Message.Role)
	if role == "" {
		role = schema.Assistant
	}

	return &schema.Message{
		Role:    role,
		Content: responseContent,
	}, nil
}
