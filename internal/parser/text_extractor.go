package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"job-agent-go/internal/constants"
)

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("unsupported document format")

// DocumentExtractor 文档文本提取器接口
type DocumentExtractor interface {
	// ExtractText 从字节数组提取纯文本和元数据
	// mimeType 决定解析方式，不支持的格式返回 ErrUnsupportedFormat
	ExtractText(ctx context.Context, data []byte, fileName, mimeType string) (string, map[string]interface{}, error)
}

// SupportedMimeType 判断是否为支持的简历文件格式
func SupportedMimeType(mimeType string) bool {
	switch mimeType {
	case constants.MimePDF, constants.MimeDocx, constants.MimeDocLegacy:
		return true
	}
	return false
}

// TikaDocumentExtractor 基于Apache Tika的文档解析器
// Tika同时支持PDF和Word，Content-Type透传给服务端即可
type TikaDocumentExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否提取精简元数据
	extractMinimalMetadata bool
	// 是否提取链接注释文本
	extractAnnotations bool
	// 日志记录
	logger *log.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaDocumentExtractor)

// WithMinimalMetadata 配置是否提取精简的关键元数据
func WithMinimalMetadata(extract bool) TikaOption {
	return func(e *TikaDocumentExtractor) {
		e.extractMinimalMetadata = extract
	}
}

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaDocumentExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(logger *log.Logger) TikaOption {
	return func(e *TikaDocumentExtractor) {
		e.logger = logger
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaDocumentExtractor) {
		e.Client.Timeout = timeout
	}
}

// 确保TikaDocumentExtractor实现了DocumentExtractor接口
var _ DocumentExtractor = (*TikaDocumentExtractor)(nil)

// NewTikaDocumentExtractor 创建一个新的Tika文档解析器
func NewTikaDocumentExtractor(serverURL string, options ...TikaOption) *TikaDocumentExtractor {
	client := &http.Client{
		Timeout: 60 * time.Second,
	}

	extractor := &TikaDocumentExtractor{
		ServerURL:              serverURL,
		Client:                 client,
		extractMinimalMetadata: true, // 默认提取精简元数据
		extractAnnotations:     true, // 默认提取注释文本
		logger:                 log.New(os.Stderr, "[TikaDoc] ", log.LstdFlags),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// ExtractText 从字节数组提取文本内容
func (e *TikaDocumentExtractor) ExtractText(ctx context.Context, data []byte, fileName, mimeType string) (string, map[string]interface{}, error) {
	if !SupportedMimeType(mimeType) {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	startTime := time.Now()
	e.logger.Printf("开始提取文档文本 (文件: %s, 类型: %s)", fileName, mimeType)

	// 基本元数据，无论如何都会包含
	baseMetadata := map[string]interface{}{
		"extraction_time":  time.Now().Format(time.RFC3339),
		"source_file_name": fileName,
		"mime_type":        mimeType,
	}

	// 纯文本模式
	url := fmt.Sprintf("%s/tika", e.ServerURL)

	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(data))
	if err != nil {
		return "", baseMetadata, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "text/plain")
	if fileName != "" {
		req.Header.Set("X-Tika-Resource-Name", fileName)
	}
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", baseMetadata, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", baseMetadata, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", baseMetadata, fmt.Errorf("读取Tika响应失败: %w", err)
	}

	text := string(textBytes)
	baseMetadata["text_length"] = len(text)
	baseMetadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	// 按需补充文档元数据
	if e.extractMinimalMetadata {
		if rawMetadata, err := e.extractMetadata(ctx, data, fileName, mimeType); err == nil {
			for k, v := range rawMetadata {
				if isImportantMetadata(k) {
					baseMetadata[k] = v
				}
			}
		} else {
			e.logger.Printf("元数据提取失败: %v, 继续使用基本元数据", err)
		}
	}

	e.logger.Printf("文档文本提取完成: 提取了 %d 个字符 (用时 %.2f秒)", len(text), time.Since(startTime).Seconds())
	return text, baseMetadata, nil
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"pdf:PDFVersion":      true,
		"xmpTPg:NPages":       true,
		"dcterms:created":     true,
		"language":            true,
		"dc:title":            true,
		"Content-Type":        true,
		"pdf:docinfo:title":   true,
		"pdf:docinfo:created": true,
	}
	return importantKeys[key]
}

// extractMetadata 提取文档元数据
func (e *TikaDocumentExtractor) extractMetadata(ctx context.Context, data []byte, fileName, mimeType string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/meta", e.ServerURL)

	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "application/json")
	if fileName != "" {
		req.Header.Set("X-Tika-Resource-Name", fileName)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	metadataBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}

	return metadata, nil
}
