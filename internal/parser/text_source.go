package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// ErrSourceUnavailable 简历原始文件不可用（下载失败等）
var ErrSourceUnavailable = errors.New("resume source unavailable")

// FileFetcher 简历原始文件获取接口，由MinIO实现
type FileFetcher interface {
	GetResumeFile(ctx context.Context, objectName string) ([]byte, error)
}

// TextCache 提取文本缓存接口，由Redis实现，可为nil
type TextCache interface {
	GetCachedResumeText(ctx context.Context, fileKey string) (string, error)
	SetCachedResumeText(ctx context.Context, fileKey string, text string) error
}

// ResumeTextSource 简历文本来源
// 按优先级: 数据库中已回填的文本 -> Redis缓存 -> 下载原始文件重新提取
type ResumeTextSource struct {
	fetcher   FileFetcher
	cache     TextCache
	extractor DocumentExtractor
	logger    *log.Logger
}

// NewResumeTextSource 创建简历文本来源，cache可为nil
func NewResumeTextSource(fetcher FileFetcher, cache TextCache, extractor DocumentExtractor, logger *log.Logger) *ResumeTextSource {
	if logger == nil {
		logger = log.New(os.Stderr, "[ResumeText] ", log.LstdFlags)
	}
	return &ResumeTextSource{
		fetcher:   fetcher,
		cache:     cache,
		extractor: extractor,
		logger:    logger,
	}
}

// GetText 获取简历纯文本
// storedText为数据库中已回填的文本，非空时直接返回
func (s *ResumeTextSource) GetText(ctx context.Context, fileKey, fileName, mimeType, storedText string) (string, error) {
	if strings.TrimSpace(storedText) != "" {
		return storedText, nil
	}

	// 先查缓存
	if s.cache != nil {
		if text, err := s.cache.GetCachedResumeText(ctx, fileKey); err == nil && text != "" {
			return text, nil
		}
	}

	if !SupportedMimeType(mimeType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	data, err := s.fetcher.GetResumeFile(ctx, fileKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	text, _, err := s.extractor.ExtractText(ctx, data, fileName, mimeType)
	if err != nil {
		return "", err
	}

	// 回填缓存，失败只记日志
	if s.cache != nil {
		if err := s.cache.SetCachedResumeText(ctx, fileKey, text); err != nil {
			s.logger.Printf("写入简历文本缓存失败 (fileKey=%s): %v", fileKey, err)
		}
	}

	return text, nil
}
