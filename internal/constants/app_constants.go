package constants

import "time"

// 支持的简历文件MIME类型
const (
	MimePDF        = "application/pdf"
	MimeDocx       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDocLegacy  = "application/msword" // 旧版Word的别名，按Docx处理
	MaxResumeBytes = 10 * 1024 * 1024    // 上传文件大小上限
)

// 生成文档类型
const (
	DocTypeResume         = "resume"
	DocTypeCoverLetter    = "cover-letter"
	DocTypeRecommendation = "recommendation-letter"
)

// 岗位状态
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
	JobStatusDraft  = "draft"
)

// 岗位匹配数量限制
const (
	MatchLimitMin = 1
	MatchLimitMax = 20
)

// 自动生成任务的消息队列拓扑
const (
	AutoGenExchange   = "resume.events"
	AutoGenRoutingKey = "resume.autogen"
	AutoGenQueue      = "autogen_tasks"
)

// 提取文本缓存
const (
	ResumeTextCacheTTL = 24 * time.Hour
)
