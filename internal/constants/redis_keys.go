package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ResumeModulePrefix 简历模块
	ResumeModulePrefix = "resume"

	// EntityText 文本实体
	EntityText = "text"

	// KeyResumeExtractedText 简历提取文本缓存 (STRING)
	// 格式: app:resume:text:{fileKey}
	KeyResumeExtractedText = AppPrefix + ":" + ResumeModulePrefix + ":" + EntityText + ":%s"
)
