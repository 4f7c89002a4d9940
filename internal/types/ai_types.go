package types

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location,omitempty"`
	GraduationDate string `json:"graduationDate"`
	GPA            string `json:"gpa,omitempty"`
}

// StructuredResumeData LLM从简历文本中提取的结构化数据
// name/email/skills/experience/education 为必填，缺失视为校验失败
type StructuredResumeData struct {
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	Location       string            `json:"location,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Skills         []string          `json:"skills"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Certifications []string          `json:"certifications,omitempty"`
	Languages      []string          `json:"languages,omitempty"`
}

// LLMJobMatch 模型返回的单条岗位匹配结果（未关联岗位记录）
type LLMJobMatch struct {
	// JobID 是人类可读的岗位编号（如 JOB-001），不是数据库主键
	JobID          string   `json:"jobId"`
	RelevanceScore int      `json:"relevanceScore"`
	MatchReasons   []string `json:"matchReasons"`
}

// AutoGenTask 自动生成流程中的子任务名
type AutoGenTask string

const (
	AutoGenTaskExtract        AutoGenTask = "extract"
	AutoGenTaskResume         AutoGenTask = "resume"
	AutoGenTaskCoverLetter    AutoGenTask = "cover-letter"
	AutoGenTaskRecommendation AutoGenTask = "recommendation-letter"
)

// AutoGenOutcome 自动生成流程中单个子任务的结果
// 上传接口不会看到这些错误，它们只用于日志和测试断言
type AutoGenOutcome struct {
	Task      AutoGenTask `json:"task"`
	Succeeded bool        `json:"succeeded"`
	Error     string      `json:"error,omitempty"`
}
