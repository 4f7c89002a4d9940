package models

import (
	"time"

	"gorm.io/datatypes"
)

// User 用户表
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	OpenID       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_users_open_id"`
	Name         string    `gorm:"type:varchar(255)"`
	Email        string    `gorm:"type:varchar(320)"`
	Role         string    `gorm:"type:varchar(20);default:'user';not null"` // user / admin
	LastSignedIn time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Job 岗位表
type Job struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	JobID        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_jobs_job_id"` // 可检索的岗位编号，如 JOB-001
	Title        string    `gorm:"type:varchar(255);not null"`
	Company      string    `gorm:"type:varchar(255);not null"`
	Location     string    `gorm:"type:varchar(255)"`
	JobType      string    `gorm:"type:varchar(20);not null"` // full-time / part-time / contract / internship / remote
	Salary       string    `gorm:"type:varchar(100)"`
	Description  string    `gorm:"type:text;not null"`
	Requirements string    `gorm:"type:text"`
	Benefits     string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20);default:'active';not null;index:idx_jobs_status"`
	PostedBy     uint64    `gorm:"not null"` // 发布者(管理员)用户ID
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_jobs_created_at"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// Resume 用户上传的简历表
type Resume struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   uint64 `gorm:"not null;index:idx_resumes_user_id"`
	FileName string `gorm:"type:varchar(255);not null"`
	FileURL  string `gorm:"type:text;not null"` // 对象存储访问URL
	FileKey  string `gorm:"type:varchar(512);not null"`
	FileSize int64  `gorm:"not null"`
	MimeType string `gorm:"type:varchar(100);not null"`
	// ExtractedText 解析出的纯文本，供AI流程复用
	ExtractedText string `gorm:"type:text"`
	// ExtractedData LLM提取的结构化简历数据（JSON）
	ExtractedData datatypes.JSON `gorm:"type:json"`
	IsPrimary     bool           `gorm:"default:false;not null"`
	CreatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Resume) TableName() string {
	return "resumes"
}

// Application 投递记录表
type Application struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index:idx_applications_user_id"`
	JobID     uint64    `gorm:"not null;index:idx_applications_job_id"` // 引用 jobs.id
	ResumeID  *uint64   // 可选：投递时使用的简历
	Status    string    `gorm:"type:varchar(20);default:'pending';not null"` // pending / reviewing / accepted / rejected
	Notes     string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Application) TableName() string {
	return "applications"
}

// GeneratedDocument AI生成的文档表（简历/求职信/推荐信）
type GeneratedDocument struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	UserID        uint64    `gorm:"not null;index:idx_gd_user_id"`
	DocumentType  string    `gorm:"type:varchar(30);not null;index:idx_gd_document_type"` // resume / cover-letter / recommendation-letter
	JobID         *uint64   // 可选：为特定岗位生成
	ApplicationID *uint64   // 可选：关联投递记录
	Title         string    `gorm:"type:varchar(255);not null"`
	Content       string    `gorm:"type:mediumtext;not null"` // Markdown文本
	FileURL       string    `gorm:"type:text"`                // 可选：导出后的文件URL
	FileKey       string    `gorm:"type:varchar(512)"`
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}
