package storage

import "time"

// AutoGenerateTask 简历上传后自动生成文档的任务消息
type AutoGenerateTask struct {
	TaskUUID   string    `json:"task_uuid"`   // 任务UUID
	UserID     uint64    `json:"user_id"`     // 简历所属用户
	ResumeID   uint64    `json:"resume_id"`   // 简历数据库主键
	FileKey    string    `json:"file_key"`    // MinIO中的对象键
	EnqueuedAt time.Time `json:"enqueued_at"` // 入队时间
}
