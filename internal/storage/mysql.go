package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"job-agent-go/internal/config"
	"job-agent-go/internal/storage/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("job-agent-go/storage/mysql")

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，附带超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	if err := m.autoMigrateSchema(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	// 迁移阶段关闭SQL日志，避免刷屏
	silentLogger := logger.New(
		log.New(log.Writer(), "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	silentDB := m.db.Session(&gorm.Session{Logger: silentLogger})

	err := silentDB.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Resume{},
		&models.Application{},
		&models.GeneratedDocument{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// startSpan 为单个数据库操作创建命名span
func (m *MySQL) startSpan(ctx context.Context, op, table string) (context.Context, trace.Span) {
	ctx, span := mysqlTracer.Start(ctx, fmt.Sprintf("MySQL.%s", op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMySQL,
			attribute.String("db.name", m.cfg.Database),
			attribute.String("db.sql.table", table),
		))
	return ctx, span
}

// finishSpan 记录操作结果，ErrRecordNotFound不算错误
func finishSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// ---- User ----

// GetUserByID 通过主键获取用户，不存在时返回 (nil, nil)
func (m *MySQL) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	ctx, span := m.startSpan(ctx, "GetUserByID", "users")
	var user models.User
	err := m.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUserByOpenID 按OpenID查找用户，不存在时创建
func (m *MySQL) GetOrCreateUserByOpenID(ctx context.Context, openID, name, email string) (*models.User, error) {
	ctx, span := m.startSpan(ctx, "GetOrCreateUserByOpenID", "users")
	var user models.User
	err := m.db.WithContext(ctx).Where("open_id = ?", openID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{OpenID: openID, Name: name, Email: email, Role: "user", LastSignedIn: time.Now()}
		err = m.db.WithContext(ctx).Create(&user).Error
	}
	finishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- Job ----

// CreateJob 创建岗位
func (m *MySQL) CreateJob(ctx context.Context, job *models.Job) error {
	ctx, span := m.startSpan(ctx, "CreateJob", "jobs")
	err := m.db.WithContext(ctx).Create(job).Error
	finishSpan(span, err)
	return err
}

// GetJobByID 通过主键获取岗位，不存在时返回 (nil, nil)
func (m *MySQL) GetJobByID(ctx context.Context, id uint64) (*models.Job, error) {
	ctx, span := m.startSpan(ctx, "GetJobByID", "jobs")
	var job models.Job
	err := m.db.WithContext(ctx).First(&job, "id = ?", id).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobByJobID 通过岗位编号(如 JOB-001)获取岗位，不存在时返回 (nil, nil)
func (m *MySQL) GetJobByJobID(ctx context.Context, jobID string) (*models.Job, error) {
	ctx, span := m.startSpan(ctx, "GetJobByJobID", "jobs")
	var job models.Job
	err := m.db.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// JobFilter 岗位列表查询条件
type JobFilter struct {
	Status  string
	JobType string
	Keyword string // 匹配标题或公司
}

// ListJobs 按条件查询岗位，按创建时间倒序
func (m *MySQL) ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	ctx, span := m.startSpan(ctx, "ListJobs", "jobs")
	query := m.db.WithContext(ctx).Model(&models.Job{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.JobType != "" {
		query = query.Where("job_type = ?", filter.JobType)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR company LIKE ?", like, like)
	}
	var jobs []models.Job
	err := query.Order("created_at DESC").Find(&jobs).Error
	finishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListActiveJobs 查询所有在招岗位，供岗位匹配使用
func (m *MySQL) ListActiveJobs(ctx context.Context) ([]models.Job, error) {
	return m.ListJobs(ctx, JobFilter{Status: "active"})
}

// UpdateJob 更新岗位字段
func (m *MySQL) UpdateJob(ctx context.Context, id uint64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	ctx, span := m.startSpan(ctx, "UpdateJob", "jobs")
	err := m.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(updates).Error
	finishSpan(span, err)
	return err
}

// DeleteJob 删除岗位
func (m *MySQL) DeleteJob(ctx context.Context, id uint64) error {
	ctx, span := m.startSpan(ctx, "DeleteJob", "jobs")
	err := m.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id).Error
	finishSpan(span, err)
	return err
}

// ---- Resume ----

// CreateResume 创建简历记录
func (m *MySQL) CreateResume(ctx context.Context, resume *models.Resume) error {
	ctx, span := m.startSpan(ctx, "CreateResume", "resumes")
	err := m.db.WithContext(ctx).Create(resume).Error
	finishSpan(span, err)
	return err
}

// GetResumeByID 通过主键获取简历，不存在时返回 (nil, nil)
func (m *MySQL) GetResumeByID(ctx context.Context, id uint64) (*models.Resume, error) {
	ctx, span := m.startSpan(ctx, "GetResumeByID", "resumes")
	var resume models.Resume
	err := m.db.WithContext(ctx).First(&resume, "id = ?", id).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// ListUserResumes 查询用户的全部简历，按创建时间倒序
func (m *MySQL) ListUserResumes(ctx context.Context, userID uint64) ([]models.Resume, error) {
	ctx, span := m.startSpan(ctx, "ListUserResumes", "resumes")
	var resumes []models.Resume
	err := m.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&resumes).Error
	finishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return resumes, nil
}

// GetPrimaryResume 获取用户的主简历，没有时回退到最新一份，都没有返回 (nil, nil)
func (m *MySQL) GetPrimaryResume(ctx context.Context, userID uint64) (*models.Resume, error) {
	ctx, span := m.startSpan(ctx, "GetPrimaryResume", "resumes")
	var resume models.Resume
	err := m.db.WithContext(ctx).Where("user_id = ? AND is_primary = ?", userID, true).First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = m.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&resume).Error
	}
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// SetPrimaryResume 将指定简历设为主简历，同一用户的其余简历取消主标记
func (m *MySQL) SetPrimaryResume(ctx context.Context, userID, resumeID uint64) error {
	ctx, span := m.startSpan(ctx, "SetPrimaryResume", "resumes")
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Resume{}).Where("user_id = ?", userID).Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Resume{}).Where("id = ? AND user_id = ?", resumeID, userID).Update("is_primary", true).Error
	})
	finishSpan(span, err)
	return err
}

// UpdateResumeExtractedText 回填简历的提取文本
func (m *MySQL) UpdateResumeExtractedText(ctx context.Context, id uint64, text string) error {
	ctx, span := m.startSpan(ctx, "UpdateResumeExtractedText", "resumes")
	err := m.db.WithContext(ctx).Model(&models.Resume{}).Where("id = ?", id).Update("extracted_text", text).Error
	finishSpan(span, err)
	return err
}

// UpdateResumeExtractedData 回填LLM提取的结构化数据
func (m *MySQL) UpdateResumeExtractedData(ctx context.Context, id uint64, data datatypes.JSON) error {
	ctx, span := m.startSpan(ctx, "UpdateResumeExtractedData", "resumes")
	err := m.db.WithContext(ctx).Model(&models.Resume{}).Where("id = ?", id).Update("extracted_data", data).Error
	finishSpan(span, err)
	return err
}

// DeleteResume 删除简历记录
func (m *MySQL) DeleteResume(ctx context.Context, id uint64) error {
	ctx, span := m.startSpan(ctx, "DeleteResume", "resumes")
	err := m.db.WithContext(ctx).Delete(&models.Resume{}, "id = ?", id).Error
	finishSpan(span, err)
	return err
}

// ---- Application ----

// CreateApplication 创建投递记录
func (m *MySQL) CreateApplication(ctx context.Context, app *models.Application) error {
	ctx, span := m.startSpan(ctx, "CreateApplication", "applications")
	err := m.db.WithContext(ctx).Create(app).Error
	finishSpan(span, err)
	return err
}

// GetApplicationByID 通过主键获取投递记录，不存在时返回 (nil, nil)
func (m *MySQL) GetApplicationByID(ctx context.Context, id uint64) (*models.Application, error) {
	ctx, span := m.startSpan(ctx, "GetApplicationByID", "applications")
	var app models.Application
	err := m.db.WithContext(ctx).First(&app, "id = ?", id).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListUserApplications 查询用户的全部投递记录，按投递时间倒序
func (m *MySQL) ListUserApplications(ctx context.Context, userID uint64) ([]models.Application, error) {
	ctx, span := m.startSpan(ctx, "ListUserApplications", "applications")
	var apps []models.Application
	err := m.db.WithContext(ctx).Where("user_id = ?", userID).Order("applied_at DESC").Find(&apps).Error
	finishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateApplicationStatus 更新投递状态
func (m *MySQL) UpdateApplicationStatus(ctx context.Context, id uint64, status string) error {
	ctx, span := m.startSpan(ctx, "UpdateApplicationStatus", "applications")
	err := m.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Update("status", status).Error
	finishSpan(span, err)
	return err
}

// DeleteApplication 删除投递记录
func (m *MySQL) DeleteApplication(ctx context.Context, id uint64) error {
	ctx, span := m.startSpan(ctx, "DeleteApplication", "applications")
	err := m.db.WithContext(ctx).Delete(&models.Application{}, "id = ?", id).Error
	finishSpan(span, err)
	return err
}

// ---- GeneratedDocument ----

// CreateGeneratedDocument 保存AI生成的文档
func (m *MySQL) CreateGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument) error {
	ctx, span := m.startSpan(ctx, "CreateGeneratedDocument", "generated_documents")
	err := m.db.WithContext(ctx).Create(doc).Error
	finishSpan(span, err)
	return err
}

// GetGeneratedDocumentByID 通过主键获取生成文档，不存在时返回 (nil, nil)
func (m *MySQL) GetGeneratedDocumentByID(ctx context.Context, id uint64) (*models.GeneratedDocument, error) {
	ctx, span := m.startSpan(ctx, "GetGeneratedDocumentByID", "generated_documents")
	var doc models.GeneratedDocument
	err := m.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	finishSpan(span, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListUserGeneratedDocuments 查询用户的生成文档，documentType为空时不过滤类型
func (m *MySQL) ListUserGeneratedDocuments(ctx context.Context, userID uint64, documentType string) ([]models.GeneratedDocument, error) {
	ctx, span := m.startSpan(ctx, "ListUserGeneratedDocuments", "generated_documents")
	query := m.db.WithContext(ctx).Where("user_id = ?", userID)
	if documentType != "" {
		query = query.Where("document_type = ?", documentType)
	}
	var docs []models.GeneratedDocument
	err := query.Order("created_at DESC").Find(&docs).Error
	finishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateGeneratedDocument 更新生成文档的标题/内容
func (m *MySQL) UpdateGeneratedDocument(ctx context.Context, id uint64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	ctx, span := m.startSpan(ctx, "UpdateGeneratedDocument", "generated_documents")
	err := m.db.WithContext(ctx).Model(&models.GeneratedDocument{}).Where("id = ?", id).Updates(updates).Error
	finishSpan(span, err)
	return err
}

// DeleteGeneratedDocument 删除生成文档
func (m *MySQL) DeleteGeneratedDocument(ctx context.Context, id uint64) error {
	ctx, span := m.startSpan(ctx, "DeleteGeneratedDocument", "generated_documents")
	err := m.db.WithContext(ctx).Delete(&models.GeneratedDocument{}, "id = ?", id).Error
	finishSpan(span, err)
	return err
}
