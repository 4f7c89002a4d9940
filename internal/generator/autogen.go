package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"job-agent-go/internal/constants"
	"job-agent-go/internal/logger"
	"job-agent-go/internal/parser"
	"job-agent-go/internal/storage/models"
	"job-agent-go/internal/types"
)

// AutoGenerateOnUpload 简历上传后的自动生成侧流程
// 先做一次结构化提取并连同原始文本一起回填，然后基于提取结果生成简历/求职信/推荐信三份文档
// 任何失败都不影响已提交的简历记录，调用方只拿到逐任务的结果列表
func (g *Generator) AutoGenerateOnUpload(ctx context.Context, userID, resumeID uint64) []types.AutoGenOutcome {
	const op = "AutoGenerateOnUpload"
	log := logger.Ctx(ctx)

	outcomes := make([]types.AutoGenOutcome, 0, 4)
	fail := func(task types.AutoGenTask, err error) {
		log.Warn().Err(err).Uint64("resume_id", resumeID).Str("task", string(task)).Msg("自动生成子任务失败")
		outcomes = append(outcomes, types.AutoGenOutcome{Task: task, Succeeded: false, Error: err.Error()})
	}
	ok := func(task types.AutoGenTask) {
		outcomes = append(outcomes, types.AutoGenOutcome{Task: task, Succeeded: true})
	}

	resume, err := g.resolveOwnedResume(ctx, op, userID, resumeID)
	if err != nil {
		fail(types.AutoGenTaskExtract, err)
		return outcomes
	}

	// 自动生成流程要求真实的简历文本，提取失败直接中止整个侧流程
	var resumeText string
	if g.text != nil {
		resumeText, err = g.text.GetText(ctx, resume.FileKey, resume.FileName, resume.MimeType, resume.ExtractedText)
		if err != nil {
			fail(types.AutoGenTaskExtract, fmt.Errorf("简历文本提取失败: %w", err))
			return outcomes
		}
	} else {
		resumeText = resume.ExtractedText
	}

	// 结构化提取失败同样中止，三份文档都依赖这一步
	data, err := g.ExtractStructuredData(ctx, resume, resumeText)
	if err != nil {
		fail(types.AutoGenTaskExtract, err)
		return outcomes
	}
	// 原始文本与结构化数据一起回填，后续生成直接复用
	if err := g.store.UpdateResumeExtractedText(ctx, resume.ID, resumeText); err != nil {
		log.Warn().Err(err).Uint64("resume_id", resume.ID).Msg("回填简历提取文本失败")
	}
	ok(types.AutoGenTaskExtract)

	// 简历文档直接基于结构化数据生成，求职信/推荐信模板基于原始文本
	if _, err := g.autoGenerateResumeDoc(ctx, op, userID, data); err != nil {
		fail(types.AutoGenTaskResume, err)
	} else {
		ok(types.AutoGenTaskResume)
	}

	templates := []struct {
		task    types.AutoGenTask
		docType string
	}{
		{types.AutoGenTaskCoverLetter, constants.DocTypeCoverLetter},
		{types.AutoGenTaskRecommendation, constants.DocTypeRecommendation},
	}
	for _, t := range templates {
		if _, err := g.generateTemplateDoc(ctx, op, userID, t.docType, resumeText, data.Name); err != nil {
			fail(t.task, err)
			continue
		}
		ok(t.task)
	}

	return outcomes
}

// autoGenerateResumeDoc 用已提取的结构化数据生成简历文档
func (g *Generator) autoGenerateResumeDoc(ctx context.Context, op string, userID uint64, data *types.StructuredResumeData) (*models.GeneratedDocument, error) {
	raw, err := parser.MarshalStructuredResume(data)
	if err != nil {
		return nil, newError(op, StagePrompt, err, "序列化结构化数据失败")
	}

	messages := parser.BuildResumeGenerationMessages("", string(raw), "")
	content, err := g.model.Invoke(ctx, "generate_resume", messages, nil)
	if err != nil {
		return nil, newError(op, StageInvoke, err, "")
	}

	name := data.Name
	if name == "" {
		name = "User"
	}

	return g.persistDocument(ctx, op, &models.GeneratedDocument{
		UserID:       userID,
		DocumentType: constants.DocTypeResume,
		Title:        fmt.Sprintf("Professional Resume - %s", name),
		Content:      content,
	})
}

// DecodeAutoGenerateTask 解析队列中的自动生成任务消息，返回所属用户和简历主键
func DecodeAutoGenerateTask(body []byte) (userID, resumeID uint64, err error) {
	var task struct {
		UserID   uint64 `json:"user_id"`
		ResumeID uint64 `json:"resume_id"`
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return 0, 0, fmt.Errorf("解析自动生成任务消息失败: %w", err)
	}
	if task.UserID == 0 || task.ResumeID == 0 {
		return 0, 0, fmt.Errorf("自动生成任务消息缺少user_id或resume_id")
	}
	return task.UserID, task.ResumeID, nil
}
