package generator

import (
	"errors"
	"fmt"
)

// 生成流水线的哨兵错误
var (
	// ErrNotFound 引用的简历/岗位不存在，或不属于请求用户
	ErrNotFound = errors.New("referenced record not found")

	// ErrValidation 请求参数校验失败，未消耗任何模型调用
	ErrValidation = errors.New("invalid generation request")

	// ErrGenerationInvalid 模型输出无法通过结构校验
	ErrGenerationInvalid = errors.New("model output failed validation")
)

// 流水线阶段名
const (
	StageResolve  = "resolve"
	StageExtract  = "extract"
	StagePrompt   = "prompt"
	StageInvoke   = "invoke"
	StageValidate = "validate"
	StagePersist  = "persist"
)

// GenerateError 携带操作名和失败阶段的包装错误
type GenerateError struct {
	Op      string // 操作名，如 "GenerateCoverLetter"
	Stage   string // 失败阶段，取 Stage* 之一
	BaseErr error  // 底层错误
	Detail  string // 补充说明，可为空
}

func (e *GenerateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Op, e.Stage, e.Detail, e.BaseErr)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Stage, e.BaseErr)
}

func (e *GenerateError) Unwrap() error {
	return e.BaseErr
}

// newError 构造GenerateError
func newError(op, stage string, base error, detail string) *GenerateError {
	return &GenerateError{Op: op, Stage: stage, BaseErr: base, Detail: detail}
}
