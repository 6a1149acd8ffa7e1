// Package validation 负责数字员工配置的校验与确定性修复。
package validation

import (
	"strings"
	"unicode/utf8"

	"OpenEmployee/internal/employee"
)

const (
	// MaxPromptRunes 是系统提示词的建议长度上限。
	MaxPromptRunes = 4000

	errorPenalty   = 30
	warningPenalty = 10

	severityError = "error"
)

// Validate 校验配置。校验只读取表单，不做任何修改，对同一表单重复调用结果一致。
func Validate(form employee.ConfigForm) employee.ValidationResult {
	result := employee.ValidationResult{
		Errors:   []employee.ValidationError{},
		Warnings: []employee.ValidationWarning{},
	}

	if blank(form.Name) {
		result.Errors = append(result.Errors, employee.ValidationError{
			Field:    "name",
			Message:  "数字员工名称不能为空",
			Severity: severityError,
			Fix:      "填写一个名称，例如 AI-客服",
		})
	}
	if blank(form.Department) {
		result.Errors = append(result.Errors, employee.ValidationError{
			Field:    "department",
			Message:  "所属部门不能为空",
			Severity: severityError,
			Fix:      "选择数字员工所属的部门",
		})
	}
	if blank(form.SystemPrompt) {
		result.Errors = append(result.Errors, employee.ValidationError{
			Field:    "system_prompt",
			Message:  "系统提示词不能为空",
			Severity: severityError,
			Fix:      "描述数字员工的身份、职责与行为准则",
		})
	}

	if utf8.RuneCountInString(form.SystemPrompt) > MaxPromptRunes {
		result.Warnings = append(result.Warnings, employee.ValidationWarning{
			Field:      "system_prompt",
			Message:    "系统提示词过长",
			Impact:     "可能超出模型上下文窗口并增加调用成本",
			Suggestion: "精简提示词或启用提示词压缩",
		})
	}
	if len(form.AllowedTools) == 0 {
		result.Warnings = append(result.Warnings, employee.ValidationWarning{
			Field:      "allowed_tools",
			Message:    "未配置任何工具",
			Impact:     "数字员工只能进行对话，无法执行具体操作",
			Suggestion: "至少添加一个与职责相关的工具",
		})
	}

	result.IsValid = len(result.Errors) == 0
	result.Score = max(0, 100-errorPenalty*len(result.Errors)-warningPenalty*len(result.Warnings))
	result.Completeness = Completeness(form) * 100
	result.Recommendations = recommendations(form, result)
	return result
}

// Completeness 返回名称、部门、系统提示词与性格四项中已填写的比例。
func Completeness(form employee.ConfigForm) float64 {
	filled := 0
	for _, v := range []string{form.Name, form.Department, form.SystemPrompt, form.Personality} {
		if !blank(v) {
			filled++
		}
	}
	return float64(filled) / 4
}

func recommendations(form employee.ConfigForm, result employee.ValidationResult) []string {
	out := make([]string, 0, len(result.Errors)+len(result.Warnings)+2)
	for _, e := range result.Errors {
		out = append(out, e.Message+"："+e.Fix)
	}
	for _, w := range result.Warnings {
		out = append(out, w.Suggestion)
	}
	if len(form.Examples) == 0 {
		out = append(out, "添加对话示例，帮助数字员工把握回复风格")
	}
	if len(form.FAQs) == 0 {
		out = append(out, "补充常见问题与标准答案，提升回答准确性")
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
