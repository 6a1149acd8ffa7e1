// Package optimizer 对合成后的配置执行条件优化。
//
// 三个补丁分别作用于提示词、工具列表与提示词工程子配置，字段互不重叠，
// 因此应用顺序不影响结果。
package optimizer

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

// 补丁名称。
const (
	PatchPrompt      = "prompt_enrichment"
	PatchTools       = "tool_supplement"
	PatchCompression = "compression"
)

const (
	shortPromptRunes = 100
	minToolCount     = 3
)

// Optimizer 根据模式与需求为配置打补丁。
type Optimizer struct {
	lex *lexicon.Lexicon
}

// New 创建优化器，lex 为 nil 时使用内置词表。
func New(lex *lexicon.Lexicon) *Optimizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Optimizer{lex: lex}
}

// Optimize 返回打过补丁的配置副本与实际应用的补丁名称。quick 模式下原样返回。
func (o *Optimizer) Optimize(mode employee.Mode, form employee.ConfigForm, reqs employee.ConfigRequirements) (employee.ConfigForm, []string) {
	out := form.Clone()
	if mode == employee.ModeQuick {
		return out, nil
	}

	var applied []string
	if o.enrichPrompt(&out) {
		applied = append(applied, PatchPrompt)
	}
	if o.supplementTools(&out) {
		applied = append(applied, PatchTools)
	}
	if reqs.Advanced.CompressionNeeded {
		out.PromptConfig.Mode = employee.PromptModeAdvanced
		out.PromptConfig.Compression = employee.DefaultCompression()
		if out.PromptConfig.Context == nil {
			out.PromptConfig.Context = employee.DefaultContext()
		}
		applied = append(applied, PatchCompression)
	}
	return out, applied
}

func (o *Optimizer) enrichPrompt(form *employee.ConfigForm) bool {
	if utf8.RuneCountInString(form.SystemPrompt) >= shortPromptRunes {
		return false
	}

	var b strings.Builder
	if !selfReferential(form.SystemPrompt) {
		fmt.Fprintf(&b, "你是%s，%s部门的AI数字员工。", form.Name, form.Department)
	}
	b.WriteString(form.SystemPrompt)
	if len(form.Responsibilities) > 0 {
		fmt.Fprintf(&b, "\n你的主要职责包括：%s。", strings.Join(form.Responsibilities, "、"))
	}
	if form.Personality != "" {
		fmt.Fprintf(&b, "\n请在沟通中保持%s的风格。", form.Personality)
	}
	form.SystemPrompt = b.String()
	return true
}

func selfReferential(prompt string) bool {
	lower := strings.ToLower(prompt)
	return strings.Contains(prompt, "你是") || strings.Contains(lower, "you are")
}

func (o *Optimizer) supplementTools(form *employee.ConfigForm) bool {
	if len(form.AllowedTools) >= minToolCount {
		return false
	}
	recommended := o.lex.EnhancementTools
	if dept, ok := o.lex.Department(form.Department); ok {
		recommended = dept.RecommendedTools
	}
	added := false
	for _, tool := range recommended {
		if !slices.Contains(form.AllowedTools, tool) {
			form.AllowedTools = append(form.AllowedTools, tool)
			added = true
		}
	}
	return added
}
