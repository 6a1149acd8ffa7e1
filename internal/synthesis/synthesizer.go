// Package synthesis 将配置需求合成为具体的数字员工配置，并给出质量指标、建议与备选方案。
package synthesis

import (
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
	"OpenEmployee/internal/validation"
)

const (
	longPromptRunes  = 100
	shortPromptRunes = 50

	baseConfidence = 0.7
	richToolCount  = 3

	enhancedScore   = 0.85
	simplifiedScore = 0.7
	simplifiedTools = 3
	enhancedExtra   = 2
)

// Synthesizer 负责配置合成。除员工编号中的时间戳外，输出完全由输入需求决定。
type Synthesizer struct {
	lex *lexicon.Lexicon
	now func() time.Time
}

// Option 配置 Synthesizer。
type Option func(*Synthesizer)

// WithClock 注入时钟。
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynthesizer 创建合成器，lex 为 nil 时使用内置词表。
func NewSynthesizer(lex *lexicon.Lexicon, opts ...Option) *Synthesizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	s := &Synthesizer{lex: lex, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Synthesize 生成配置。
func (s *Synthesizer) Synthesize(reqs employee.ConfigRequirements) employee.GeneratedConfig {
	form := s.buildForm(reqs)
	return employee.GeneratedConfig{
		Form: form,
		Metrics: employee.Metrics{
			Confidence:   confidence(form),
			Completeness: validation.Completeness(form),
			Quality:      quality(form),
		},
		Suggestions:  suggestions(form, reqs),
		Alternatives: s.alternatives(form, reqs),
		Validation:   validation.Validate(form),
	}
}

func (s *Synthesizer) buildForm(reqs employee.ConfigRequirements) employee.ConfigForm {
	form := employee.ConfigForm{
		EmployeeID:       s.lex.DepartmentCode(reqs.Basic.Department) + strconv.FormatInt(s.now().UnixMilli(), 10),
		Name:             reqs.Basic.Name,
		Department:       reqs.Basic.Department,
		Description:      reqs.Basic.Description,
		Priority:         reqs.Basic.Priority,
		SystemPrompt:     reqs.Persona.SystemPrompt,
		Personality:      reqs.Persona.Personality,
		Responsibilities: employee.CloneStrings(reqs.Persona.Responsibilities),
		Tone:             reqs.Persona.Tone,
		Expertise:        employee.CloneStrings(reqs.Persona.Expertise),
		AllowedTools:     employee.CloneStrings(reqs.Capabilities.AllowedTools),
		Permissions:      employee.CloneStrings(reqs.Capabilities.Permissions),
		KnowledgeDomains: employee.CloneStrings(reqs.Capabilities.KnowledgeDomains),
		Skills:           employee.CloneStrings(reqs.Capabilities.Skills),
		PromptConfig: employee.PromptConfig{
			Mode:  employee.PromptModeSimple,
			Slots: employee.CloneStrings(reqs.Advanced.SlotNeeds),
		},
		MemoryStrategy:  reqs.Advanced.MemoryStrategy,
		LearningEnabled: reqs.Advanced.LearningEnabled,
	}
	if reqs.Advanced.CompressionNeeded {
		form.PromptConfig.Mode = employee.PromptModeAdvanced
		form.PromptConfig.Compression = employee.DefaultCompression()
		form.PromptConfig.Context = employee.DefaultContext()
	}
	return form
}

func confidence(form employee.ConfigForm) float64 {
	score := baseConfidence
	switch form.Priority {
	case employee.PriorityHigh:
		score += 0.1
	case employee.PriorityLow:
		score -= 0.05
	}
	switch n := len(form.AllowedTools); {
	case n >= richToolCount:
		score += 0.1
	case n == 0:
		score -= 0.1
	}
	return employee.Clamp01(score)
}

func quality(form employee.ConfigForm) float64 {
	score := 0.0
	if utf8.RuneCountInString(form.SystemPrompt) > longPromptRunes {
		score += 0.3
	}
	if len(form.Responsibilities) > 0 {
		score += 0.2
	}
	if len(form.AllowedTools) > 0 {
		score += 0.2
	}
	if utf8.RuneCountInString(form.Personality) > 5 {
		score += 0.15
	}
	if utf8.RuneCountInString(form.Description) > 10 {
		score += 0.15
	}
	return employee.Clamp01(score)
}

func suggestions(form employee.ConfigForm, reqs employee.ConfigRequirements) []employee.Suggestion {
	out := []employee.Suggestion{}
	if utf8.RuneCountInString(form.SystemPrompt) < shortPromptRunes {
		out = append(out, employee.Suggestion{
			ID:          "suggestion-system-prompt",
			Type:        employee.SuggestionImprovement,
			Priority:    employee.PriorityMedium,
			Field:       "system_prompt",
			Title:       "完善系统提示词",
			Description: "系统提示词较短，建议补充身份、职责边界与回复风格的描述",
		})
	}
	if len(form.AllowedTools) == 0 {
		out = append(out, employee.Suggestion{
			ID:             "suggestion-allowed-tools",
			Type:           employee.SuggestionEnhancement,
			Priority:       employee.PriorityMedium,
			Field:          "allowed_tools",
			Title:          "添加工具",
			Description:    "当前未配置工具，建议添加与职责相关的工具以扩展能力",
			AutoApplicable: true,
		})
	}
	if len(form.Responsibilities) == 0 {
		out = append(out, employee.Suggestion{
			ID:          "suggestion-responsibilities",
			Type:        employee.SuggestionImprovement,
			Priority:    employee.PriorityHigh,
			Field:       "responsibilities",
			Title:       "明确工作职责",
			Description: "未识别到具体职责，建议列出数字员工需要处理的主要事项",
		})
	}
	if reqs.Advanced.CompressionNeeded {
		out = append(out, employee.Suggestion{
			ID:             "suggestion-compression",
			Type:           employee.SuggestionOptimization,
			Priority:       employee.PriorityMedium,
			Field:          "prompt_config",
			Title:          "启用提示词压缩",
			Description:    "需求较复杂，启用自适应压缩可以控制上下文长度与调用成本",
			AutoApplicable: true,
		})
	}
	return out
}

func (s *Synthesizer) alternatives(form employee.ConfigForm, reqs employee.ConfigRequirements) []employee.Alternative {
	out := []employee.Alternative{s.enhanced(form)}
	if reqs.Advanced.CompressionNeeded {
		out = append(out, simplified(form))
	}
	return out
}

func (s *Synthesizer) enhanced(form employee.ConfigForm) employee.Alternative {
	alt := form.Clone()
	var candidates []string
	if dept, ok := s.lex.Department(form.Department); ok {
		candidates = append(candidates, dept.RecommendedTools...)
	}
	candidates = append(candidates, s.lex.EnhancementTools...)

	added := 0
	for _, tool := range candidates {
		if added == enhancedExtra {
			break
		}
		if slices.Contains(alt.AllowedTools, tool) {
			continue
		}
		alt.AllowedTools = append(alt.AllowedTools, tool)
		added++
	}
	alt.SelfLearning = true
	alt.PromptConfig.Mode = employee.PromptModeAdvanced
	if alt.PromptConfig.Compression == nil {
		alt.PromptConfig.Compression = employee.DefaultCompression()
	}
	if alt.PromptConfig.Context == nil {
		alt.PromptConfig.Context = employee.DefaultContext()
	}

	return employee.Alternative{
		ID:          "alternative-enhanced",
		Name:        "增强方案",
		Description: "扩展工具集并开启自学习，适合业务场景较多的岗位",
		Form:        alt,
		Pros:        []string{"能力覆盖更全面", "可在使用中持续优化"},
		Cons:        []string{"调用成本更高", "需要更多的权限审核"},
		Score:       enhancedScore,
	}
}

func simplified(form employee.ConfigForm) employee.Alternative {
	alt := form.Clone()
	if len(alt.AllowedTools) > simplifiedTools {
		alt.AllowedTools = alt.AllowedTools[:simplifiedTools]
	}
	alt.PromptConfig.Mode = employee.PromptModeSimple
	alt.PromptConfig.Compression = nil
	alt.PromptConfig.Context = nil

	return employee.Alternative{
		ID:          "alternative-simplified",
		Name:        "精简方案",
		Description: "保留核心工具并使用简单提示词模式，便于快速上线",
		Form:        alt,
		Pros:        []string{"配置简单，响应更快", "成本可控"},
		Cons:        []string{"能力覆盖有限", "复杂问题可能需要人工介入"},
		Score:       simplifiedScore,
	}
}
