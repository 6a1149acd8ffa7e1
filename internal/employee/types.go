// Package employee 定义数字员工生成流水线中各阶段共享的数据结构。
package employee

import "time"

// Mode 表示会话的生成模式。
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeStandard Mode = "standard"
	ModeAdvanced Mode = "advanced"
)

// Valid 判断模式是否受支持。
func (m Mode) Valid() bool {
	switch m {
	case ModeQuick, ModeStandard, ModeAdvanced:
		return true
	}
	return false
}

// Intent 表示输入文本被识别出的主要意图。
type Intent string

const (
	IntentCreate  Intent = "create_employee"
	IntentModify  Intent = "modify_employee"
	IntentHelp    Intent = "get_help"
	IntentUnclear Intent = "unclear"
)

// Urgency 表示需求的紧急程度。
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Complexity 表示需求的复杂程度。
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// 缺失信息的标识。
const (
	MissingName                   = "name"
	MissingDepartment             = "department"
	MissingRoleOrResponsibilities = "role_or_responsibilities"
	MissingPersonality            = "personality"
)

// Entities 是从文本中抽取出的实体。指针字段为 nil 表示未识别到。
type Entities struct {
	Name             *string  `json:"name,omitempty"`
	Department       *string  `json:"department,omitempty"`
	Role             *string  `json:"role,omitempty"`
	Personality      []string `json:"personality,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Tools            []string `json:"tools,omitempty"`
	Constraints      []string `json:"constraints,omitempty"`
}

// Count 返回识别到的实体条目总数。
func (e Entities) Count() int {
	count := len(e.Personality) + len(e.Responsibilities) + len(e.Tools) + len(e.Constraints)
	for _, v := range []*string{e.Name, e.Department, e.Role} {
		if v != nil {
			count++
		}
	}
	return count
}

// AnalysisContext 描述需求的上下文特征。
type AnalysisContext struct {
	Urgency    Urgency    `json:"urgency"`
	Complexity Complexity `json:"complexity"`
	Domain     string     `json:"domain"`
}

// IntentAnalysis 是意图分析阶段的输出，生成后只读。
type IntentAnalysis struct {
	Intent      Intent          `json:"intent"`
	Confidence  float64         `json:"confidence"`
	Entities    Entities        `json:"entities"`
	Context     AnalysisContext `json:"context"`
	MissingInfo []string        `json:"missing_info"`
	Suggestions []string        `json:"suggestions"`
}

// Priority 表示数字员工的优先级。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// MemoryStrategy 表示记忆策略。
type MemoryStrategy string

const (
	MemoryShort    MemoryStrategy = "short"
	MemoryLong     MemoryStrategy = "long"
	MemoryAdaptive MemoryStrategy = "adaptive"
)

// BasicRequirements 是身份类需求。
type BasicRequirements struct {
	Name        string   `json:"name"`
	Department  string   `json:"department"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// PersonaRequirements 是人设类需求。
type PersonaRequirements struct {
	SystemPrompt     string   `json:"system_prompt"`
	Personality      string   `json:"personality"`
	Responsibilities []string `json:"responsibilities"`
	Tone             string   `json:"tone"`
	Expertise        []string `json:"expertise"`
}

// CapabilityRequirements 是能力类需求。
type CapabilityRequirements struct {
	AllowedTools     []string `json:"allowed_tools"`
	Permissions      []string `json:"permissions"`
	KnowledgeDomains []string `json:"knowledge_domains"`
	Skills           []string `json:"skills"`
}

// AdvancedRequirements 是高级选项。
type AdvancedRequirements struct {
	CompressionNeeded bool           `json:"compression_needed"`
	SlotNeeds         []string       `json:"slot_needs"`
	MemoryStrategy    MemoryStrategy `json:"memory_strategy"`
	LearningEnabled   bool           `json:"learning_enabled"`
}

// ConfigRequirements 是从意图分析推导出的结构化需求树。
type ConfigRequirements struct {
	Basic        BasicRequirements      `json:"basic"`
	Persona      PersonaRequirements    `json:"persona"`
	Capabilities CapabilityRequirements `json:"capabilities"`
	Advanced     AdvancedRequirements   `json:"advanced"`
}

// PromptMode 表示提示词工程模式。
type PromptMode string

const (
	PromptModeSimple   PromptMode = "simple"
	PromptModeAdvanced PromptMode = "advanced"
)

// CompressionConfig 描述提示词压缩参数。
type CompressionConfig struct {
	Enabled         bool    `json:"enabled"`
	Strategy        string  `json:"strategy"`
	TriggerTokens   int     `json:"trigger_tokens"`
	PreserveQuality bool    `json:"preserve_quality"`
	MaxRatio        float64 `json:"max_ratio"`
}

// ContextConfig 描述上下文窗口管理参数。
type ContextConfig struct {
	MaxTokens      int    `json:"max_tokens"`
	WindowStrategy string `json:"window_strategy"`
	ReserveTokens  int    `json:"reserve_tokens"`
}

// DefaultCompression 返回高级模式下使用的默认压缩参数。
func DefaultCompression() *CompressionConfig {
	return &CompressionConfig{
		Enabled:         true,
		Strategy:        "adaptive",
		TriggerTokens:   4000,
		PreserveQuality: true,
		MaxRatio:        0.5,
	}
}

// DefaultContext 返回高级模式下使用的默认上下文窗口参数。
func DefaultContext() *ContextConfig {
	return &ContextConfig{
		MaxTokens:      8000,
		WindowStrategy: "sliding_window",
		ReserveTokens:  1000,
	}
}

// PromptConfig 是提示词工程子配置。
type PromptConfig struct {
	Mode        PromptMode         `json:"mode"`
	Compression *CompressionConfig `json:"compression,omitempty"`
	Context     *ContextConfig     `json:"context,omitempty"`
	Slots       []string           `json:"slots,omitempty"`
}

// FAQ 是一条预置问答。
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ConfigForm 是数字员工的具体配置记录。
type ConfigForm struct {
	EmployeeID       string         `json:"employee_id"`
	Name             string         `json:"name"`
	Department       string         `json:"department"`
	Description      string         `json:"description"`
	Priority         Priority       `json:"priority"`
	SystemPrompt     string         `json:"system_prompt"`
	Personality      string         `json:"personality"`
	Responsibilities []string       `json:"responsibilities"`
	Tone             string         `json:"tone"`
	Expertise        []string       `json:"expertise"`
	AllowedTools     []string       `json:"allowed_tools"`
	Permissions      []string       `json:"permissions"`
	KnowledgeDomains []string       `json:"knowledge_domains"`
	Skills           []string       `json:"skills"`
	PromptConfig     PromptConfig   `json:"prompt_config"`
	MemoryStrategy   MemoryStrategy `json:"memory_strategy"`
	LearningEnabled  bool           `json:"learning_enabled"`
	SelfLearning     bool           `json:"self_learning"`
	Examples         []string       `json:"examples,omitempty"`
	FAQs             []FAQ          `json:"faqs,omitempty"`
}

// Clone 返回配置的深拷贝。
func (f ConfigForm) Clone() ConfigForm {
	clone := f
	clone.Responsibilities = CloneStrings(f.Responsibilities)
	clone.Expertise = CloneStrings(f.Expertise)
	clone.AllowedTools = CloneStrings(f.AllowedTools)
	clone.Permissions = CloneStrings(f.Permissions)
	clone.KnowledgeDomains = CloneStrings(f.KnowledgeDomains)
	clone.Skills = CloneStrings(f.Skills)
	clone.Examples = CloneStrings(f.Examples)
	clone.PromptConfig.Slots = CloneStrings(f.PromptConfig.Slots)
	if f.PromptConfig.Compression != nil {
		c := *f.PromptConfig.Compression
		clone.PromptConfig.Compression = &c
	}
	if f.PromptConfig.Context != nil {
		c := *f.PromptConfig.Context
		clone.PromptConfig.Context = &c
	}
	if f.FAQs != nil {
		clone.FAQs = append([]FAQ(nil), f.FAQs...)
	}
	return clone
}

// Metrics 是配置的质量指标，均位于 [0,1]。
type Metrics struct {
	Confidence   float64 `json:"confidence"`
	Completeness float64 `json:"completeness"`
	Quality      float64 `json:"quality"`
}

// SuggestionType 区分建议的类别。
type SuggestionType string

const (
	SuggestionImprovement  SuggestionType = "improvement"
	SuggestionEnhancement  SuggestionType = "enhancement"
	SuggestionOptimization SuggestionType = "optimization"
)

// Suggestion 是一条改进建议。
type Suggestion struct {
	ID             string         `json:"id"`
	Type           SuggestionType `json:"type"`
	Priority       Priority       `json:"priority"`
	Field          string         `json:"field"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	AutoApplicable bool           `json:"auto_applicable"`
}

// Alternative 是一份备选配置方案。
type Alternative struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Form        ConfigForm `json:"form"`
	Pros        []string   `json:"pros"`
	Cons        []string   `json:"cons"`
	Score       float64    `json:"score"`
}

// GeneratedConfig 是配置合成阶段的输出。
type GeneratedConfig struct {
	Form         ConfigForm       `json:"form"`
	Metrics      Metrics          `json:"metrics"`
	Suggestions  []Suggestion     `json:"suggestions"`
	Alternatives []Alternative    `json:"alternatives"`
	Validation   ValidationResult `json:"validation"`
}

// ValidationError 是阻断性的校验错误。
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Fix      string `json:"fix,omitempty"`
}

// ValidationWarning 是非阻断性的校验提示。
type ValidationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Impact     string `json:"impact"`
	Suggestion string `json:"suggestion"`
}

// ValidationResult 是一次配置校验的结果。
type ValidationResult struct {
	IsValid         bool                `json:"is_valid"`
	Errors          []ValidationError   `json:"errors"`
	Warnings        []ValidationWarning `json:"warnings"`
	Score           int                 `json:"score"`
	Completeness    float64             `json:"completeness"`
	Recommendations []string            `json:"recommendations"`
}

// StepKind 区分推理步骤与执行步骤。
type StepKind string

const (
	StepReasoning StepKind = "reasoning"
	StepActing    StepKind = "acting"
)

// StepStatus 是步骤的执行状态。
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// Phase 标识步骤所属的流水线阶段。
type Phase string

const (
	PhaseAnalysis      Phase = "intent_analysis"
	PhaseClarification Phase = "clarification"
	PhaseDerivation    Phase = "requirement_derivation"
	PhaseSynthesis     Phase = "config_synthesis"
	PhaseOptimization  Phase = "optimization"
	PhaseValidation    Phase = "validation"
	PhaseRepair        Phase = "repair"
	PhaseManualPatch   Phase = "manual_patch"
)

// Step 是审计轨迹中的一条记录。完成或失败后不再修改。
type Step struct {
	ID         string        `json:"id"`
	Kind       StepKind      `json:"kind"`
	Phase      Phase         `json:"phase"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Input      any           `json:"input,omitempty"`
	Output     any           `json:"output,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration,omitempty"`
	Confidence float64       `json:"confidence"`
	Status     StepStatus    `json:"status"`
	Error      string        `json:"error,omitempty"`
}

// Clamp01 将数值限制在 [0,1]。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// StringValue 返回可选字符串的值，nil 时返回空串。
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// CloneStrings 返回切片副本，nil 保持为 nil。
func CloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
