package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

func TestOptimizeQuickModeIsNoop(t *testing.T) {
	form := employee.ConfigForm{Name: "小美", Department: "客服", SystemPrompt: "短"}
	got, applied := New(nil).Optimize(employee.ModeQuick, form, employee.ConfigRequirements{
		Advanced: employee.AdvancedRequirements{CompressionNeeded: true},
	})

	assert.Nil(t, applied)
	assert.Equal(t, form, got)
}

func TestOptimizeEnrichesShortPrompt(t *testing.T) {
	form := employee.ConfigForm{
		Name:             "小美",
		Department:       "客服",
		SystemPrompt:     "负责解答客户咨询。",
		Personality:      "友好、耐心",
		Responsibilities: []string{"回答订单问题", "处理退款"},
		AllowedTools:     []string{"faq_search", "order_query", "ticket_system"},
	}
	got, applied := New(nil).Optimize(employee.ModeStandard, form, employee.ConfigRequirements{})

	assert.Equal(t, []string{PatchPrompt}, applied)
	assert.True(t, strings.HasPrefix(got.SystemPrompt, "你是小美，客服部门的AI数字员工。负责解答客户咨询。"))
	assert.Contains(t, got.SystemPrompt, "你的主要职责包括：回答订单问题、处理退款。")
	assert.Contains(t, got.SystemPrompt, "保持友好、耐心的风格")
	assert.Equal(t, "负责解答客户咨询。", form.SystemPrompt, "input form must not be modified")
}

func TestOptimizeKeepsSelfReferentialPrompt(t *testing.T) {
	form := employee.ConfigForm{Name: "Max", Department: "客服", SystemPrompt: "You are a helpful agent."}
	got, _ := New(nil).Optimize(employee.ModeAdvanced, form, employee.ConfigRequirements{})

	assert.True(t, strings.HasPrefix(got.SystemPrompt, "You are a helpful agent."))
}

func TestOptimizeLongPromptUntouched(t *testing.T) {
	prompt := strings.Repeat("很", 120)
	form := employee.ConfigForm{Department: "客服", SystemPrompt: prompt, AllowedTools: []string{"a", "b", "c"}}
	got, applied := New(nil).Optimize(employee.ModeStandard, form, employee.ConfigRequirements{})

	assert.Empty(t, applied)
	assert.Equal(t, prompt, got.SystemPrompt)
}

func TestOptimizeSupplementsTools(t *testing.T) {
	lex := lexicon.Default()
	form := employee.ConfigForm{Department: "销售", SystemPrompt: strings.Repeat("长", 120), AllowedTools: []string{"crm_lookup"}}
	got, applied := New(lex).Optimize(employee.ModeStandard, form, employee.ConfigRequirements{})

	dept, ok := lex.Department("销售")
	require.True(t, ok)
	assert.Equal(t, []string{PatchTools}, applied)
	assert.Subset(t, got.AllowedTools, dept.RecommendedTools)
	assert.Equal(t, "crm_lookup", got.AllowedTools[0])
	assert.Len(t, form.AllowedTools, 1)

	generic := employee.ConfigForm{Department: "通用", SystemPrompt: strings.Repeat("长", 120)}
	got, _ = New(lex).Optimize(employee.ModeStandard, generic, employee.ConfigRequirements{})
	assert.Equal(t, lex.EnhancementTools, got.AllowedTools)
}

func TestOptimizeAttachesCompression(t *testing.T) {
	form := employee.ConfigForm{
		Department:   "客服",
		SystemPrompt: strings.Repeat("长", 120),
		AllowedTools: []string{"a", "b", "c"},
		PromptConfig: employee.PromptConfig{Mode: employee.PromptModeSimple},
	}
	reqs := employee.ConfigRequirements{Advanced: employee.AdvancedRequirements{CompressionNeeded: true}}
	got, applied := New(nil).Optimize(employee.ModeStandard, form, reqs)

	assert.Equal(t, []string{PatchCompression}, applied)
	assert.Equal(t, employee.PromptModeAdvanced, got.PromptConfig.Mode)
	require.NotNil(t, got.PromptConfig.Compression)
	assert.Equal(t, "adaptive", got.PromptConfig.Compression.Strategy)
	assert.Equal(t, 4000, got.PromptConfig.Compression.TriggerTokens)
	assert.True(t, got.PromptConfig.Compression.PreserveQuality)
	assert.Equal(t, 0.5, got.PromptConfig.Compression.MaxRatio)
	assert.Nil(t, form.PromptConfig.Compression)
}

func TestOptimizePatchesCommute(t *testing.T) {
	form := employee.ConfigForm{
		Name:         "小美",
		Department:   "客服",
		SystemPrompt: "解答问题",
		AllowedTools: []string{"faq_search"},
	}
	reqs := employee.ConfigRequirements{Advanced: employee.AdvancedRequirements{CompressionNeeded: true}}
	o := New(nil)

	all, applied := o.Optimize(employee.ModeStandard, form, reqs)
	assert.Equal(t, []string{PatchPrompt, PatchTools, PatchCompression}, applied)

	// 单独应用每个补丁后逐字段合并，结果应与一次性应用相同。
	promptOnly := form.Clone()
	o.enrichPrompt(&promptOnly)
	toolsOnly := form.Clone()
	o.supplementTools(&toolsOnly)

	assert.Equal(t, promptOnly.SystemPrompt, all.SystemPrompt)
	assert.Equal(t, toolsOnly.AllowedTools, all.AllowedTools)
}
