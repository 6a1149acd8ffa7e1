package requirement

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/intent"
	"OpenEmployee/internal/lexicon"
)

func ptr(s string) *string { return &s }

func TestDeriveCustomerServiceExample(t *testing.T) {
	analysis := intent.NewAnalyzer(nil).Analyze("我需要一个客服助手，能够回答订单问题，要求友好耐心")
	reqs := NewDeriver(nil).Derive(analysis)

	assert.Equal(t, "AI-助手", reqs.Basic.Name)
	assert.Equal(t, "客服", reqs.Basic.Department)
	assert.Equal(t, employee.PriorityMedium, reqs.Basic.Priority)
	assert.Contains(t, reqs.Basic.Description, "负责回答订单问题")

	dept, ok := lexicon.Default().Department("客服")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(reqs.Persona.SystemPrompt, dept.BasePrompt))
	assert.Contains(t, reqs.Persona.SystemPrompt, "## 主要职责\n- 回答订单问题")
	assert.NotContains(t, reqs.Persona.SystemPrompt, "## 约束条件")
	assert.Equal(t, "友好、耐心", reqs.Persona.Personality)
	assert.Equal(t, "亲切友好", reqs.Persona.Tone)

	assert.Equal(t, []string{"faq_search", "ticket_system", "order_query"}, reqs.Capabilities.AllowedTools)
	assert.Equal(t, []string{"user_name", "current_time", "ticket_id", "order_id"}, reqs.Advanced.SlotNeeds)
	assert.Equal(t, employee.MemoryAdaptive, reqs.Advanced.MemoryStrategy)
	assert.False(t, reqs.Advanced.CompressionNeeded)
	assert.True(t, reqs.Advanced.LearningEnabled)
}

func TestDeriveIsPure(t *testing.T) {
	analysis := employee.IntentAnalysis{
		Intent:     employee.IntentCreate,
		Confidence: 0.9,
		Entities: employee.Entities{
			Department:       ptr("销售"),
			Role:             ptr("顾问"),
			Personality:      []string{"热情"},
			Responsibilities: []string{"跟进客户订单"},
			Constraints:      []string{"不得承诺折扣"},
		},
		Context: employee.AnalysisContext{
			Urgency:    employee.UrgencyHigh,
			Complexity: employee.ComplexityComplex,
			Domain:     "sales",
		},
	}
	d := NewDeriver(nil)

	first := d.Derive(analysis)
	second := d.Derive(analysis)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("derivation is not deterministic (-first +second):\n%s", diff)
	}

	// 修改输出不能影响后续推导或共享词表。
	second.Capabilities.AllowedTools[0] = "mutated"
	second.Capabilities.Permissions[0] = "mutated"
	third := d.Derive(analysis)
	if diff := cmp.Diff(first, third); diff != "" {
		t.Fatalf("derivation shares state with previous output:\n%s", diff)
	}
	dept, _ := lexicon.Default().Department("销售")
	assert.NotContains(t, dept.DefaultTools, "mutated")
}

func TestDeriveComplexAddsElevatedCapabilities(t *testing.T) {
	analysis := employee.IntentAnalysis{
		Intent:   employee.IntentCreate,
		Entities: employee.Entities{Department: ptr("销售"), Constraints: []string{"不得承诺折扣"}},
		Context:  employee.AnalysisContext{Urgency: employee.UrgencyHigh, Complexity: employee.ComplexityComplex},
	}
	reqs := NewDeriver(nil).Derive(analysis)

	assert.Equal(t, employee.PriorityHigh, reqs.Basic.Priority)
	assert.Equal(t, "销售助手", reqs.Basic.Name)
	assert.Subset(t, reqs.Capabilities.Permissions, lexicon.Default().ElevatedPermissions)
	assert.True(t, reqs.Advanced.CompressionNeeded)
	assert.Equal(t, employee.MemoryLong, reqs.Advanced.MemoryStrategy)
	assert.Contains(t, reqs.Persona.SystemPrompt, "## 约束条件\n- 不得承诺折扣")
}

func TestDeriveDefaults(t *testing.T) {
	lex := lexicon.Default()
	reqs := NewDeriver(lex).Derive(employee.IntentAnalysis{
		Intent:  employee.IntentCreate,
		Context: employee.AnalysisContext{Urgency: employee.UrgencyLow, Complexity: employee.ComplexitySimple, Domain: "general"},
	})

	assert.Equal(t, lex.GenericName, reqs.Basic.Name)
	assert.Equal(t, lex.GenericDepartment, reqs.Basic.Department)
	assert.Equal(t, lex.GenericPrompt, reqs.Persona.SystemPrompt)
	assert.Equal(t, employee.PriorityLow, reqs.Basic.Priority)
	assert.Equal(t, employee.MemoryShort, reqs.Advanced.MemoryStrategy)
	assert.Equal(t, lex.GenericPermissions, reqs.Capabilities.Permissions)
	assert.Empty(t, reqs.Capabilities.AllowedTools)
	assert.Empty(t, reqs.Capabilities.KnowledgeDomains)
	assert.Equal(t, "专业", reqs.Persona.Tone)
	assert.NotEmpty(t, reqs.Basic.Description)
}

func TestDeriveNamePrecedence(t *testing.T) {
	d := NewDeriver(nil)

	named := d.Derive(employee.IntentAnalysis{Entities: employee.Entities{Name: ptr("小美"), Role: ptr("顾问")}})
	assert.Equal(t, "小美", named.Basic.Name)

	byRole := d.Derive(employee.IntentAnalysis{Entities: employee.Entities{Role: ptr("顾问"), Department: ptr("客服")}})
	assert.Equal(t, "AI-顾问", byRole.Basic.Name)

	byDept := d.Derive(employee.IntentAnalysis{Entities: employee.Entities{Department: ptr("客服")}})
	assert.Equal(t, "智能客服", byDept.Basic.Name)
}
