package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

func validForm() employee.ConfigForm {
	return employee.ConfigForm{
		EmployeeID:   "CS1700000000000",
		Name:         "小美",
		Department:   "客服",
		SystemPrompt: "你是一名客服助手。",
		Personality:  "友好、耐心",
		AllowedTools: []string{"faq_search"},
		Examples:     []string{"用户：在吗？\n助手：您好，请问有什么可以帮您？"},
		FAQs:         []employee.FAQ{{Question: "几点上班", Answer: "9 点"}},
	}
}

func TestValidateValidFormIsIdempotent(t *testing.T) {
	form := validForm()

	first := Validate(form)
	second := Validate(form)

	assert.True(t, first.IsValid)
	assert.Empty(t, first.Errors)
	assert.Empty(t, first.Warnings)
	assert.Equal(t, 100, first.Score)
	assert.Equal(t, 100.0, first.Completeness)
	assert.Empty(t, first.Recommendations)
	assert.Equal(t, first, second)
}

func TestValidateReportsErrorsAndWarnings(t *testing.T) {
	form := employee.ConfigForm{
		SystemPrompt: strings.Repeat("长", MaxPromptRunes+1),
	}
	got := Validate(form)

	require.False(t, got.IsValid)
	fields := make([]string, 0, len(got.Errors))
	for _, e := range got.Errors {
		fields = append(fields, e.Field)
		assert.NotEmpty(t, e.Fix)
	}
	assert.Equal(t, []string{"name", "department"}, fields)
	require.Len(t, got.Warnings, 2)
	assert.Equal(t, 100-2*30-2*10, got.Score)
	assert.Equal(t, 25.0, got.Completeness)
	// 两条错误、两条警告、缺少示例与常见问题。
	assert.Len(t, got.Recommendations, 6)
}

func TestValidateScoreNeverNegative(t *testing.T) {
	got := Validate(employee.ConfigForm{})
	assert.Len(t, got.Errors, 3)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, 0.0, got.Completeness)
}

func TestRepairFillsRecoverableFields(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	r := NewRepairer(lexicon.Default(), WithClock(func() time.Time { return now }))

	form := employee.ConfigForm{Department: "客服"}
	fixed, fields := r.Repair(form)

	assert.Equal(t, []string{"name", "employee_id", "system_prompt"}, fields)
	assert.Equal(t, "AI-客服", fixed.Name)
	assert.Equal(t, "CS1700000000123", fixed.EmployeeID)
	assert.Equal(t, lexicon.Default().GenericPrompt, fixed.SystemPrompt)
	assert.True(t, Validate(fixed).IsValid)
	assert.Empty(t, form.Name, "input form must not be modified")
}

func TestRepairCannotInventDepartment(t *testing.T) {
	r := NewRepairer(nil, WithClock(func() time.Time { return time.UnixMilli(42) }))
	fixed, fields := r.Repair(employee.ConfigForm{})

	assert.Equal(t, "AI-助手", fixed.Name)
	assert.Equal(t, "GEN42", fixed.EmployeeID)
	assert.Contains(t, fields, "system_prompt")

	after := Validate(fixed)
	require.False(t, after.IsValid)
	require.Len(t, after.Errors, 1)
	assert.Equal(t, "department", after.Errors[0].Field)
}

func TestRepairDepartmentFallback(t *testing.T) {
	r := NewRepairer(nil, WithDepartmentFallback(), WithClock(func() time.Time { return time.UnixMilli(7) }))
	fixed, fields := r.Repair(employee.ConfigForm{SystemPrompt: "你是助手"})

	assert.Equal(t, []string{"department", "name", "employee_id"}, fields)
	assert.Equal(t, "AI-通用", fixed.Name)
	assert.Equal(t, "通用", fixed.Department)
	assert.Equal(t, "GEN7", fixed.EmployeeID)
	assert.True(t, Validate(fixed).IsValid)
}

func TestRepairNoopOnCompleteForm(t *testing.T) {
	fixed, fields := NewRepairer(nil).Repair(validForm())
	assert.Empty(t, fields)
	assert.Equal(t, validForm(), fixed)
}
