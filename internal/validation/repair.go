package validation

import (
	"strconv"
	"time"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

// Repairer 对校验失败的配置执行一次确定性修复。
type Repairer struct {
	lex                *lexicon.Lexicon
	now                func() time.Time
	departmentFallback bool
}

// RepairOption 配置 Repairer。
type RepairOption func(*Repairer)

// WithClock 注入时钟，用于生成员工编号。
func WithClock(now func() time.Time) RepairOption {
	return func(r *Repairer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDepartmentFallback 允许在部门缺失时回退到通用部门。
func WithDepartmentFallback() RepairOption {
	return func(r *Repairer) {
		r.departmentFallback = true
	}
}

// NewRepairer 创建修复器，lex 为 nil 时使用内置词表。
func NewRepairer(lex *lexicon.Lexicon, opts ...RepairOption) *Repairer {
	if lex == nil {
		lex = lexicon.Default()
	}
	r := &Repairer{lex: lex, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Repair 补齐缺失的名称、员工编号与系统提示词，返回修复后的副本以及被修复的字段。
// 未启用 WithDepartmentFallback 时部门保持原样，由调用方根据再次校验的结果决定如何处理。
func (r *Repairer) Repair(form employee.ConfigForm) (employee.ConfigForm, []string) {
	fixed := form.Clone()
	var fields []string

	if blank(fixed.Department) && r.departmentFallback {
		fixed.Department = r.lex.GenericDepartment
		fields = append(fields, "department")
	}
	if blank(fixed.Name) {
		if blank(fixed.Department) {
			fixed.Name = "AI-助手"
		} else {
			fixed.Name = "AI-" + fixed.Department
		}
		fields = append(fields, "name")
	}
	if blank(fixed.EmployeeID) {
		fixed.EmployeeID = r.lex.DepartmentCode(fixed.Department) + strconv.FormatInt(r.now().UnixMilli(), 10)
		fields = append(fields, "employee_id")
	}
	if blank(fixed.SystemPrompt) {
		fixed.SystemPrompt = r.lex.GenericPrompt
		fields = append(fields, "system_prompt")
	}
	return fixed, fields
}
