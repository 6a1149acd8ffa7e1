// Package requirement 将意图分析结果推导为结构化的配置需求树。
package requirement

import (
	"fmt"
	"strings"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

const defaultTone = "专业"

// Deriver 根据意图分析与部门模板推导配置需求。
//
// Derive 是纯函数：相同的 IntentAnalysis 总是得到相同的 ConfigRequirements，
// 输出中的切片均为新分配的副本，不会与词表共享底层数组。
type Deriver struct {
	lex *lexicon.Lexicon
}

// NewDeriver 创建推导器，lex 为 nil 时使用内置词表。
func NewDeriver(lex *lexicon.Lexicon) *Deriver {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Deriver{lex: lex}
}

// Derive 推导配置需求。
func (d *Deriver) Derive(analysis employee.IntentAnalysis) employee.ConfigRequirements {
	ent := analysis.Entities
	dept, hasDept := d.department(ent)

	tools := d.tools(dept, ent)
	return employee.ConfigRequirements{
		Basic: employee.BasicRequirements{
			Name:        d.name(dept, hasDept, ent),
			Department:  d.departmentName(dept, hasDept),
			Description: d.description(ent),
			Priority:    priorityOf(analysis.Context.Urgency),
		},
		Persona: employee.PersonaRequirements{
			SystemPrompt:     d.systemPrompt(dept, hasDept, ent),
			Personality:      d.personality(dept, ent),
			Responsibilities: employee.CloneStrings(ent.Responsibilities),
			Tone:             d.tone(dept, ent),
			Expertise:        employee.CloneStrings(dept.Expertise),
		},
		Capabilities: employee.CapabilityRequirements{
			AllowedTools:     tools,
			Permissions:      d.permissions(dept, hasDept, analysis.Context.Complexity),
			KnowledgeDomains: d.knowledgeDomains(dept, hasDept, analysis.Context.Domain),
			Skills:           employee.CloneStrings(dept.Skills),
		},
		Advanced: employee.AdvancedRequirements{
			CompressionNeeded: analysis.Context.Complexity == employee.ComplexityComplex,
			SlotNeeds:         d.slots(tools),
			MemoryStrategy:    memoryStrategyOf(analysis.Context.Complexity),
			// 自学习能力目前对所有员工开启。
			LearningEnabled: true,
		},
	}
}

func (d *Deriver) department(ent employee.Entities) (lexicon.Department, bool) {
	if ent.Department == nil {
		return lexicon.Department{}, false
	}
	return d.lex.Department(*ent.Department)
}

func (d *Deriver) departmentName(dept lexicon.Department, ok bool) string {
	if ok {
		return dept.Name
	}
	return d.lex.GenericDepartment
}

func (d *Deriver) name(dept lexicon.Department, hasDept bool, ent employee.Entities) string {
	switch {
	case ent.Name != nil && *ent.Name != "":
		return *ent.Name
	case ent.Role != nil && *ent.Role != "":
		return "AI-" + *ent.Role
	case hasDept && dept.DefaultName != "":
		return dept.DefaultName
	default:
		return d.lex.GenericName
	}
}

func (d *Deriver) description(ent employee.Entities) string {
	var parts []string
	if ent.Department != nil {
		parts = append(parts, *ent.Department+"部门")
	}
	if ent.Role != nil {
		parts = append(parts, "岗位为"+*ent.Role)
	}
	if len(ent.Responsibilities) > 0 {
		parts = append(parts, "负责"+strings.Join(ent.Responsibilities, "、"))
	}
	if len(ent.Personality) > 0 {
		parts = append(parts, "性格"+strings.Join(ent.Personality, "、"))
	}
	if len(parts) == 0 {
		return "根据用户需求生成的通用AI数字员工"
	}
	return strings.Join(parts, "；")
}

func (d *Deriver) systemPrompt(dept lexicon.Department, hasDept bool, ent employee.Entities) string {
	var b strings.Builder
	if hasDept {
		b.WriteString(dept.BasePrompt)
	} else {
		b.WriteString(d.lex.GenericPrompt)
	}
	writeBullets(&b, "主要职责", ent.Responsibilities)
	writeBullets(&b, "约束条件", ent.Constraints)
	return b.String()
}

func writeBullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n## %s", title)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
}

func (d *Deriver) personality(dept lexicon.Department, ent employee.Entities) string {
	switch {
	case len(ent.Personality) > 0:
		return strings.Join(ent.Personality, "、")
	case len(dept.Personality) > 0:
		return strings.Join(dept.Personality, "、")
	default:
		return "专业、友好"
	}
}

func (d *Deriver) tone(dept lexicon.Department, ent employee.Entities) string {
	for _, rule := range d.lex.PersonalityTones {
		for _, trait := range ent.Personality {
			for _, candidate := range rule.Traits {
				if trait == candidate {
					return rule.Tone
				}
			}
		}
	}
	if dept.Tone != "" {
		return dept.Tone
	}
	return defaultTone
}

// tools 依次合并部门默认工具、显式提到的工具以及由职责推断出的工具。
func (d *Deriver) tools(dept lexicon.Department, ent employee.Entities) []string {
	set := newOrderedSet()
	set.add(dept.DefaultTools...)
	set.add(ent.Tools...)
	for _, resp := range ent.Responsibilities {
		lower := strings.ToLower(resp)
		for _, rule := range d.lex.ResponsibilityTools {
			if lexicon.MatchAny(lower, rule.Keywords) {
				set.add(rule.Tool)
			}
		}
	}
	return set.values()
}

func (d *Deriver) permissions(dept lexicon.Department, hasDept bool, complexity employee.Complexity) []string {
	set := newOrderedSet()
	if hasDept {
		set.add(dept.Permissions...)
	} else {
		set.add(d.lex.GenericPermissions...)
	}
	if complexity == employee.ComplexityComplex {
		set.add(d.lex.ElevatedPermissions...)
	}
	return set.values()
}

func (d *Deriver) knowledgeDomains(dept lexicon.Department, hasDept bool, domain string) []string {
	if hasDept {
		return employee.CloneStrings(dept.KnowledgeDomains)
	}
	if domain != "" && domain != "general" {
		return []string{domain}
	}
	return nil
}

func (d *Deriver) slots(tools []string) []string {
	set := newOrderedSet()
	set.add(d.lex.BaseSlots...)
	for _, name := range tools {
		if tool, ok := d.lex.Tool(name); ok && tool.Slot != "" {
			set.add(tool.Slot)
		}
	}
	return set.values()
}

func priorityOf(u employee.Urgency) employee.Priority {
	switch u {
	case employee.UrgencyHigh:
		return employee.PriorityHigh
	case employee.UrgencyLow:
		return employee.PriorityLow
	default:
		return employee.PriorityMedium
	}
}

func memoryStrategyOf(c employee.Complexity) employee.MemoryStrategy {
	switch c {
	case employee.ComplexitySimple:
		return employee.MemoryShort
	case employee.ComplexityComplex:
		return employee.MemoryLong
	default:
		return employee.MemoryAdaptive
	}
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

func (s *orderedSet) values() []string {
	if len(s.items) == 0 {
		return nil
	}
	return s.items
}
