package intent

import (
	"fmt"

	"OpenEmployee/internal/employee"
)

var missingHints = map[string]string{
	employee.MissingName:                   "建议为数字员工起一个便于识别的名称",
	employee.MissingDepartment:             "建议说明数字员工所属的部门，以便套用部门模板",
	employee.MissingRoleOrResponsibilities: "建议描述数字员工的岗位或主要职责",
	employee.MissingPersonality:            "建议补充期望的性格特点，例如友好、专业、耐心",
}

// suggestions 根据缺失信息与上下文生成提示，仅供参考。
func suggestions(intent employee.Intent, entities employee.Entities, ctx employee.AnalysisContext, missing []string) []string {
	var out []string
	if intent == employee.IntentUnclear {
		out = append(out, "请描述您希望创建的数字员工，例如所属部门和主要职责")
	}
	for _, item := range missing {
		if hint, ok := missingHints[item]; ok {
			out = append(out, hint)
		}
	}
	if entities.Department != nil {
		out = append(out, fmt.Sprintf("可参考%s部门模板快速生成配置", *entities.Department))
	}
	if ctx.Complexity == employee.ComplexityComplex {
		out = append(out, "需求较复杂，建议启用提示词压缩并使用高级模式")
	}
	if ctx.Urgency == employee.UrgencyHigh {
		out = append(out, "需求较紧急，建议先使用快速模式生成基础配置")
	}
	return dedupe(out)
}
