package session

import (
	"strings"

	"OpenEmployee/internal/employee"
)

const (
	questionDepartment       = "这个数字员工属于哪个部门？例如客服、销售、人事、财务或技术。"
	questionName             = "您希望给这个数字员工起什么名字？"
	questionResponsibilities = "它的主要职责是什么？例如负责解答客户咨询、处理订单问题。"
	questionFallback         = "请更详细地描述您希望创建的数字员工，包括部门、名称和主要职责。"
)

var missingLabels = map[string]string{
	employee.MissingPersonality: "性格特点（例如友好、耐心、专业）",
}

// clarifyingQuestions 按部门、名称、职责、其他缺失项的顺序生成澄清问题，至少返回一条。
func clarifyingQuestions(analysis employee.IntentAnalysis) []string {
	entities := analysis.Entities
	var questions []string
	if entities.Department == nil {
		questions = append(questions, questionDepartment)
	}
	if entities.Name == nil {
		questions = append(questions, questionName)
	}
	if entities.Role == nil && len(entities.Responsibilities) == 0 {
		questions = append(questions, questionResponsibilities)
	}

	var rest []string
	for _, item := range analysis.MissingInfo {
		if label, ok := missingLabels[item]; ok {
			rest = append(rest, label)
		}
	}
	if len(rest) > 0 {
		questions = append(questions, "还需要补充以下信息："+strings.Join(rest, "、"))
	}

	if len(questions) == 0 {
		questions = append(questions, questionFallback)
	}
	return questions
}
