package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

var punctuation = strings.NewReplacer(
	"。", ".",
	"、", ",",
	"“", "\"",
	"”", "\"",
	"‘", "'",
	"’", "'",
	"《", "\"",
	"》", "\"",
	"…", ".",
)

// Normalize 将全角字符折叠为半角，统一中文标点并压缩空白。大小写保持不变。
func Normalize(text string) string {
	folded := punctuation.Replace(width.Fold.String(text))
	return strings.Join(strings.Fields(folded), " ")
}

func (a *Analyzer) extractEntities(normalized, lower string) employee.Entities {
	var entities employee.Entities

	if name := a.extractName(normalized); name != "" {
		entities.Name = &name
	}
	if dept, ok := a.lex.MatchDepartment(lower); ok {
		name := dept.Name
		entities.Department = &name
	}
	if roles := lexicon.MatchAll(lower, a.lex.Roles); len(roles) > 0 {
		role := roles[0]
		entities.Role = &role
	}

	entities.Personality = lexicon.MatchAllAffirmed(lower, a.lex.Personality)
	entities.Responsibilities = capture(normalized, a.lex.ResponsibilityPatterns(), true)
	entities.Constraints = capture(normalized, a.lex.ConstraintPatterns(), false)

	for _, tool := range a.lex.Tools {
		if lexicon.MatchAny(lower, tool.Keywords) {
			entities.Tools = append(entities.Tools, tool.Name)
		}
	}
	return entities
}

// extractName 依次尝试名称规则，第一条命中的规则生效。
func (a *Analyzer) extractName(normalized string) string {
	for _, re := range a.lex.NamePatterns() {
		m := re.FindStringSubmatch(normalized)
		if len(m) < 2 {
			continue
		}
		if name := strings.Trim(m[1], "\"' "); name != "" {
			return name
		}
	}
	return ""
}

// capture 收集所有规则的第一个捕获组，按出现位置排序并去重。
// skipNegated 为 true 时丢弃紧跟在"不"之后的命中，例如"不可以泄露"。
func capture(text string, patterns []*regexp.Regexp, skipNegated bool) []string {
	var found []positioned
	for _, re := range patterns {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(idx) < 4 || idx[2] < 0 {
				continue
			}
			if skipNegated && strings.HasSuffix(text[:idx[0]], "不") {
				continue
			}
			value := strings.TrimSpace(text[idx[2]:idx[3]])
			if utf8.RuneCountInString(value) < 2 {
				continue
			}
			found = append(found, positioned{pos: idx[2], value: value})
		}
	}
	return dedupeOverlapping(sortedValues(found))
}

// dedupeOverlapping 去掉完全相同或互相包含的片段，保留先出现的一条。
func dedupeOverlapping(values []string) []string {
	var out []string
	for _, v := range values {
		duplicate := false
		for _, existing := range out {
			if strings.Contains(existing, v) || strings.Contains(v, existing) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, v)
		}
	}
	return out
}
