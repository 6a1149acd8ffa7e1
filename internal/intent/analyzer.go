// Package intent 实现基于规则的意图识别与实体抽取。
package intent

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"OpenEmployee/internal/employee"
	"OpenEmployee/internal/lexicon"
)

const (
	baseConfidence     = 0.5
	overlapWeight      = 0.3
	structureWeight    = 0.2
	lengthBonus        = 0.1
	specificInfoBonus  = 0.1
	overlapSaturation  = 3
	minSaneRunes       = 10
	maxSaneRunes       = 500
	simpleMaxRunes     = 30
	simpleMaxEntities  = 2
	complexMinRunes    = 200
	complexMinEntities = 8
	defaultDomain      = "general"
)

// Analyzer 负责将自由文本解析为 IntentAnalysis。Analyzer 无状态，可并发使用。
type Analyzer struct {
	lex *lexicon.Lexicon
}

// NewAnalyzer 创建分析器，lex 为 nil 时使用内置词表。
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Analyzer{lex: lex}
}

// Analyze 对文本进行意图分类、实体抽取与上下文推断。结果只依赖输入文本与词表。
func (a *Analyzer) Analyze(text string) employee.IntentAnalysis {
	normalized := Normalize(text)
	lower := strings.ToLower(normalized)

	entities := a.extractEntities(normalized, lower)
	intent, signals := a.classify(lower, entities)
	ctx := a.inferContext(normalized, lower, entities)
	missing := missingInfo(intent, entities)

	return employee.IntentAnalysis{
		Intent:      intent,
		Confidence:  a.confidence(normalized, lower, signals, entities),
		Entities:    entities,
		Context:     ctx,
		MissingInfo: missing,
		Suggestions: suggestions(intent, entities, ctx, missing),
	}
}

func (a *Analyzer) classify(lower string, entities employee.Entities) (employee.Intent, []string) {
	vocab := a.lex.Intent
	creation := lexicon.MatchAll(lower, vocab.CreationVerbs)
	modification := lexicon.MatchAll(lower, vocab.ModificationVerbs)
	question := lexicon.MatchAll(lower, vocab.QuestionMarkers)

	signals := make([]string, 0, len(creation)+len(modification)+len(question)+2)
	signals = append(signals, creation...)
	signals = append(signals, modification...)
	signals = append(signals, question...)
	if entities.Department != nil {
		signals = append(signals, *entities.Department)
	}
	if entities.Role != nil {
		signals = append(signals, *entities.Role)
	}

	switch {
	case len(creation) > 0:
		return employee.IntentCreate, signals
	case len(modification) > 0:
		return employee.IntentModify, signals
	case len(question) > 0:
		return employee.IntentHelp, signals
	case entities.Department != nil || entities.Role != nil:
		return employee.IntentCreate, signals
	default:
		return employee.IntentUnclear, signals
	}
}

func (a *Analyzer) confidence(normalized, lower string, signals []string, entities employee.Entities) float64 {
	vocab := a.lex.Intent
	overlap := math.Min(1, float64(len(dedupe(signals)))/overlapSaturation)

	present := 0
	if lexicon.MatchAny(lower, vocab.CreationVerbs) || lexicon.MatchAny(lower, vocab.ModificationVerbs) {
		present++
	}
	if entities.Role != nil || lexicon.MatchAny(lower, vocab.ObjectWords) {
		present++
	}
	if len(entities.Personality) > 0 || lexicon.MatchAny(lower, vocab.AttributeMarkers) {
		present++
	}
	if len(entities.Responsibilities) > 0 || len(entities.Constraints) > 0 || lexicon.MatchAny(lower, vocab.RequirementMarkers) {
		present++
	}

	score := baseConfidence + overlapWeight*overlap + structureWeight*float64(present)/4
	if n := utf8.RuneCountInString(normalized); n >= minSaneRunes && n <= maxSaneRunes {
		score += lengthBonus
	}
	if entities.Name != nil || entities.Department != nil || entities.Role != nil {
		score += specificInfoBonus
	}
	return employee.Clamp01(score)
}

func (a *Analyzer) inferContext(normalized, lower string, entities employee.Entities) employee.AnalysisContext {
	ctx := employee.AnalysisContext{
		Urgency:    employee.UrgencyMedium,
		Complexity: employee.ComplexityModerate,
		Domain:     defaultDomain,
	}

	switch {
	case lexicon.MatchAnyAffirmed(lower, a.lex.Urgency.High):
		ctx.Urgency = employee.UrgencyHigh
	case lexicon.MatchAny(lower, a.lex.Urgency.Low):
		ctx.Urgency = employee.UrgencyLow
	}

	runes := utf8.RuneCountInString(normalized)
	items := entities.Count()
	switch {
	case runes < simpleMaxRunes && items <= simpleMaxEntities:
		ctx.Complexity = employee.ComplexitySimple
	case runes > complexMinRunes || items >= complexMinEntities:
		ctx.Complexity = employee.ComplexityComplex
	}

	if entities.Department != nil {
		if dept, ok := a.lex.Department(*entities.Department); ok && dept.Domain != "" {
			ctx.Domain = dept.Domain
			return ctx
		}
	}
	for _, rule := range a.lex.Domains {
		if lexicon.MatchAny(lower, rule.Keywords) {
			ctx.Domain = rule.Domain
			break
		}
	}
	return ctx
}

func missingInfo(intent employee.Intent, entities employee.Entities) []string {
	if intent != employee.IntentCreate {
		return nil
	}
	var missing []string
	if entities.Name == nil {
		missing = append(missing, employee.MissingName)
	}
	if entities.Department == nil {
		missing = append(missing, employee.MissingDepartment)
	}
	if entities.Role == nil && len(entities.Responsibilities) == 0 {
		missing = append(missing, employee.MissingRoleOrResponsibilities)
	}
	if len(entities.Personality) == 0 {
		missing = append(missing, employee.MissingPersonality)
	}
	return missing
}

// positioned 记录抽取片段在文本中的位置，用于按出现顺序输出。
type positioned struct {
	pos   int
	value string
}

func sortedValues(items []positioned) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].pos < items[j].pos })
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.value)
	}
	return out
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
