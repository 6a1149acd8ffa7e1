// Package lexicon 加载意图识别、实体抽取与部门模板所需的静态词表。
//
// 词表以带版本号的 YAML 文件维护在 data/ 目录中并随二进制一起嵌入，
// 也可以通过 LoadDir 从外部目录覆盖。加载完成的 Lexicon 只读，可在多个
// goroutine 之间共享。
package lexicon

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	xerrors "OpenEmployee/internal/errors"
)

//go:embed data/*.yaml
var embedded embed.FS

// IntentVocabulary 是意图分类使用的关键词集合。
type IntentVocabulary struct {
	CreationVerbs      []string `yaml:"creation_verbs"`
	ModificationVerbs  []string `yaml:"modification_verbs"`
	QuestionMarkers    []string `yaml:"question_markers"`
	ObjectWords        []string `yaml:"object_words"`
	AttributeMarkers   []string `yaml:"attribute_markers"`
	RequirementMarkers []string `yaml:"requirement_markers"`
}

// PatternSources 保存未编译的正则表达式。
type PatternSources struct {
	Name           []string `yaml:"name"`
	Responsibility []string `yaml:"responsibility"`
	Constraint     []string `yaml:"constraint"`
}

// ToneRule 将性格特征映射为语气。
type ToneRule struct {
	Traits []string `yaml:"traits"`
	Tone   string   `yaml:"tone"`
}

// UrgencyTiers 是三档紧急程度关键词。
type UrgencyTiers struct {
	High   []string `yaml:"high"`
	Low    []string `yaml:"low"`
	Medium []string `yaml:"medium"`
}

// DomainRule 将关键词映射到业务领域。
type DomainRule struct {
	Domain   string   `yaml:"domain"`
	Keywords []string `yaml:"keywords"`
}

// Department 是一个部门模板。
type Department struct {
	Name             string   `yaml:"name"`
	Code             string   `yaml:"code"`
	Aliases          []string `yaml:"aliases"`
	Domain           string   `yaml:"domain"`
	DefaultName      string   `yaml:"default_name"`
	Tone             string   `yaml:"tone"`
	Personality      []string `yaml:"personality"`
	BasePrompt       string   `yaml:"base_prompt"`
	DefaultTools     []string `yaml:"default_tools"`
	RecommendedTools []string `yaml:"recommended_tools"`
	Permissions      []string `yaml:"permissions"`
	KnowledgeDomains []string `yaml:"knowledge_domains"`
	Skills           []string `yaml:"skills"`
	Expertise        []string `yaml:"expertise"`
}

// Tool 是工具同义词表中的一项。
type Tool struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Slot     string   `yaml:"slot"`
}

// KeywordTool 描述职责关键词到工具的推断关系。
type KeywordTool struct {
	Keywords []string `yaml:"keywords"`
	Tool     string   `yaml:"tool"`
}

// Lexicon 是全部静态词表的集合。加载后只读，调用方不得修改其中的切片。
type Lexicon struct {
	Version             int              `yaml:"version"`
	Intent              IntentVocabulary `yaml:"intent"`
	Patterns            PatternSources   `yaml:"patterns"`
	Roles               []string         `yaml:"roles"`
	Personality         []string         `yaml:"personality"`
	PersonalityTones    []ToneRule       `yaml:"personality_tones"`
	Urgency             UrgencyTiers     `yaml:"urgency"`
	Domains             []DomainRule     `yaml:"domains"`
	GenericPrompt       string           `yaml:"generic_prompt"`
	GenericCode         string           `yaml:"generic_code"`
	GenericDepartment   string           `yaml:"generic_department"`
	GenericName         string           `yaml:"generic_name"`
	GenericPermissions  []string         `yaml:"generic_permissions"`
	ElevatedPermissions []string         `yaml:"elevated_permissions"`
	Departments         []Department     `yaml:"departments"`
	BaseSlots           []string         `yaml:"base_slots"`
	EnhancementTools    []string         `yaml:"enhancement_tools"`
	Tools               []Tool           `yaml:"tools"`
	ResponsibilityTools []KeywordTool    `yaml:"responsibility_tools"`

	namePatterns           []*regexp.Regexp
	responsibilityPatterns []*regexp.Regexp
	constraintPatterns     []*regexp.Regexp
	departments            map[string]int
	tools                  map[string]int
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default 返回嵌入词表。嵌入数据随代码一起发布，解析失败属于构建缺陷，直接 panic。
func Default() *Lexicon {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultLex, defaultErr = Load(sub)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("lexicon: 加载内置词表失败: %v", defaultErr))
	}
	return defaultLex
}

// LoadDir 从目录加载词表，目录中所有 *.yaml 文件会被合并。
func LoadDir(dir string) (*Lexicon, error) {
	return Load(os.DirFS(dir))
}

// Load 从文件系统根目录下的 *.yaml 文件加载词表。各文件的 version 必须一致。
func Load(fsys fs.FS) (*Lexicon, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "枚举词表文件失败")
	}
	if len(files) == 0 {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未找到词表文件")
	}
	sort.Strings(files)

	lex := &Lexicon{}
	version := 0
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "读取词表文件失败",
				xerrors.WithMetadata("file", name))
		}
		var header struct {
			Version int `yaml:"version"`
		}
		if err := yaml.Unmarshal(data, &header); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "解析词表文件失败",
				xerrors.WithMetadata("file", name))
		}
		if header.Version <= 0 {
			return nil, xerrors.New(xerrors.CodeInitializationFailure, "词表文件缺少 version",
				xerrors.WithMetadata("file", name))
		}
		if version != 0 && header.Version != version {
			return nil, xerrors.New(xerrors.CodeInitializationFailure,
				fmt.Sprintf("词表版本不一致: %s 为 %d，期望 %d", name, header.Version, version))
		}
		version = header.Version
		if err := yaml.Unmarshal(data, lex); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "解析词表文件失败",
				xerrors.WithMetadata("file", name))
		}
	}
	if err := lex.compile(); err != nil {
		return nil, err
	}
	return lex, nil
}

func (l *Lexicon) compile() error {
	if len(l.Intent.CreationVerbs) == 0 || len(l.Intent.QuestionMarkers) == 0 {
		return xerrors.New(xerrors.CodeInitializationFailure, "意图词表不完整")
	}
	if strings.TrimSpace(l.GenericPrompt) == "" || l.GenericCode == "" ||
		l.GenericDepartment == "" || l.GenericName == "" {
		return xerrors.New(xerrors.CodeInitializationFailure, "缺少通用提示词、通用部门或通用名称")
	}

	var err error
	if l.namePatterns, err = compileAll("name", l.Patterns.Name); err != nil {
		return err
	}
	if l.responsibilityPatterns, err = compileAll("responsibility", l.Patterns.Responsibility); err != nil {
		return err
	}
	if l.constraintPatterns, err = compileAll("constraint", l.Patterns.Constraint); err != nil {
		return err
	}

	l.tools = make(map[string]int, len(l.Tools))
	for i, tool := range l.Tools {
		if tool.Name == "" {
			return xerrors.New(xerrors.CodeInitializationFailure, "工具名称不能为空")
		}
		if _, dup := l.tools[tool.Name]; dup {
			return xerrors.New(xerrors.CodeInitializationFailure, "工具重复定义: "+tool.Name)
		}
		l.tools[tool.Name] = i
	}
	for _, rule := range l.ResponsibilityTools {
		if _, ok := l.tools[rule.Tool]; !ok {
			return xerrors.New(xerrors.CodeInitializationFailure, "职责推断引用了未知工具: "+rule.Tool)
		}
	}

	for _, name := range l.EnhancementTools {
		if _, ok := l.tools[name]; !ok {
			return xerrors.New(xerrors.CodeInitializationFailure, "增强工具引用了未知工具: "+name)
		}
	}

	l.departments = make(map[string]int, len(l.Departments))
	codes := make(map[string]struct{}, len(l.Departments))
	for i, dept := range l.Departments {
		if dept.Name == "" || dept.Code == "" || dept.BasePrompt == "" {
			return xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("部门模板 #%d 不完整", i))
		}
		if _, dup := l.departments[dept.Name]; dup {
			return xerrors.New(xerrors.CodeInitializationFailure, "部门重复定义: "+dept.Name)
		}
		if _, dup := codes[dept.Code]; dup {
			return xerrors.New(xerrors.CodeInitializationFailure, "部门编码重复: "+dept.Code)
		}
		for _, name := range append(append([]string(nil), dept.DefaultTools...), dept.RecommendedTools...) {
			if _, ok := l.tools[name]; !ok {
				return xerrors.New(xerrors.CodeInitializationFailure,
					fmt.Sprintf("部门 %s 引用了未知工具 %s", dept.Name, name))
			}
		}
		l.departments[dept.Name] = i
		codes[dept.Code] = struct{}{}
	}
	return nil
}

func compileAll(kind string, sources []string) ([]*regexp.Regexp, error) {
	if len(sources) == 0 {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "缺少 "+kind+" 规则")
	}
	out := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "编译 "+kind+" 规则失败",
				xerrors.WithMetadata("pattern", src))
		}
		if re.NumSubexp() < 1 {
			return nil, xerrors.New(xerrors.CodeInitializationFailure, kind+" 规则必须包含捕获组",
				xerrors.WithMetadata("pattern", src))
		}
		out = append(out, re)
	}
	return out, nil
}

// NamePatterns 返回按优先级排列的名称抽取规则。
func (l *Lexicon) NamePatterns() []*regexp.Regexp { return l.namePatterns }

// ResponsibilityPatterns 返回职责抽取规则。
func (l *Lexicon) ResponsibilityPatterns() []*regexp.Regexp { return l.responsibilityPatterns }

// ConstraintPatterns 返回约束抽取规则。
func (l *Lexicon) ConstraintPatterns() []*regexp.Regexp { return l.constraintPatterns }

// Department 按规范名称查找部门模板。
func (l *Lexicon) Department(name string) (Department, bool) {
	idx, ok := l.departments[name]
	if !ok {
		return Department{}, false
	}
	return l.Departments[idx], true
}

// MatchDepartment 返回文本中第一个出现的部门（按词表顺序），别名会归一到规范名称。
func (l *Lexicon) MatchDepartment(text string) (Department, bool) {
	for _, dept := range l.Departments {
		if ContainsTerm(text, dept.Name) || MatchAny(text, dept.Aliases) {
			return dept, true
		}
	}
	return Department{}, false
}

// DepartmentCode 返回部门编码，未知部门使用通用编码。
func (l *Lexicon) DepartmentCode(name string) string {
	if dept, ok := l.Department(name); ok {
		return dept.Code
	}
	return l.GenericCode
}

// Tool 按名称查找工具。
func (l *Lexicon) Tool(name string) (Tool, bool) {
	idx, ok := l.tools[name]
	if !ok {
		return Tool{}, false
	}
	return l.Tools[idx], true
}

// negations 中的否定词紧挨在词条之前时，该处命中视为被否定。
var negations = []string{"不要", "不用", "不需要", "不必", "不", "别", "无需", "没有", "not ", "no ", "don't ", "never "}

// ContainsTerm 判断文本是否包含词条。纯 ASCII 单词按词边界匹配，避免 "hr" 命中 "three"，
// 同时接受 s/es 复数后缀。
func ContainsTerm(text, term string) bool {
	return findTerm(text, term, nil)
}

// ContainsAffirmed 与 ContainsTerm 相同，但跳过被否定的命中，例如"不紧急"中的"紧急"。
func ContainsAffirmed(text, term string) bool {
	return findTerm(text, term, func(start int) bool { return !negatedAt(text, start) })
}

// findTerm 查找满足词边界的命中，accept 不为 nil 时还需通过 accept 检查。
func findTerm(text, term string, accept func(start int) bool) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	word := isWordTerm(term)
	offset := 0
	for {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)
		bounded := !word || (!isWordByteAt(text, start-1) && wordEndsAt(text, end))
		if bounded && (accept == nil || accept(start)) {
			return true
		}
		offset = start + 1
	}
}

// wordEndsAt 判断 ASCII 单词在 end 处结束，允许紧跟 s 或 es。
func wordEndsAt(text string, end int) bool {
	if !isWordByteAt(text, end) {
		return true
	}
	if strings.HasPrefix(text[end:], "es") && !isWordByteAt(text, end+2) {
		return true
	}
	return text[end] == 's' && !isWordByteAt(text, end+1)
}

func negatedAt(text string, start int) bool {
	prefix := text[:start]
	for _, neg := range negations {
		if !strings.HasSuffix(prefix, neg) {
			continue
		}
		if isWordTerm(neg) && isWordByteAt(prefix, len(prefix)-len(neg)-1) {
			continue
		}
		return true
	}
	return false
}

// MatchAll 按词条顺序返回文本中出现的词条，结果去重。
func MatchAll(text string, terms []string) []string {
	return matchAll(text, terms, ContainsTerm)
}

// MatchAllAffirmed 与 MatchAll 相同，但忽略被否定的词条。
func MatchAllAffirmed(text string, terms []string) []string {
	return matchAll(text, terms, ContainsAffirmed)
}

func matchAll(text string, terms []string, contains func(text, term string) bool) []string {
	var out []string
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		if contains(text, term) {
			seen[term] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}

// MatchAny 判断文本是否包含任一词条。
func MatchAny(text string, terms []string) bool {
	for _, term := range terms {
		if ContainsTerm(text, term) {
			return true
		}
	}
	return false
}

// MatchAnyAffirmed 判断文本是否包含任一未被否定的词条。
func MatchAnyAffirmed(text string, terms []string) bool {
	for _, term := range terms {
		if ContainsAffirmed(text, term) {
			return true
		}
	}
	return false
}

func isWordTerm(term string) bool {
	hasLetter := false
	for _, r := range term {
		if r > unicode.MaxASCII {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func isWordByteAt(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return false
	}
	c := text[i]
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
