package desensitize

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// Rule 脱敏规则
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Process(s string) string
}

type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool {
	return !t.disabled.Load()
}

func (t *toggle) SetEnabled(enabled bool) {
	t.disabled.Store(!enabled)
}

// ContentRule 基于正则内容替换的规则
type ContentRule struct {
	toggle
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule 创建内容规则，replacement 支持 $1 形式的分组引用
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	return &ContentRule{name: name, pattern: re, replacement: replacement}, nil
}

// MustNewContentRule 创建规则，失败时 panic，仅用于内置规则
func MustNewContentRule(name, pattern, replacement string) *ContentRule {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *ContentRule) Name() string {
	return r.name
}

func (r *ContentRule) Process(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule 替换 JSON 中指定字段的字符串值
type FieldRule struct {
	toggle
	name        string
	fieldName   string
	replacement string
	pattern     *regexp.Regexp
}

// NewFieldRule 创建字段规则，字段名大小写敏感
func NewFieldRule(name, fieldName, replacement string) (*FieldRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if fieldName == "" {
		return nil, fmt.Errorf("field name cannot be empty")
	}

	re, err := regexp.Compile(fmt.Sprintf(`("%s"\s*:\s*)"(?:[^"\\]|\\.)*"`, regexp.QuoteMeta(fieldName)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile field pattern: %w", err)
	}

	return &FieldRule{name: name, fieldName: fieldName, replacement: replacement, pattern: re}, nil
}

// MustNewFieldRule 创建字段规则，失败时 panic
func MustNewFieldRule(name, fieldName, replacement string) *FieldRule {
	rule, err := NewFieldRule(name, fieldName, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *FieldRule) Name() string {
	return r.name
}

func (r *FieldRule) Process(s string) string {
	return r.pattern.ReplaceAllString(s, `${1}"`+strings.ReplaceAll(r.replacement, "$", "$$")+`"`)
}
