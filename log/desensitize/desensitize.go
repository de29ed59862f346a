package desensitize

import (
	"sync"
)

// Hook 按注册顺序应用脱敏规则
type Hook struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewHook 创建空的脱敏钩子
func NewHook() *Hook {
	return &Hook{}
}

// Default 返回带有全部内置规则的钩子
func Default() *Hook {
	h := NewHook()
	h.AddRule(BuiltinRules()...)
	return h
}

// AddRule 添加规则，同名规则会被替换
func (h *Hook) AddRule(rules ...Rule) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if i := h.indexOf(rule.Name()); i >= 0 {
			h.rules[i] = rule
			continue
		}
		h.rules = append(h.rules, rule)
	}
}

// AddContentRule 添加基于内容匹配的规则
func (h *Hook) AddContentRule(name, pattern, replacement string) error {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	h.AddRule(rule)
	return nil
}

// AddFieldRule 添加基于 JSON 字段名的规则
func (h *Hook) AddFieldRule(name, fieldName, replacement string) error {
	rule, err := NewFieldRule(name, fieldName, replacement)
	if err != nil {
		return err
	}
	h.AddRule(rule)
	return nil
}

// RemoveRule 移除规则
func (h *Hook) RemoveRule(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(name)
	if i < 0 {
		return false
	}
	h.rules = append(h.rules[:i], h.rules[i+1:]...)
	return true
}

// SetEnabled 启用或禁用规则
func (h *Hook) SetEnabled(name string, enabled bool) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	i := h.indexOf(name)
	if i < 0 {
		return false
	}
	h.rules[i].SetEnabled(enabled)
	return true
}

// Rules 返回规则名称，按应用顺序
func (h *Hook) Rules() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.rules))
	for _, r := range h.rules {
		names = append(names, r.Name())
	}
	return names
}

// RuleCount 返回规则数量
func (h *Hook) RuleCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules)
}

// Desensitize 对字符串依次应用所有启用的规则
func (h *Hook) Desensitize(s string) string {
	if s == "" {
		return s
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, rule := range h.rules {
		if rule.Enabled() {
			s = rule.Process(s)
		}
	}
	return s
}

func (h *Hook) indexOf(name string) int {
	for i, r := range h.rules {
		if r.Name() == name {
			return i
		}
	}
	return -1
}
