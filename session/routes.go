package session

import (
	"regexp"
	"strings"
)

// Routes 判断哪些路径无需登录即可访问
type Routes struct {
	exact    map[string]struct{}
	prefixes []string
	patterns []*regexp.Regexp
}

// DefaultRoutes 游客可访问的商城页面
func DefaultRoutes() *Routes {
	r, _ := NewRoutes(
		[]string{"/", "/auth/login", "/auth/register", "/auth/forgot-password", "/cart"},
		[]string{"/products/", "/categories/", "/search", "/about", "/contact"},
		`^/products?/\d+`,
	)
	return r
}

func NewRoutes(exact, prefixes []string, patterns ...string) (*Routes, error) {
	r := &Routes{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: prefixes,
	}
	for _, p := range exact {
		r.exact[p] = struct{}{}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// IsPublic 判断 path 是否公开，忽略查询串与锚点
func (r *Routes) IsPublic(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if _, ok := r.exact[path]; ok {
		return true
	}
	for _, re := range r.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
