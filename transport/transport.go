// Package transport 描述可由 app 统一启动和关闭的服务
package transport

import (
	"context"
	"net"
	"strconv"
	"strings"
)

// Server 由 app 管理生命周期的服务
type Server interface {
	// Run 阻塞直到服务停止
	Run() error
	Shutdown(context.Context) error
}

// ValidateAddress 校验 "host:port"，host 可以为空
func ValidateAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return false
	}
	return host == "" || net.ParseIP(host) != nil || validHostname(host)
}

func validHostname(host string) bool {
	if len(host) > 253 {
		return false
	}
	for label := range strings.SplitSeq(host, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
