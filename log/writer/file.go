package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig 按时间轮转配置
type TimeRotateConfig struct {
	MaxAge       int // 保留时间(小时)
	RotationTime int // 轮转间隔(小时)
}

// SizeRotateConfig 按大小轮转配置
type SizeRotateConfig struct {
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// File 创建文件输出 writer
func File(config RotateConfig) (io.Writer, error) {
	switch config.Mode {
	case RotateModeTime, "":
		return timeRotateWriter(config)
	case RotateModeSize:
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %s", config.Mode)
	}
}

func (c *RotateConfig) fileFullPath() string {
	return c.fileFullPathWithFormat("")
}

func (c *RotateConfig) fileFullPathWithFormat(format string) string {
	var b strings.Builder
	b.WriteString(c.Filename)
	if format != "" {
		b.WriteByte('.')
		b.WriteString(format)
	}
	b.WriteByte('.')
	b.WriteString(c.FileExt)

	return filepath.Join(c.Filepath, b.String())
}
