package log

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/kochabx/phoneshop/log/writer"
)

// Output 日志输出目标
type Output string

const (
	OutputConsole Output = "console"
	OutputFile    Output = "file"
	OutputMulti   Output = "multi"
)

// Config 日志配置
type Config struct {
	Level       string     `mapstructure:"level" json:"level"`
	Output      Output     `mapstructure:"output" json:"output"`
	Caller      bool       `mapstructure:"caller" json:"caller"`
	Desensitize bool       `mapstructure:"desensitize" json:"desensitize"`
	File        FileConfig `mapstructure:"file" json:"file"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Filepath   string            `mapstructure:"filepath" json:"filepath"`
	Filename   string            `mapstructure:"filename" json:"filename"`
	FileExt    string            `mapstructure:"file_ext" json:"file_ext"`
	RotateMode writer.RotateMode `mapstructure:"rotate_mode" json:"rotate_mode"`
	// 按时间轮转，单位小时
	MaxAgeHours       int `mapstructure:"max_age_hours" json:"max_age_hours"`
	RotationTimeHours int `mapstructure:"rotation_time_hours" json:"rotation_time_hours"`
	// 按大小轮转
	MaxSizeMB  int  `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" json:"max_age_days"`
	Compress   bool `mapstructure:"compress" json:"compress"`
}

// withDefaults 填充零值字段
func (c FileConfig) withDefaults() FileConfig {
	if c.Filepath == "" {
		c.Filepath = "log"
	}
	if c.Filename == "" {
		c.Filename = "shopctl"
	}
	if c.FileExt == "" {
		c.FileExt = "log"
	}
	if c.MaxAgeHours == 0 {
		c.MaxAgeHours = 24
	}
	if c.RotationTimeHours == 0 {
		c.RotationTimeHours = 1
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
	return c
}

func (c FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.MaxAgeHours,
			RotationTime: c.RotationTimeHours,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAgeDays,
			Compress:   c.Compress,
		},
	}
}

// ParseLevel 解析日志级别，无法识别时返回 info
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}
