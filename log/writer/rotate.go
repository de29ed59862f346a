package writer

import (
	"fmt"
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateMode 日志轮转模式
type RotateMode string

const (
	// RotateModeTime 按时间轮转
	RotateModeTime RotateMode = "time"
	// RotateModeSize 按大小轮转
	RotateModeSize RotateMode = "size"
)

func timeRotateWriter(config RotateConfig) (io.Writer, error) {
	w, err := rotatelogs.New(
		config.fileFullPathWithFormat("%Y%m%d%H%M"),
		rotatelogs.WithLinkName(config.fileFullPath()),
		rotatelogs.WithMaxAge(time.Duration(config.TimeRotateConfig.MaxAge)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(config.TimeRotateConfig.RotationTime)*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create time rotate writer: %w", err)
	}
	return w, nil
}

func sizeRotateWriter(config RotateConfig) (io.Writer, error) {
	return &lumberjack.Logger{
		Filename:   config.fileFullPath(),
		MaxSize:    config.SizeRotateConfig.MaxSize,
		MaxBackups: config.SizeRotateConfig.MaxBackups,
		MaxAge:     config.SizeRotateConfig.MaxAge,
		Compress:   config.SizeRotateConfig.Compress,
	}, nil
}
