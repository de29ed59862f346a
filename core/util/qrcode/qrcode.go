package qrcode

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// ErrorCorrectionLevel 二维码纠错级别
type ErrorCorrectionLevel = qrcode.RecoveryLevel

const (
	Low     ErrorCorrectionLevel = qrcode.Low     // 7%
	Medium  ErrorCorrectionLevel = qrcode.Medium  // 15%，默认
	High    ErrorCorrectionLevel = qrcode.High    // 25%
	Highest ErrorCorrectionLevel = qrcode.Highest // 30%
)

const DefaultSize = 256

// PNG 生成二维码 PNG，size <= 0 时使用 DefaultSize
func PNG(content string, size int) ([]byte, error) {
	return PNGWithLevel(content, size, Medium)
}

// PNGWithLevel 生成指定纠错级别的二维码 PNG
func PNGWithLevel(content string, size int, level ErrorCorrectionLevel) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(content, level, size)
}

// DataURI 返回可直接嵌入 HTML 的 data:image/png;base64 字符串
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// WriteFile 生成二维码并保存到文件
func WriteFile(content string, size int, filename string) error {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.WriteFile(content, Medium, size, filename)
}
