package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/errors"
)

// Message 后端通用的提示结构，错误也使用它
type Message struct {
	Message string `json:"message"`
}

// GinJSON 写入 200 与 data
func GinJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// GinMessage 写入 200 与 {"message": msg}
func GinMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Message{Message: msg})
}

// GinText 写入 200 与纯文本，部分接口（如订单状态更新）只返回文本
func GinText(c *gin.Context, text string) {
	c.String(http.StatusOK, text)
}

// GinJSONE 把错误写成 {"message": ...}，状态码取自 errors.Error，
// 不在 4xx/5xx 范围内时按 500 处理
func GinJSONE(c *gin.Context, err error) {
	e := errors.FromError(err)
	if e == nil {
		e = errors.Internal("%s", http.StatusText(http.StatusInternalServerError))
		err = e
	}

	status := e.Code
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	if status >= 500 {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Message{Message: e.Message})
}
