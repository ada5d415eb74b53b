package back

import (
	"errors"
	"net/http"

	"DocPilot/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Response 统一错误响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result 统一返回入口：成功时原样输出 data，失败时按 CodeError 映射状态码
func Result(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	var ce *xerr.CodeError
	if errors.As(err, &ce) {
		CodeError(c, ce)
		return
	}

	// 默认为系统错误
	Error(c, xerr.ErrServerError.Code, err.Error())
}

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error 错误返回
func Error(c *gin.Context, code int, message string) {
	CodeError(c, xerr.New(code, message))
}

// CodeError 输出 CodeError，Extra 字段平铺到响应体
func CodeError(c *gin.Context, e *xerr.CodeError) {
	if len(e.Extra) == 0 {
		c.AbortWithStatusJSON(e.HTTPStatus(), Response{Code: e.Code, Message: e.Message})
		return
	}
	body := gin.H{"code": e.Code, "message": e.Message}
	for k, v := range e.Extra {
		if k == "code" || k == "message" {
			continue
		}
		body[k] = v
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), body)
}
