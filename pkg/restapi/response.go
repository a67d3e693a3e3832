package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Accepted 请求已接受，处理在后台继续
func Accepted(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusAccepted, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Failed 失败响应，根据错误码映射HTTP状态
func Failed(ctx *gin.Context, err error) {
	var e *errno.Errno
	if !errors.As(err, &e) {
		e = &errno.Errno{Code: errno.ErrInternalServer.Code, Message: err.Error()}
	}
	ctx.JSON(httpStatus(e.Code), Response{
		Code:    e.Code,
		Message: e.Message,
	})
}

func httpStatus(code int) int {
	switch {
	case code == 200:
		return http.StatusOK
	case code >= 400 && code < 500:
		return code
	case code >= 500 && code < 600:
		return http.StatusInternalServerError
	}
	// 业务错误码按语义映射
	switch code {
	case errno.ErrVideoNotFound.Code:
		return http.StatusNotFound
	case errno.ErrTokenInvalid.Code, errno.ErrTokenExpired.Code:
		return http.StatusUnauthorized
	case errno.ErrEncodeQueueFull.Code:
		return http.StatusTooManyRequests
	case errno.ErrInternalServer.Code, errno.ErrDatabase.Code, errno.ErrQueueClosed.Code, errno.ErrNoFilesGenerated.Code:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
