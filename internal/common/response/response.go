// Package response 提供统一的 HTTP 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: GetRequestID(c),
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   message,
		Data:      data,
		RequestID: GetRequestID(c),
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Error 错误响应
func Error(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		appErr = errors.ErrInternalError.WithError(err)
	}

	c.JSON(httpStatus(appErr.Code), Response{
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: GetRequestID(c),
	})
}

// ErrorWithCode 指定错误码的错误响应
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(httpStatus(code), Response{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrInvalidParams.Message
	}
	c.JSON(http.StatusBadRequest, Response{
		Code:      errors.ErrInvalidParams.Code,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrUnauthorized.Message
	}
	c.JSON(http.StatusUnauthorized, Response{
		Code:      errors.ErrUnauthorized.Code,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = errors.ErrPermissionDenied.Message
	}
	c.JSON(http.StatusForbidden, Response{
		Code:      errors.ErrPermissionDenied.Code,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}

// GetRequestID 获取请求ID
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// httpStatus 按错误码段映射 HTTP 状态码
func httpStatus(code int) int {
	switch {
	case code == 0:
		return http.StatusOK
	case code == errors.ErrNotFound.Code:
		return http.StatusNotFound
	case code == errors.ErrPermissionDenied.Code:
		return http.StatusForbidden
	case code >= 2000 && code < 3000:
		return http.StatusUnauthorized
	case code >= 1000 && code < 2000:
		return http.StatusInternalServerError
	default:
		// 业务错误统一返回 200，由 code 区分
		return http.StatusOK
	}
}
