// Package handler 提供 API Handler 的通用辅助函数，
// 统一错误处理、认证检查、参数解析与分页绑定。
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/utils"
	"github.com/linzhaoyu/referral-mall-backend/internal/middleware"
)

// HandleError 处理错误并发送响应。
// err 为 nil 返回 false；否则发送错误响应并返回 true，调用方应该 return。
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	response.Error(c, err)
	return true
}

// MustSucceed 便捷封装：有错误则返回错误响应，否则返回成功响应。
// 调用后必须 return。
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 便捷封装：分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireUserID 获取当前用户ID，未登录则发送 401 响应并返回 false
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "请先登录")
		return 0, false
	}
	return userID, true
}

// ParseID 解析路径参数 "id" 为 int64，失败发送 400 响应并返回 false
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// BindPagination 从查询参数绑定并规范化分页参数
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
