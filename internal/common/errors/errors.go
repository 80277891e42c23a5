// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is 按错误码比较
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrOperationFailed = New(1008, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound = New(3000, "用户不存在")
	ErrUserExists   = New(3001, "用户已存在")
	ErrUserDisabled = New(3002, "账号已禁用")
)

// 推荐关系错误码 (4000-4999)
var (
	ErrInvalidReferralCode = New(4000, "邀请码无效")
	ErrSelfReferral        = New(4001, "不能绑定自己为推荐人")
	ErrCodeAlreadyBound    = New(4002, "推荐关系已绑定，不可变更")
	ErrCycleDetected       = New(4003, "推荐链存在循环")
	ErrLevelNotFound       = New(4004, "等级配置不存在")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound    = New(5000, "订单不存在")
	ErrOrderNotPaid     = New(5001, "订单未支付")
	ErrOrderStatusError = New(5002, "订单状态异常")
)

// 佣金错误码 (6000-6999)
var (
	ErrCommissionNotFound = New(6000, "佣金记录不存在")
	ErrCommissionExists   = New(6001, "佣金已发放")
)

// 奖金偏好错误码 (7000-7999)
var (
	ErrPercentagesInvalid  = New(7000, "四项比例必须均在0到100之间且总和为100")
	ErrPreferencesLocked   = New(7001, "奖金偏好已锁定")
	ErrPreferencesNotFound = New(7002, "奖金偏好不存在")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 提取错误链中的应用错误，没有则返回 nil
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}
