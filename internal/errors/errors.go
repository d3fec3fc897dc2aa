// Package errors 定义流水线的错误分类
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 错误类型
type ErrorType string

const (
	ErrorTypeParse      ErrorType = "parse_error"      // 创作类 JSON 无法解析（可修复或回退默认值）
	ErrorTypeResolution ErrorType = "resolution_error" // 无可用参考帧（单场景致命）
	ErrorTypeProvider   ErrorType = "provider_error"   // 生成服务返回非 2xx 或非法结果
	ErrorTypeTimeout    ErrorType = "timeout"          // 轮询次数耗尽
	ErrorTypeQuota      ErrorType = "quota_exceeded"   // 配额不足（软失败）
	ErrorTypeAssembly   ErrorType = "assembly_error"   // 渲染失败（降级为首个场景）
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// AppError 应用错误
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

func NewParseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeParse, message, err)
}

func NewResolutionError(message string, err error) *AppError {
	return NewAppError(ErrorTypeResolution, message, err)
}

func NewProviderError(message string, err error) *AppError {
	return NewAppError(ErrorTypeProvider, message, err)
}

func NewTimeoutError(message string, err error) *AppError {
	return NewAppError(ErrorTypeTimeout, message, err)
}

func NewQuotaError(message string, err error) *AppError {
	return NewAppError(ErrorTypeQuota, message, err)
}

func NewAssemblyError(message string, err error) *AppError {
	return NewAppError(ErrorTypeAssembly, message, err)
}

func NewValidationError(message string, err error) *AppError {
	return NewAppError(ErrorTypeValidation, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

// TypeOf 返回错误链中第一个 AppError 的类型，非 AppError 返回空字符串
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func IsParseError(err error) bool      { return TypeOf(err) == ErrorTypeParse }
func IsResolutionError(err error) bool { return TypeOf(err) == ErrorTypeResolution }
func IsProviderError(err error) bool   { return TypeOf(err) == ErrorTypeProvider }
func IsTimeoutError(err error) bool    { return TypeOf(err) == ErrorTypeTimeout }
func IsQuotaError(err error) bool      { return TypeOf(err) == ErrorTypeQuota }
func IsAssemblyError(err error) bool   { return TypeOf(err) == ErrorTypeAssembly }
func IsValidationError(err error) bool { return TypeOf(err) == ErrorTypeValidation }
func IsNotFoundError(err error) bool   { return TypeOf(err) == ErrorTypeNotFound }

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeParse:
		return "E1001"
	case ErrorTypeResolution:
		return "E1002"
	case ErrorTypeProvider:
		return "E1003"
	case ErrorTypeTimeout:
		return "E1004"
	case ErrorTypeQuota:
		return "E1005"
	case ErrorTypeAssembly:
		return "E1006"
	case ErrorTypeValidation:
		return "E4000"
	case ErrorTypeNotFound:
		return "E4004"
	default:
		return "E9999"
	}
}
