package dto

import (
	"time"

	"github.com/turtacn/sentinel/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO 错误信息 DTO
type ErrorDTO struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Description string            `json:"description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse 创建错误响应
func ErrorResponse(err error, traceID string) *APIResponse {
	var errorDTO *ErrorDTO

	if se, ok := errors.AsSentinelError(err); ok {
		errorDTO = &ErrorDTO{
			Code:        string(se.Code()),
			Message:     se.Error(),
			Description: se.Description(),
		}
	} else {
		errorDTO = &ErrorDTO{
			Code:        string(errors.CodeInternal),
			Message:     "Internal server error",
			Description: err.Error(),
		}
	}

	return &APIResponse{
		Success:   false,
		Error:     errorDTO,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ValidationErrorResponse 创建验证错误响应
func ValidationErrorResponse(details map[string]string, traceID string) *APIResponse {
	return &APIResponse{
		Success: false,
		Error: &ErrorDTO{
			Code:        string(errors.CodeInvalidRequest),
			Message:     "Validation failed",
			Description: "One or more fields failed validation",
			Details:     details,
		},
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

//Personal.AI order the ending
