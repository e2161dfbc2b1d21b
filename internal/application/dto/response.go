// Package dto holds the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/turtacn/riskengine/pkg/errors"
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
	Code        string                 `json:"code"`
	Message     string                 `json:"message,omitempty"`
	Description string                 `json:"description,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// ListResponse wraps a page of items.
type ListResponse struct {
	Items  interface{} `json:"items"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
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

// ErrorResponse 创建错误响应. Errors outside the AppError taxonomy are
// reported as internal errors without leaking their text.
func ErrorResponse(err error, traceID string) (int, *APIResponse) {
	status, body := errors.ToGenericErrorResponse(err)
	return status, &APIResponse{
		Success: false,
		Error: &ErrorDTO{
			Code:        body.Error,
			Message:     body.Message,
			Description: body.ErrorDescription,
			Details:     body.Metadata,
		},
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}
