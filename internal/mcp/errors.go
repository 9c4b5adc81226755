// Package mcp implements the Model Context Protocol server for hybridrag.
package mcp

import (
	"errors"
	"fmt"

	ragerrors "github.com/vocalia/hybridrag/internal/errors"
)

// Custom MCP error codes for hybridrag.
const (
	// ErrCodeTenantNotReady indicates the tenant corpus could not be loaded.
	ErrCodeTenantNotReady = -32001

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var ragErr *ragerrors.RAGError
	if errors.As(err, &ragErr) {
		if ragErr.Code == ragerrors.ErrCodeTenantNotReady {
			return &MCPError{
				Code:    ErrCodeTenantNotReady,
				Message: ragErr.Message,
			}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: ragErr.Message}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}
