package api

import "fmt"

// Error represents an API error carrying its JSON-RPC code
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

func invalidParams(format string, args ...interface{}) *Error {
	return NewError(ErrInvalidParams, fmt.Sprintf(format, args...))
}

func unauthorized(message string) *Error {
	return NewError(ErrUnauthorized, message)
}

func notFound(format string, args ...interface{}) *Error {
	return NewError(ErrNotFound, fmt.Sprintf(format, args...))
}
