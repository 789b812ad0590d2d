package errors

import "fmt"

// ErrorCode represents an oklch-preview error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrAmbiguousAddress  ErrorCode = "AMBIGUOUS_ADDRESS"   // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrNameAlreadyExists ErrorCode = "NAME_ALREADY_EXISTS" // 409
	ErrDocumentTooLarge  ErrorCode = "DOCUMENT_TOO_LARGE"  // 413
	ErrInvalidColor      ErrorCode = "INVALID_COLOR"       // 422
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// Error is a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewAmbiguousAddress creates a 400 error for when both ID and name are provided.
func NewAmbiguousAddress() *Error {
	return &Error{
		Code:    ErrAmbiguousAddress,
		Status:  400,
		Message: "cannot specify both id and name; use one addressing mode",
	}
}

// NewNotFound creates a 404 error for a missing document.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("document not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file on disk.
func NewFileNotFound(path string) *Error {
	return &Error{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(name string) *Error {
	return &Error{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("document with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewDocumentTooLarge creates a 413 error when text exceeds the size limit.
func NewDocumentTooLarge(max, actual int) *Error {
	return &Error{
		Code:    ErrDocumentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("document exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewInvalidColor creates a 422 error for color components that do not parse.
func NewInvalidColor(components map[string]string) *Error {
	return &Error{
		Code:    ErrInvalidColor,
		Status:  422,
		Message: "color components must be decimal numbers or percentages",
		Details: map[string]any{"components": components},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
