package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeTemplateSyntax ErrorType = "template_syntax"
	ErrorTypeResolutionMiss ErrorType = "resolution_miss"
	ErrorTypeRecursionLimit ErrorType = "recursion_limit"
	ErrorTypeLoadConflict   ErrorType = "load_conflict"
	ErrorTypeSecurity       ErrorType = "security"
	ErrorTypeIO             ErrorType = "io"
	ErrorTypeConfig         ErrorType = "config"
	ErrorTypeInternal       ErrorType = "internal"
)

// Error codes
const (
	ErrCodeUnterminatedBlock = "ERR_UNTERMINATED_BLOCK"
	ErrCodeUnclosedTag       = "ERR_UNCLOSED_TAG"
	ErrCodeMalformedTag      = "ERR_MALFORMED_TAG"
	ErrCodeInvalidLimit      = "ERR_INVALID_LIMIT"
	ErrCodeUnknownFilter     = "ERR_UNKNOWN_FILTER"
	ErrCodeMaxIncludeDepth   = "ERR_MAX_INCLUDE_DEPTH"
	ErrCodePartialConflict   = "ERR_PARTIAL_CONFLICT"
	ErrCodeMissingPartial    = "ERR_MISSING_PARTIAL"
	ErrCodeMissingLayout     = "ERR_MISSING_LAYOUT"
	ErrCodeUnknownVariable   = "ERR_UNKNOWN_VARIABLE"
	ErrCodeNotACollection    = "ERR_NOT_A_COLLECTION"
	ErrCodePathTraversal     = "ERR_PATH_TRAVERSAL"
	ErrCodeInvalidPath       = "ERR_INVALID_PATH"
	ErrCodeFrontMatter       = "ERR_FRONT_MATTER"
	ErrCodeReadFailed        = "ERR_READ_FAILED"
	ErrCodeWriteFailed       = "ERR_WRITE_FAILED"
	ErrCodeInvalidConfig     = "ERR_INVALID_CONFIG"
	ErrCodeInvalidData       = "ERR_INVALID_DATA"
	ErrCodeMarkdown          = "ERR_MARKDOWN"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
)

// QuireError is a structured error type with context.
type QuireError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Line        int
	Recoverable bool
}

// Error implements the error interface.
func (e *QuireError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *QuireError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a QuireError with the same type and code.
func (e *QuireError) Is(target error) bool {
	var t *QuireError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *QuireError) WithContext(key string, value interface{}) *QuireError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *QuireError) WithLocation(filePath string, line int) *QuireError {
	e.FilePath = filePath
	e.Line = line

	return e
}

// WithComponent adds component context.
func (e *QuireError) WithComponent(component string) *QuireError {
	e.Component = component

	return e
}

// NewTemplateSyntaxError creates an error for malformed template text. It is
// fatal to the page being rendered.
func NewTemplateSyntaxError(code, message string) *QuireError {
	return &QuireError{
		Type:        ErrorTypeTemplateSyntax,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewRecursionLimitError reports that nested renders went deeper than limit.
func NewRecursionLimitError(limit int, partial string) *QuireError {
	return (&QuireError{
		Type:        ErrorTypeRecursionLimit,
		Code:        ErrCodeMaxIncludeDepth,
		Message:     "max include depth exceeded",
		Recoverable: false,
	}).WithContext("limit", limit).WithContext("partial", partial)
}

// NewLoadConflictError reports two partial files that share a canonical key.
func NewLoadConflictError(key, first, second string) *QuireError {
	return (&QuireError{
		Type:    ErrorTypeLoadConflict,
		Code:    ErrCodePartialConflict,
		Message: fmt.Sprintf("partials %q and %q both resolve to key %q", first, second, key),
	}).WithContext("key", key)
}

// NewResolutionMiss describes a lookup that resolved to nothing. These are
// recorded as diagnostics and never returned from a render.
func NewResolutionMiss(code, message string) *QuireError {
	return &QuireError{
		Type:        ErrorTypeResolutionMiss,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *QuireError {
	return &QuireError{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *QuireError {
	return &QuireError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *QuireError {
	return &QuireError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *QuireError {
	return &QuireError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrPathTraversal rejects a path that tries to leave its root.
func ErrPathTraversal(path string) *QuireError {
	return NewSecurityError(ErrCodePathTraversal, "path traversal attempt detected").
		WithContext("path", path)
}

func typeOf(err error) (ErrorType, bool) {
	var qe *QuireError
	if errors.As(err, &qe) {
		return qe.Type, true
	}

	return "", false
}

// IsType reports whether err carries a QuireError of the given type.
func IsType(err error, errType ErrorType) bool {
	t, ok := typeOf(err)
	return ok && t == errType
}

// IsTemplateSyntax reports whether err is a template syntax error.
func IsTemplateSyntax(err error) bool {
	return IsType(err, ErrorTypeTemplateSyntax)
}

// IsRecursionLimit reports whether err is an include depth error.
func IsRecursionLimit(err error) bool {
	return IsType(err, ErrorTypeRecursionLimit)
}

// IsLoadConflict reports whether err is a partial key conflict.
func IsLoadConflict(err error) bool {
	return IsType(err, ErrorTypeLoadConflict)
}

// IsSecurityError checks if an error is security-related.
func IsSecurityError(err error) bool {
	return IsType(err, ErrorTypeSecurity)
}

// IsFatalToPage reports whether err stops the current page but not the site.
func IsFatalToPage(err error) bool {
	t, ok := typeOf(err)
	if !ok {
		return false
	}
	switch t {
	case ErrorTypeTemplateSyntax, ErrorTypeRecursionLimit, ErrorTypeSecurity:
		return true
	}
	return false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var qe *QuireError
	if errors.As(err, &qe) {
		return qe.Recoverable
	}

	return false
}

// Wrap wraps an error with additional context.
func Wrap(err error, errType ErrorType, code, message string) *QuireError {
	if err == nil {
		return nil
	}

	var qe *QuireError
	if errors.As(err, &qe) {
		return &QuireError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       err,
			Component:   qe.Component,
			FilePath:    qe.FilePath,
			Line:        qe.Line,
			Recoverable: qe.Recoverable,
		}
	}

	return &QuireError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapIO wraps an I/O error.
func WrapIO(err error, code, message string) *QuireError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// WrapConfig wraps a configuration error.
func WrapConfig(err error, code, message string) *QuireError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// As is errors.As, re-exported so callers importing this package under the
// name errors keep access to it.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
