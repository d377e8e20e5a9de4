package jarvismodel

import "fmt"

// Code is a stable, append-only error code. Codes are never renamed or
// repurposed across versions.
type Code string

const (
	CodeInvalidArgument     Code = "invalid_argument"
	CodeInvalidTransition   Code = "invalid_transition"
	CodeConfigurationError  Code = "configuration_error"
	CodePermissionDenied    Code = "permission_denied"
	CodeToolNotFound        Code = "tool_not_found"
	CodeValidationError     Code = "validation_error"
	CodeToolNotImplemented  Code = "tool_not_implemented"
	CodeExecutionError      Code = "execution_error"
	CodePathNotAllowed      Code = "path_not_allowed"
	CodeWriteNotAllowed     Code = "write_not_allowed"
	CodeDeleteNotAllowed    Code = "delete_not_allowed"
	CodeSearchLimitExceeded Code = "search_limit_exceeded"
	CodeCycleDetected       Code = "cycle_detected"
	CodeDeadlineExceeded    Code = "deadline_exceeded"
	CodeNotFound            Code = "not_found"
)

// CodedError is a structured, fail-closed error carrying a stable machine
// -readable code alongside a human message and optional details. Every
// fallible API returns a discriminated result carrying either a value or
// {code, message, details?}.
type CodedError struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *CodedError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCodedError constructs a CodedError.
func NewCodedError(code Code, message string, details map[string]any) *CodedError {
	return &CodedError{Code: code, Message: message, Details: details}
}

// CodeOf extracts the Code from err if it is (or wraps) a *CodedError,
// returning ("", false) otherwise.
func CodeOf(err error) (Code, bool) {
	var ce *CodedError
	if err == nil {
		return "", false
	}
	if asCoded, ok := err.(*CodedError); ok {
		return asCoded.Code, true
	}
	ce, ok := asCodedError(err)
	if !ok {
		return "", false
	}
	return ce.Code, true
}

func asCodedError(err error) (*CodedError, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(*CodedError); ok {
			return ce, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
