package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for reporting purposes. Validation kinds
// are terminal before any worker run; worker kinds propagate through the
// session result slot; KindCleanup is logged and never surfaces to the user.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "invalid_input"
	KindUnsupportedSource ErrorKind = "unsupported_source"
	KindExtraction        ErrorKind = "extraction_failure"
	KindSizePreflight     ErrorKind = "size_exceeded_preflight"
	KindDownload          ErrorKind = "download_failure"
	KindSizePostflight    ErrorKind = "size_exceeded_postflight"
	KindUpload            ErrorKind = "upload_failure"
	KindDelivery          ErrorKind = "delivery_failure"
	KindCleanup           ErrorKind = "cleanup_failure"
)

// Error carries a classification alongside the underlying cause.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// E builds a classified error without a cause.
func E(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the classification of err, or an empty kind for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err belongs to the validation class, which
// is reported to the user without attempting a worker run.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindUnsupportedSource, KindSizePreflight:
		return true
	}
	return false
}
