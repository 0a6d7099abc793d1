package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory is the machine-readable cause attached to every error the
// pipeline surfaces. Callers dispatch on the category, humans read the hint.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryForbidden  ErrorCategory = "forbidden"
	CategoryBadRequest ErrorCategory = "bad_request"
	CategoryRateLimit  ErrorCategory = "rate_limit"
	CategoryUpstream   ErrorCategory = "upstream"
	CategoryNetwork    ErrorCategory = "network"
	CategoryConfig     ErrorCategory = "config"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryInternal   ErrorCategory = "internal"
)

// Error is a classified failure with a human-actionable hint.
type Error struct {
	Category ErrorCategory
	Message  string
	Hint     string
}

func (e *Error) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Category, e.Message, e.Hint)
}

// NewError builds a classified error.
func NewError(cat ErrorCategory, msg, hint string) *Error {
	return &Error{Category: cat, Message: msg, Hint: hint}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf extracts the category from err, walking wrapped errors.
// Unclassified errors report CategoryInternal.
func CategoryOf(err error) ErrorCategory {
	var de *Error
	if errors.As(err, &de) {
		return de.Category
	}
	if errors.Is(err, ErrJobNotFound) {
		return CategoryNotFound
	}
	return CategoryInternal
}
