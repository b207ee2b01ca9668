package track

import (
	"errors"
	"fmt"
)

// FormatErrorCode categorizes XML decoding failures.
type FormatErrorCode string

const (
	// ErrCodeBadAttr indicates an attribute that does not parse as its type.
	ErrCodeBadAttr FormatErrorCode = "BAD_ATTRIBUTE"

	// ErrCodeBadElement indicates an unexpected child element.
	ErrCodeBadElement FormatErrorCode = "BAD_ELEMENT"

	// ErrCodeTypeMismatch indicates pasted keys of another value type.
	ErrCodeTypeMismatch FormatErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownType indicates a value type with no track implementation.
	ErrCodeUnknownType FormatErrorCode = "UNKNOWN_VALUE_TYPE"
)

// FormatError reports malformed track XML.
type FormatError struct {
	Code    FormatErrorCode
	Attr    string
	Value   string
	Message string
}

func (e *FormatError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("%s: %s (%s=%q)", e.Code, e.Message, e.Attr, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsFormatError reports whether err (or anything it wraps) is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func badAttr(attr, value string, err error) *FormatError {
	return &FormatError{
		Code:    ErrCodeBadAttr,
		Attr:    attr,
		Value:   value,
		Message: err.Error(),
	}
}
