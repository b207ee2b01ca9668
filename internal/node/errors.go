package node

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes node errors.
type ErrorCode string

const (
	// ErrCodeInvalidParam indicates a parameter the node kind does not support.
	ErrCodeInvalidParam ErrorCode = "INVALID_PARAM"

	// ErrCodeDuplicateTrack indicates a second track for a non-repeatable kind.
	ErrCodeDuplicateTrack ErrorCode = "DUPLICATE_TRACK"

	// ErrCodeBadNode indicates malformed node XML.
	ErrCodeBadNode ErrorCode = "BAD_NODE"
)

// Error is returned by node operations.
type Error struct {
	Code    ErrorCode
	Node    string
	Message string
}

func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateTrack reports whether err is a duplicate-track error.
func IsDuplicateTrack(err error) bool {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code == ErrCodeDuplicateTrack
	}
	return false
}

// IsInvalidParam reports whether err is an unsupported-parameter error.
func IsInvalidParam(err error) bool {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code == ErrCodeInvalidParam
	}
	return false
}
