package sequence

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes sequence errors.
type ErrorCode string

const (
	// ErrCodeBadDocument indicates XML that is not a sequence document.
	ErrCodeBadDocument ErrorCode = "BAD_DOCUMENT"

	// ErrCodeUnknownNodeType indicates a node type with no registered
	// constructor.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"

	// ErrCodeDuplicateNode indicates two nodes with the same id.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"

	// ErrCodeDuplicateSequence indicates two sequences with the same name
	// in one library.
	ErrCodeDuplicateSequence ErrorCode = "DUPLICATE_SEQUENCE"
)

// LoadError is returned when a sequence cannot be built or loaded.
type LoadError struct {
	Code     ErrorCode
	Sequence string
	Message  string
	Err      error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Sequence != "" {
		msg += fmt.Sprintf(" (sequence=%s)", e.Sequence)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsBadDocument reports whether err is a malformed-document error.
func IsBadDocument(err error) bool { return hasCode(err, ErrCodeBadDocument) }

// IsUnknownNodeType reports whether err names an unregistered node type.
func IsUnknownNodeType(err error) bool { return hasCode(err, ErrCodeUnknownNodeType) }

// IsDuplicateNode reports whether err is a node id collision.
func IsDuplicateNode(err error) bool { return hasCode(err, ErrCodeDuplicateNode) }

// IsDuplicateSequence reports whether err is a library name collision.
func IsDuplicateSequence(err error) bool { return hasCode(err, ErrCodeDuplicateSequence) }
