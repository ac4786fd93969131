package workflow

import (
	"errors"
	"fmt"

	"protocol-review-api/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("actor is not authorized for this transition")
	ErrTerminalState     = errors.New("protocol is in a terminal state")
	ErrIncompleteContent = errors.New("incomplete content")
)

// DenialError explains why Validate refused an edge. It unwraps to one of
// ErrInvalidTransition, ErrUnauthorized or ErrTerminalState.
type DenialError struct {
	From   models.ProtocolStatus
	To     models.ProtocolStatus
	Reason error
}

func (e *DenialError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s -> %s: %v", e.From, e.To, e.Reason)
}

func (e *DenialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Reason
}

// IncompleteContentError carries the first field that failed the completeness gate.
type IncompleteContentError struct {
	Field   string
	Message string
}

func (e *IncompleteContentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("%v: %s is required", ErrIncompleteContent, e.Field)
	}
	return fmt.Sprintf("%v: %s %s", ErrIncompleteContent, e.Field, e.Message)
}

func (e *IncompleteContentError) Is(target error) bool {
	return target == ErrIncompleteContent
}
