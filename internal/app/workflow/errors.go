// internal/app/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"

	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// Kind classifies workflow failures. Every kind is user-displayable and none
// is retried by the engine.
type Kind string

const (
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
)

// Error is the typed failure returned by the engine and the action service.
type Error struct {
	Kind   Kind
	Action models.Action
	Status models.Status
	Role   models.Role
	Field  string
	Msg    string
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Kind {
	case KindInvalidTransition:
		return fmt.Sprintf("%s is not allowed while the document is %s", e.Action, e.Status)
	case KindUnauthorized:
		return fmt.Sprintf("role %s may not %s a document in %s", e.Role, e.Action, e.Status)
	case KindConflict:
		return "document was changed by someone else; reload and try again"
	case KindNotFound:
		return "document not found"
	}
	return string(e.Kind)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of a workflow error, or "" for anything else.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

func invalidTransition(a models.Action, s models.Status) error {
	return &Error{Kind: KindInvalidTransition, Action: a, Status: s}
}

func unauthorized(a models.Action, s models.Status, r models.Role) error {
	return &Error{Kind: KindUnauthorized, Action: a, Status: s, Role: r}
}

func validation(a models.Action, field, msg string) error {
	return &Error{Kind: KindValidation, Action: a, Field: field, Msg: msg}
}

// NotFound reports a missing document, either the primary one or a related id.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports that the expected source state no longer holds.
func Conflict(a models.Action, s models.Status) error {
	return &Error{Kind: KindConflict, Action: a, Status: s}
}
