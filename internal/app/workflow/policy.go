// internal/app/workflow/policy.go
package workflow

import "github.com/dalemusser/kerjasama/internal/domain/models"

// DeleteInput is what a DeletePolicy sees. Owner is true when the actor is
// the document's proposer.
type DeleteInput struct {
	Status models.Status
	Role   models.Role
	Level  models.Level
	Owner  bool
}

// DeletePolicy decides who may hard-delete a non-terminal document.
// Documents in SELESAI are never deletable regardless of policy; they are
// archived instead.
type DeletePolicy interface {
	AllowDelete(in DeleteInput) bool
}

// DeletePolicyFunc adapts a function to DeletePolicy.
type DeletePolicyFunc func(DeleteInput) bool

func (f DeletePolicyFunc) AllowDelete(in DeleteInput) bool { return f(in) }

// DefaultDeletePolicy lets the cooperation office delete any unfinished
// document and lets a proposer discard its own draft.
var DefaultDeletePolicy DeletePolicy = DeletePolicyFunc(func(in DeleteInput) bool {
	if in.Role == models.RoleLembagaKerjaSama {
		return true
	}
	return in.Owner && in.Status == models.StatusDraft
})
