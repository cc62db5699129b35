// internal/app/workflow/allowed.go
package workflow

import "github.com/dalemusser/kerjasama/internal/domain/models"

// AllowedActions returns the actions role may perform on a document in
// status, in canonical order. It is the intersection of the actions legal
// from status and the actions role is authorized for. Proposer roles are
// assumed to own the document; delete follows DefaultDeletePolicy.
//
// The result is derived on every call and must never be cached by clients.
func AllowedActions(status models.Status, role models.Role) []models.Action {
	return allowed(status, role, role.CanPropose(), "", DefaultDeletePolicy)
}

// AllowedActions is the package-level AllowedActions evaluated with the
// engine's delete policy.
func (e *Engine) AllowedActions(status models.Status, role models.Role) []models.Action {
	return allowed(status, role, role.CanPropose(), "", e.deletes)
}

// AllowedFor refines AllowedActions with the state of a concrete document:
// proposer actions are limited to the document's owner, resubmit needs a
// recorded return stage and archive happens only once.
func (e *Engine) AllowedFor(doc models.Document, role models.Role) []models.Action {
	owner := role == doc.Owner()
	acts := allowed(doc.Status, role, owner, doc.Level, e.deletes)
	out := acts[:0]
	for _, a := range acts {
		switch a {
		case models.ActionResubmit:
			if doc.ReturnToStatus == nil {
				continue
			}
		case models.ActionArchive:
			if doc.ArchivedAt != nil {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// Can reports whether a is in AllowedFor(doc, role).
func (e *Engine) Can(doc models.Document, role models.Role, a models.Action) bool {
	for _, x := range e.AllowedFor(doc, role) {
		if x == a {
			return true
		}
	}
	return false
}

func allowed(status models.Status, role models.Role, owner bool, level models.Level, deletes DeletePolicy) []models.Action {
	out := make([]models.Action, 0, len(models.Actions))
	if !status.Valid() || !role.Valid() {
		return out
	}
	for _, a := range models.Actions {
		if legalFrom(a, status) && authorized(a, status, role, owner, level, deletes) {
			out = append(out, a)
		}
	}
	return out
}

// legalFrom encodes the status column of the transition table.
func legalFrom(a models.Action, s models.Status) bool {
	switch a {
	case models.ActionSubmit:
		return s == models.StatusDraft
	case models.ActionEdit:
		return s == models.StatusDraft || s == models.StatusRevisi
	case models.ActionApprove, models.ActionRequestRevision:
		return IsReviewStage(s)
	case models.ActionResubmit:
		return s == models.StatusRevisi
	case models.ActionDelete:
		return !s.Terminal()
	case models.ActionArchive:
		return s == models.StatusSelesai
	}
	return false
}

// authorized encodes the role column of the transition table.
func authorized(a models.Action, s models.Status, r models.Role, owner bool, level models.Level, deletes DeletePolicy) bool {
	switch a {
	case models.ActionSubmit, models.ActionEdit, models.ActionResubmit:
		return owner && r.CanPropose()
	case models.ActionApprove, models.ActionRequestRevision:
		o, ok := StageOwner(s)
		return ok && o == r
	case models.ActionDelete:
		return deletes.AllowDelete(DeleteInput{Status: s, Role: r, Level: level, Owner: owner})
	case models.ActionArchive:
		return r == models.RoleLembagaKerjaSama
	}
	return false
}
