// internal/app/workflow/engine_property_test.go
package workflow

import (
	"testing"

	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type step struct {
	action models.Action
	role   models.Role
	note   string
}

// apply runs one step through the engine the way the action service would.
func apply(e *Engine, doc models.Document, s step) (models.Document, error) {
	switch s.action {
	case models.ActionSubmit:
		return e.Submit(doc, s.role)
	case models.ActionEdit:
		d := doc.Details
		d.StatusNote = s.note
		out, _, err := e.Edit(doc, s.role, Patch{Details: &d}, nil)
		return out, err
	case models.ActionApprove:
		return e.Approve(doc, s.role, ReviewInput{Note: s.note})
	case models.ActionRequestRevision:
		return e.RequestRevision(doc, s.role, ReviewInput{Note: s.note})
	case models.ActionResubmit:
		return e.Resubmit(doc, s.role)
	case models.ActionArchive:
		return e.Archive(doc, s.role)
	case models.ActionDelete:
		return doc, e.CheckDelete(doc, s.role)
	}
	return doc, nil
}

func genSteps() gopter.Gen {
	notes := gen.OneConstOf("", " ", "Lengkapi lampiran", "ok")
	one := gopter.CombineGens(
		gen.IntRange(0, len(models.Actions)-1),
		gen.IntRange(0, len(models.Roles)-1),
		notes,
	).Map(func(v []any) step {
		return step{
			action: models.Actions[v[0].(int)],
			role:   models.Roles[v[1].(int)],
			note:   v[2].(string),
		}
	})
	return gen.SliceOfN(40, one)
}

func TestWorkflowProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("status is always one of the nine stages", prop.ForAll(
		func(steps []step) bool {
			e := New(WithClock(tickingClock()))
			doc, _, _ := e.Create(CreateInput{Level: models.LevelMOU, Details: models.Details{Title: "t", DeanApproval: true}}, fak, nil)
			for _, s := range steps {
				next, err := apply(e, doc, s)
				if err == nil {
					doc = next
				}
				if !doc.Status.Valid() {
					return false
				}
			}
			return true
		},
		genSteps(),
	))

	properties.Property("review history is append-only", prop.ForAll(
		func(steps []step) bool {
			e := New(WithClock(tickingClock()))
			doc, _, _ := e.Create(CreateInput{Level: models.LevelMOA, Details: models.Details{Title: "t"}}, lki, nil)
			for _, s := range steps {
				before := doc.Clone()
				next, err := apply(e, doc, s)
				if err != nil {
					if len(next.ReviewHistory) != len(before.ReviewHistory) || next.Status != before.Status {
						return false
					}
					continue
				}
				if len(next.ReviewHistory) < len(before.ReviewHistory) {
					return false
				}
				for i := range before.ReviewHistory {
					if next.ReviewHistory[i] != before.ReviewHistory[i] {
						return false
					}
				}
				for _, h := range next.ReviewHistory {
					if h.Action == models.ReviewRequestRevision && h.Note == "" {
						return false
					}
				}
				doc = next
			}
			return true
		},
		genSteps(),
	))

	properties.Property("only allowed actions succeed", prop.ForAll(
		func(steps []step) bool {
			e := New(WithClock(tickingClock()))
			doc, _, _ := e.Create(CreateInput{Level: models.LevelIA, Details: models.Details{Title: "t"}}, luar, nil)
			for _, s := range steps {
				can := e.Can(doc, s.role, s.action)
				next, err := apply(e, doc, s)
				if err == nil && !can {
					return false
				}
				if err != nil && can && KindOf(err) != KindValidation {
					return false
				}
				if err == nil {
					doc = next
				}
			}
			return true
		},
		genSteps(),
	))

	properties.Property("resubmit restores the stage that asked for revision", prop.ForAll(
		func(stage int, note string) bool {
			e := New(WithClock(tickingClock()))
			doc, _, _ := e.Create(CreateInput{Level: models.LevelMOU, Details: models.Details{Title: "t"}}, fak, nil)
			doc, _ = e.Submit(doc, fak)
			target := reviewSequence[stage]
			for doc.Status != target {
				owner, _ := StageOwner(doc.Status)
				doc, _ = e.Approve(doc, owner, ReviewInput{})
			}
			owner, _ := StageOwner(target)
			doc, err := e.RequestRevision(doc, owner, ReviewInput{Note: note})
			if err != nil {
				return false
			}
			submitted := *doc.SubmittedAt
			doc, err = e.Resubmit(doc, fak)
			return err == nil &&
				doc.Status == target &&
				doc.ReturnToStatus == nil &&
				doc.ResubmittedAt != nil &&
				doc.SubmittedAt.Equal(submitted)
		},
		gen.IntRange(0, len(reviewSequence)-1),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
