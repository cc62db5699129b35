// internal/app/policy/deletepolicy/deletepolicy_test.go
package deletepolicy_test

import (
	"testing"

	"github.com/dalemusser/kerjasama/internal/app/policy/deletepolicy"
	"github.com/dalemusser/kerjasama/internal/app/workflow"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The default expression must agree with the built-in Go policy everywhere.
func TestDefaultMatchesBuiltin(t *testing.T) {
	p, err := deletepolicy.Compile("", nil)
	require.NoError(t, err)
	assert.Equal(t, deletepolicy.Default, p.Expr())

	for _, s := range models.Statuses {
		for _, r := range models.Roles {
			for _, l := range models.Levels {
				for _, owner := range []bool{false, true} {
					in := workflow.DeleteInput{Status: s, Role: r, Level: l, Owner: owner}
					assert.Equal(t, workflow.DefaultDeletePolicy.AllowDelete(in), p.AllowDelete(in),
						"%s/%s/%s owner=%v", s, r, l, owner)
				}
			}
		}
	}
}

func TestCustomExpression(t *testing.T) {
	p, err := deletepolicy.Compile(`role == "LEMBAGA_KERJA_SAMA" && level != "MOU"`, nil)
	require.NoError(t, err)

	assert.True(t, p.AllowDelete(workflow.DeleteInput{Status: models.StatusReviewWR, Role: models.RoleLembagaKerjaSama, Level: models.LevelIA}))
	assert.False(t, p.AllowDelete(workflow.DeleteInput{Status: models.StatusReviewWR, Role: models.RoleLembagaKerjaSama, Level: models.LevelMOU}))
	assert.False(t, p.AllowDelete(workflow.DeleteInput{Status: models.StatusDraft, Role: models.RoleProdi, Level: models.LevelIA, Owner: true}))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `role ==`},
		{"unknown variable", `actor == "WR"`},
		{"not bool", `status`},
		{"type mismatch", `owner == "yes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, deletepolicy.Validate(tt.expr))
		})
	}
}

// The policy plugs into the engine, and SELESAI stays undeletable even under
// a permissive rule.
func TestEngineIntegration(t *testing.T) {
	p, err := deletepolicy.Compile(`true`, nil)
	require.NoError(t, err)
	e := workflow.New(workflow.WithDeletePolicy(p))

	doc := models.Document{ID: "d", Level: models.LevelMOA, Status: models.StatusReviewDKG, CreatedByRole: models.RoleFakultas}
	assert.NoError(t, e.CheckDelete(doc, models.RoleDKGE))

	doc.Status = models.StatusSelesai
	err = e.CheckDelete(doc, models.RoleLembagaKerjaSama)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}
