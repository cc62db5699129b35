// internal/app/features/userinfo/handler_test.go
package userinfo_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/kerjasama/internal/app/features/userinfo"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/dalemusser/kerjasama/internal/testutil"
)

func TestServeMe_Unauthenticated(t *testing.T) {
	rec := testutil.NewRecorder()
	userinfo.NewHandler().ServeMe(rec, testutil.NewJSONRequest(t, "GET", "/me", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeMe_Roles(t *testing.T) {
	tests := []struct {
		role       models.Role
		canPropose bool
		stage      models.Status
	}{
		{models.RoleLembagaKerjaSama, true, models.StatusPengajuanDokumen},
		{models.RoleFakultas, true, models.StatusVerifikasiFakultas},
		{models.RoleProdi, true, ""},
		{models.RoleOrangLuar, true, ""},
		{models.RoleDKG, false, models.StatusReviewDKG},
		{models.RoleBLK, false, models.StatusReviewBLK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			user := testutil.UserWithRole(tt.role)
			req := testutil.WithUser(testutil.NewJSONRequest(t, "GET", "/me", nil), user)
			rec := testutil.NewRecorder()
			userinfo.NewHandler().ServeMe(rec, req)
			rec.AssertStatus(t, http.StatusOK)

			var got struct {
				ID         string        `json:"id"`
				Role       models.Role   `json:"role"`
				CanPropose bool          `json:"canPropose"`
				Stage      models.Status `json:"stage"`
			}
			rec.DecodeEnvelope(t, &got)
			if got.ID != user.ID || got.Role != tt.role || got.CanPropose != tt.canPropose || got.Stage != tt.stage {
				t.Errorf("got %+v", got)
			}
		})
	}
}
