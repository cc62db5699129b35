// internal/app/features/ajuan/handler_test.go
package ajuan_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/features/ajuan"
	"github.com/dalemusser/kerjasama/internal/app/system/auth"
	"github.com/dalemusser/kerjasama/internal/app/system/ratelimit"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/dalemusser/kerjasama/internal/testutil"
	"go.uber.org/zap"
)

type apiFixture struct {
	*fixture
	router http.Handler
	users  map[models.Role]testutil.TestUser
}

func newAPI(t *testing.T, limiter *ratelimit.Limiter) *apiFixture {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	f := newFixture()
	h := ajuan.NewHandler(f.svc, limiter, zap.NewNop())
	users := map[models.Role]testutil.TestUser{}
	for _, r := range models.Roles {
		users[r] = testutil.UserWithRole(r)
	}
	return &apiFixture{fixture: f, router: ajuan.Routes(h, sm), users: users}
}

func (a *apiFixture) do(t *testing.T, role models.Role, method, target string, body any) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	if role != "" {
		req = testutil.WithUser(req, a.users[role])
	}
	rec := testutil.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *apiFixture) createDraft(t *testing.T, role models.Role) ajuan.View {
	t.Helper()
	rec := a.do(t, role, "POST", "/", map[string]any{
		"level":        "MOA",
		"title":        "Kerja sama riset terapan",
		"partner":      "Universitas Mitra",
		"deanApproval": true,
		"startDate":    "2025-02-01",
		"endDate":      "2028-02-01",
	})
	rec.AssertStatus(t, http.StatusCreated)
	var v ajuan.View
	if status, _ := rec.DecodeEnvelope(t, &v); status != "success" {
		t.Fatalf("envelope status = %q", status)
	}
	return v
}

func TestAPI_RequiresSignIn(t *testing.T) {
	api := newAPI(t, nil)
	rec := api.do(t, "", "GET", "/", nil)
	rec.AssertStatus(t, http.StatusUnauthorized)
	if _, code := rec.DecodeEnvelope(t, nil); code != "unauthenticated" {
		t.Errorf("code = %q", code)
	}
}

func TestAPI_CreateAndGet(t *testing.T) {
	api := newAPI(t, nil)
	v := api.createDraft(t, models.RoleFakultas)

	if v.Status != models.StatusDraft || v.CreatedByRole != models.RoleFakultas || v.Title != "Kerja sama riset terapan" {
		t.Fatalf("unexpected draft: %+v", v.Document)
	}

	rec := api.do(t, models.RoleFakultas, "GET", "/"+v.ID, nil)
	rec.AssertStatus(t, http.StatusOK)
	var got ajuan.View
	rec.DecodeEnvelope(t, &got)
	want := []models.Action{models.ActionSubmit, models.ActionEdit, models.ActionDelete}
	if len(got.AllowedActions) != len(want) {
		t.Fatalf("allowedActions = %v, want %v", got.AllowedActions, want)
	}
	for i := range want {
		if got.AllowedActions[i] != want[i] {
			t.Errorf("allowedActions = %v, want %v", got.AllowedActions, want)
		}
	}

	// Another proposer sees nothing it can do on someone else's draft.
	rec = api.do(t, models.RoleProdi, "GET", "/"+v.ID, nil)
	rec.DecodeEnvelope(t, &got)
	if len(got.AllowedActions) != 0 {
		t.Errorf("PRODI allowedActions = %v, want none", got.AllowedActions)
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := newAPI(t, nil)
	v := api.createDraft(t, models.RoleFakultas)

	tests := []struct {
		name   string
		role   models.Role
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing document", models.RoleFakultas, "POST", "/nope/submit", nil, http.StatusNotFound, "not_found"},
		{"wrong role", models.RoleWR, "POST", "/" + v.ID + "/submit", nil, http.StatusForbidden, "unauthorized"},
		{"illegal from status", models.RoleLembagaKerjaSama, "POST", "/" + v.ID + "/review/approve", nil, http.StatusUnprocessableEntity, "invalid_transition"},
		{"archive a draft", models.RoleLembagaKerjaSama, "POST", "/" + v.ID + "/archive", nil, http.StatusUnprocessableEntity, "invalid_transition"},
		{"bad level", models.RoleFakultas, "POST", "/", map[string]any{"level": "SPK", "title": "x"}, http.StatusBadRequest, "validation"},
		{"missing title", models.RoleFakultas, "POST", "/", map[string]any{"level": "IA"}, http.StatusBadRequest, "validation"},
		{"stale version", models.RoleFakultas, "POST", "/" + v.ID + "/submit", map[string]any{"version": 9}, http.StatusConflict, "conflict"},
		{"bad list filter", models.RoleFakultas, "GET", "/?status=DONE", nil, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, tt.role, tt.method, tt.path, tt.body)
			rec.AssertStatus(t, tt.status)
			status, code := rec.DecodeEnvelope(t, nil)
			if status != "error" || code != tt.code {
				t.Errorf("envelope = (%q, %q), want (error, %q)", status, code, tt.code)
			}
		})
	}

	if got, _ := api.repo.get(v.ID); got.Status != models.StatusDraft || got.Version != 1 {
		t.Errorf("failed requests changed the document: %s v%d", got.Status, got.Version)
	}
}

func TestAPI_ReviewFlow(t *testing.T) {
	api := newAPI(t, nil)
	v := api.createDraft(t, models.RoleFakultas)

	steps := []struct {
		role models.Role
		path string
		body any
		want models.Status
	}{
		{models.RoleFakultas, "/submit", nil, models.StatusPengajuanDokumen},
		{models.RoleLembagaKerjaSama, "/review/approve", map[string]any{"note": "Lengkap"}, models.StatusVerifikasiFakultas},
		{models.RoleFakultas, "/review/approve", nil, models.StatusReviewDKG},
		{models.RoleDKG, "/review/revision", map[string]any{"note": "Perbaiki pasal 4", "attachmentUrl": "https://files.example.ac.id/c.pdf"}, models.StatusRevisi},
		{models.RoleFakultas, "/resubmit", nil, models.StatusReviewDKG},
	}
	for _, s := range steps {
		rec := api.do(t, s.role, "POST", "/"+v.ID+s.path, s.body)
		rec.AssertStatus(t, http.StatusOK)
		rec.DecodeEnvelope(t, &v)
		if v.Status != s.want {
			t.Fatalf("%s %s: status %s, want %s", s.role, s.path, v.Status, s.want)
		}
	}
	if v.LatestReview == nil || v.LatestReview.Note != "Perbaiki pasal 4" {
		t.Errorf("latestReview = %+v", v.LatestReview)
	}
	if v.ReturnToStatus != nil {
		t.Errorf("returnToStatus should be cleared after resubmit, got %v", *v.ReturnToStatus)
	}
}

func TestAPI_RevisionNeedsNote(t *testing.T) {
	api := newAPI(t, nil)
	v := api.createDraft(t, models.RoleFakultas)
	api.do(t, models.RoleFakultas, "POST", "/"+v.ID+"/submit", nil).AssertStatus(t, http.StatusOK)

	rec := api.do(t, models.RoleLembagaKerjaSama, "POST", "/"+v.ID+"/review/revision", map[string]any{"note": ""})
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestAPI_EditWithIfMatch(t *testing.T) {
	api := newAPI(t, nil)
	v := api.createDraft(t, models.RoleFakultas)

	body := map[string]any{"details": map[string]any{"title": "Judul baru", "deanApproval": true}}
	req := testutil.NewJSONRequest(t, "PUT", "/"+v.ID, body)
	req.Header.Set("If-Match", `"7"`)
	rec := testutil.NewRecorder()
	api.router.ServeHTTP(rec, testutil.WithUser(req, api.users[models.RoleFakultas]))
	rec.AssertStatus(t, http.StatusConflict)

	req = testutil.NewJSONRequest(t, "PUT", "/"+v.ID, body)
	req.Header.Set("If-Match", `"1"`)
	rec = testutil.NewRecorder()
	api.router.ServeHTTP(rec, testutil.WithUser(req, api.users[models.RoleFakultas]))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeEnvelope(t, &v)
	if v.Title != "Judul baru" || v.Version != 2 {
		t.Errorf("edit not applied: %q v%d", v.Title, v.Version)
	}
}

// The default relation policy is strict.
func TestAPI_CreateUnknownRelation(t *testing.T) {
	api := newAPI(t, nil)
	rec := api.do(t, models.RoleFakultas, "POST", "/", map[string]any{
		"level":      "MOA",
		"title":      "MOA",
		"relatedIds": []string{"ghost"},
	})
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestAPI_DeleteAndRelated(t *testing.T) {
	api := newAPI(t, nil)
	parent := api.createDraft(t, models.RoleLembagaKerjaSama)

	rec := api.do(t, models.RoleProdi, "POST", "/", map[string]any{
		"level": "IA", "title": "IA", "deanApproval": true, "relatedIds": []string{parent.ID},
	})
	rec.AssertStatus(t, http.StatusCreated)
	var child ajuan.View
	rec.DecodeEnvelope(t, &child)

	rec = api.do(t, models.RoleFakultas, "GET", "/"+parent.ID+"/related", nil)
	rec.AssertStatus(t, http.StatusOK)
	var rel ajuan.Related
	rec.DecodeEnvelope(t, &rel)
	if len(rel.Incoming) != 1 || rel.Incoming[0].ID != child.ID {
		t.Fatalf("incoming = %+v", rel.Incoming)
	}

	rec = api.do(t, models.RoleLembagaKerjaSama, "DELETE", "/"+parent.ID, nil)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"referencesRemoved":1`)

	api.do(t, models.RoleLembagaKerjaSama, "GET", "/"+parent.ID, nil).AssertStatus(t, http.StatusNotFound)
}

func TestAPI_AllowedActionsQuery(t *testing.T) {
	api := newAPI(t, nil)

	tests := []struct {
		query  string
		role   models.Role
		status int
		want   string
	}{
		{"?status=REVIEW_WR&role=WR", models.RoleFakultas, http.StatusOK, `"allowedActions":["approve","request_revision"]`},
		{"?status=review_wr&role=wr", models.RoleFakultas, http.StatusOK, `"allowedActions":["approve","request_revision"]`},
		{"?status=SELESAI&role=LEMBAGA_KERJA_SAMA", models.RoleFakultas, http.StatusOK, `"allowedActions":["archive"]`},
		{"?status=REVISI", models.RoleProdi, http.StatusOK, `"allowedActions":["edit","resubmit"]`},
		{"?status=UNKNOWN&role=WR", models.RoleWR, http.StatusBadRequest, `"code":"validation"`},
		{"?status=DRAFT&role=ADMIN", models.RoleWR, http.StatusBadRequest, `"code":"validation"`},
		{"?role=WR", models.RoleWR, http.StatusBadRequest, `"code":"validation"`},
	}
	for _, tt := range tests {
		rec := api.do(t, tt.role, "GET", "/allowed-actions"+tt.query, nil)
		rec.AssertStatus(t, tt.status)
		rec.AssertContains(t, tt.want)
	}
}

func TestAPI_RateLimited(t *testing.T) {
	api := newAPI(t, ratelimit.New(1, 2))

	for i := 0; i < 2; i++ {
		api.createDraft(t, models.RoleFakultas)
	}
	rec := api.do(t, models.RoleFakultas, "POST", "/", map[string]any{"level": "MOA", "title": "x"})
	rec.AssertStatus(t, http.StatusTooManyRequests)

	// Reads and other users are unaffected.
	api.do(t, models.RoleFakultas, "GET", "/", nil).AssertStatus(t, http.StatusOK)
	api.createDraft(t, models.RoleProdi)
}
