// internal/app/store/documents/documentstore_test.go
package documentstore_test

import (
	"errors"
	"testing"
	"time"

	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/dalemusser/kerjasama/internal/testutil"
	"go.uber.org/zap"
)

func TestStore_InsertLoad(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := testutil.NewDocument(models.LevelMOU, models.RoleFakultas, "MOU Universitas Mitra")
	doc.Partner = "Universitas Mitra"
	doc.Scope = []string{"Pendidikan", "Penelitian"}
	doc.Version = 7

	created, err := store.Insert(ctx, doc)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if created.Version != 1 {
		t.Errorf("expected version 1, got %d", created.Version)
	}

	got, err := store.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Title != doc.Title || got.Partner != "Universitas Mitra" || len(got.Scope) != 2 {
		t.Errorf("details not round-tripped: %+v", got.Details)
	}
	if got.Status != models.StatusDraft || got.CreatedByRole != models.RoleFakultas {
		t.Errorf("workflow fields not round-tripped: %+v", got)
	}

	if _, err := store.Insert(ctx, doc); !errors.Is(err, documentstore.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := store.Load(ctx, "missing"); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// Review history survives storage in order and with every field.
func TestStore_ReviewHistoryRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t0 := time.Now().UTC().Truncate(time.Millisecond)
	ret := models.StatusReviewDKG
	by := models.RoleDKG
	doc := testutil.NewDocument(models.LevelMOA, models.RoleProdi, "MOA")
	doc.Status = models.StatusRevisi
	doc.ReturnToStatus = &ret
	doc.RevisionRequestedBy = &by
	doc.ReviewHistory = []models.ReviewLogEntry{
		{StageStatus: models.StatusPengajuanDokumen, Action: models.ReviewApprove, ActorRole: models.RoleLembagaKerjaSama, CreatedAt: t0},
		{StageStatus: models.StatusVerifikasiFakultas, Action: models.ReviewApprove, Note: "ok", ActorRole: models.RoleFakultas, CreatedAt: t0.Add(time.Minute)},
		{StageStatus: models.StatusReviewDKG, Action: models.ReviewRequestRevision, Note: "Perbaiki", AttachmentURL: "/files/n.pdf", ActorRole: models.RoleDKG, CreatedAt: t0.Add(2 * time.Minute)},
	}
	if _, err := store.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got.ReviewHistory) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got.ReviewHistory))
	}
	for i := range doc.ReviewHistory {
		w, g := doc.ReviewHistory[i], got.ReviewHistory[i]
		if w.StageStatus != g.StageStatus || w.Action != g.Action || w.Note != g.Note ||
			w.AttachmentURL != g.AttachmentURL || w.ActorRole != g.ActorRole || !w.CreatedAt.Equal(g.CreatedAt) {
			t.Errorf("entry %d: got %+v, want %+v", i, g, w)
		}
	}
	if got.ReturnToStatus == nil || *got.ReturnToStatus != models.StatusReviewDKG {
		t.Errorf("ReturnToStatus = %v", got.ReturnToStatus)
	}
}

func TestStore_SaveConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc, err := store.Insert(ctx, testutil.NewDocument(models.LevelIA, models.RoleFakultas, "IA"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	pre := documentstore.PreconditionOf(doc)

	// Two writers read the same state.
	a := doc.Clone()
	a.Status = models.StatusPengajuanDokumen
	b := doc.Clone()
	b.Title = "changed"

	saved, err := store.Save(ctx, a, pre)
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if saved.Version != 2 {
		t.Errorf("expected version 2, got %d", saved.Version)
	}

	if _, err := store.Save(ctx, b, pre); !errors.Is(err, documentstore.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	got, _ := store.Load(ctx, doc.ID)
	if got.Title != "IA" || got.Status != models.StatusPengajuanDokumen {
		t.Errorf("losing write was applied: %+v", got)
	}

	ghost := testutil.NewDocument(models.LevelIA, models.RoleFakultas, "ghost")
	if _, err := store.Save(ctx, ghost, documentstore.PreconditionOf(ghost)); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SaveRejectsDeletedRelation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mou, err := store.Insert(ctx, testutil.NewDocument(models.LevelMOU, models.RoleLembagaKerjaSama, "MOU"))
	if err != nil {
		t.Fatalf("Insert MOU failed: %v", err)
	}
	other, err := store.Insert(ctx, testutil.NewDocument(models.LevelMOU, models.RoleLembagaKerjaSama, "MOU 2"))
	if err != nil {
		t.Fatalf("Insert second MOU failed: %v", err)
	}
	moa, err := store.Insert(ctx, testutil.NewDocument(models.LevelMOA, models.RoleFakultas, "MOA"))
	if err != nil {
		t.Fatalf("Insert MOA failed: %v", err)
	}

	// The editor checked mou before it was deleted.
	pre := documentstore.PreconditionOf(moa)
	if _, err := store.Delete(ctx, mou.ID, documentstore.PreconditionOf(mou)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	edit := moa.Clone()
	edit.RelatedIDs = []string{other.ID, mou.ID}
	if _, err := store.Save(ctx, edit, pre); !errors.Is(err, documentstore.ErrRelatedMissing) {
		t.Fatalf("expected ErrRelatedMissing, got %v", err)
	}
	got, _ := store.Load(ctx, moa.ID)
	if got.Version != moa.Version || len(got.RelatedIDs) != 0 {
		t.Errorf("rejected save was applied: version %d related %v", got.Version, got.RelatedIDs)
	}

	// Ids already stored are not re-checked, new live ones are accepted.
	edit.RelatedIDs = []string{other.ID}
	saved, err := store.Save(ctx, edit, pre)
	if err != nil {
		t.Fatalf("Save with a live relation failed: %v", err)
	}
	saved.Title = "MOA renamed"
	if _, err := store.Save(ctx, saved, documentstore.PreconditionOf(saved)); err != nil {
		t.Errorf("Save keeping existing relations failed: %v", err)
	}

	ia := testutil.NewDocument(models.LevelIA, models.RoleProdi, "IA")
	ia.RelatedIDs = []string{mou.ID}
	if _, err := store.Insert(ctx, ia); !errors.Is(err, documentstore.ErrRelatedMissing) {
		t.Errorf("Insert with a deleted relation: expected ErrRelatedMissing, got %v", err)
	}
	if _, err := store.Load(ctx, ia.ID); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("rejected insert was stored: %v", err)
	}
}

func TestStore_DeleteCleansRelations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mou := fx.CreateDocument(ctx, testutil.NewDocument(models.LevelMOU, models.RoleLembagaKerjaSama, "MOU"))
	moa := testutil.NewDocument(models.LevelMOA, models.RoleFakultas, "MOA")
	moa.RelatedIDs = []string{mou.ID}
	moa = fx.CreateDocument(ctx, moa)
	ia := testutil.NewDocument(models.LevelIA, models.RoleProdi, "IA")
	ia.RelatedIDs = []string{mou.ID, moa.ID}
	ia = fx.CreateDocument(ctx, ia)

	refs, err := store.ReferencedBy(ctx, mou.ID)
	if err != nil {
		t.Fatalf("ReferencedBy failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 referencing documents, got %d", len(refs))
	}

	stale := documentstore.Precondition{Version: mou.Version + 1, Status: mou.Status}
	if _, err := store.Delete(ctx, mou.ID, stale); !errors.Is(err, documentstore.ErrConflict) {
		t.Fatalf("expected ErrConflict for a stale delete, got %v", err)
	}

	cleaned, err := store.Delete(ctx, mou.ID, documentstore.PreconditionOf(mou))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if cleaned != 2 {
		t.Errorf("expected 2 cleaned documents, got %d", cleaned)
	}
	if _, err := store.Load(ctx, mou.ID); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("document still present: %v", err)
	}

	gotIA, _ := store.Load(ctx, ia.ID)
	if len(gotIA.RelatedIDs) != 1 || gotIA.RelatedIDs[0] != moa.ID {
		t.Errorf("IA related ids = %v, want [%s]", gotIA.RelatedIDs, moa.ID)
	}
	if gotIA.Version != ia.Version+1 {
		t.Errorf("cleaned document should get a new version, got %d", gotIA.Version)
	}

	if _, err := store.Delete(ctx, mou.ID, documentstore.PreconditionOf(mou)); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_KnownLevelsAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db, zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mou := fx.CreateDocument(ctx, testutil.NewDocument(models.LevelMOU, models.RoleLembagaKerjaSama, "MOU"))
	moa := testutil.NewDocument(models.LevelMOA, models.RoleFakultas, "MOA")
	moa.Status = models.StatusReviewWR
	moa.UpdatedAt = moa.UpdatedAt.Add(time.Hour)
	moa = fx.CreateDocument(ctx, moa)

	known, err := store.KnownLevels(ctx, []string{mou.ID, moa.ID, "nope"})
	if err != nil {
		t.Fatalf("KnownLevels failed: %v", err)
	}
	if len(known) != 2 || known[mou.ID] != models.LevelMOU || known[moa.ID] != models.LevelMOA {
		t.Errorf("KnownLevels = %v", known)
	}

	all, err := store.List(ctx, documentstore.ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != moa.ID {
		t.Errorf("List should return newest first, got %d docs", len(all))
	}

	inReview, _ := store.List(ctx, documentstore.ListFilter{Status: models.StatusReviewWR})
	if len(inReview) != 1 || inReview[0].ID != moa.ID {
		t.Errorf("status filter returned %d docs", len(inReview))
	}

	many, _ := store.GetMany(ctx, []string{mou.ID, "nope"})
	if len(many) != 1 {
		t.Errorf("GetMany returned %d docs", len(many))
	}
}
