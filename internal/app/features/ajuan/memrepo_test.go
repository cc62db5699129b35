// internal/app/features/ajuan/memrepo_test.go
package ajuan_test

import (
	"context"
	"sort"
	"sync"
	"time"

	activitystore "github.com/dalemusser/kerjasama/internal/app/store/activities"
	documentstore "github.com/dalemusser/kerjasama/internal/app/store/documents"
	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// memRepo is an in-memory Repository with the same precondition semantics as
// the Mongo store.
type memRepo struct {
	mu   sync.Mutex
	docs map[string]models.Document

	// beforeSave runs between the service's load and its save, which lets a
	// test slip in a competing write.
	beforeSave func(r *memRepo, id string)
}

func newMemRepo() *memRepo {
	return &memRepo{docs: map[string]models.Document{}}
}

func (r *memRepo) put(doc models.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc.Clone()
}

func (r *memRepo) get(id string) (models.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	return d.Clone(), ok
}

func (r *memRepo) Insert(_ context.Context, doc models.Document) (models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return models.Document{}, documentstore.ErrDuplicate
	}
	if err := r.relatedExist(doc.RelatedIDs, nil); err != nil {
		return models.Document{}, err
	}
	doc.Version = 1
	r.docs[doc.ID] = doc.Clone()
	return doc, nil
}

func (r *memRepo) Load(_ context.Context, id string) (models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return models.Document{}, documentstore.ErrNotFound
	}
	return d.Clone(), nil
}

func (r *memRepo) matches(id string, pre documentstore.Precondition) error {
	cur, ok := r.docs[id]
	if !ok {
		return documentstore.ErrNotFound
	}
	if cur.Version != pre.Version || cur.Status != pre.Status {
		return documentstore.ErrConflict
	}
	return nil
}

func (r *memRepo) Save(_ context.Context, doc models.Document, pre documentstore.Precondition) (models.Document, error) {
	if r.beforeSave != nil {
		hook := r.beforeSave
		r.beforeSave = nil
		hook(r, doc.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.matches(doc.ID, pre); err != nil {
		return models.Document{}, err
	}
	if err := r.relatedExist(doc.RelatedIDs, pre.Related); err != nil {
		return models.Document{}, err
	}
	doc.Version = pre.Version + 1
	r.docs[doc.ID] = doc.Clone()
	return doc, nil
}

// relatedExist checks the ids in next that are not in had.
func (r *memRepo) relatedExist(next, had []string) error {
	old := map[string]bool{}
	for _, id := range had {
		old[id] = true
	}
	for _, id := range next {
		if _, ok := r.docs[id]; !ok && !old[id] {
			return documentstore.ErrRelatedMissing
		}
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string, pre documentstore.Precondition) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.matches(id, pre); err != nil {
		return 0, err
	}
	delete(r.docs, id)

	var cleaned int64
	for k, d := range r.docs {
		kept := d.RelatedIDs[:0:0]
		for _, rid := range d.RelatedIDs {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		if len(kept) != len(d.RelatedIDs) {
			d.RelatedIDs = kept
			d.Version++
			d.UpdatedAt = time.Now().UTC()
			r.docs[k] = d
			cleaned++
		}
	}
	return cleaned, nil
}

func (r *memRepo) KnownLevels(_ context.Context, ids []string) (map[string]models.Level, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]models.Level{}
	for _, id := range ids {
		if d, ok := r.docs[id]; ok {
			out[id] = d.Level
		}
	}
	return out, nil
}

func (r *memRepo) GetMany(_ context.Context, ids []string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Document{}
	for _, id := range ids {
		if d, ok := r.docs[id]; ok {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (r *memRepo) ReferencedBy(_ context.Context, id string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Document{}
	for _, d := range r.docs {
		for _, rid := range d.RelatedIDs {
			if rid == id {
				out = append(out, d.Clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) List(_ context.Context, f documentstore.ListFilter) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Document{}
	for _, d := range r.docs {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Level != "" && d.Level != f.Level {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// memActivities is an in-memory ActivityRepository.
type memActivities struct {
	mu   sync.Mutex
	acts map[string]models.Activity
}

func newMemActivities() *memActivities {
	return &memActivities{acts: map[string]models.Activity{}}
}

func (m *memActivities) Insert(_ context.Context, a models.Activity) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.acts[a.ID]; ok {
		return models.Activity{}, activitystore.ErrDuplicate
	}
	m.acts[a.ID] = a
	return a, nil
}

func (m *memActivities) Get(_ context.Context, docID, id string) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.acts[id]
	if !ok || a.DocumentID != docID {
		return models.Activity{}, activitystore.ErrNotFound
	}
	return a, nil
}

func (m *memActivities) ListByDocument(_ context.Context, docID string) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Activity{}
	for _, a := range m.acts {
		if a.DocumentID == docID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memActivities) Replace(_ context.Context, a models.Activity) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.acts[a.ID]
	if !ok || cur.DocumentID != a.DocumentID {
		return models.Activity{}, activitystore.ErrNotFound
	}
	m.acts[a.ID] = a
	return a, nil
}

func (m *memActivities) Delete(_ context.Context, docID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.acts[id]
	if !ok || a.DocumentID != docID {
		return activitystore.ErrNotFound
	}
	delete(m.acts, id)
	return nil
}

func (m *memActivities) DeleteByDocument(_ context.Context, docID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.acts {
		if a.DocumentID == docID {
			delete(m.acts, id)
			n++
		}
	}
	return n, nil
}

func documentstoreFilter(s models.Status) documentstore.ListFilter {
	return documentstore.ListFilter{Status: s}
}
