// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/app/system/paging"
	"github.com/dalemusser/kerjasama/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type page struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Size   int           `json:"size"`
	paging.Range
}

// ServeList handles GET /audit with optional filters:
// document, actor, category, event_type, start_date, end_date (YYYY-MM-DD),
// page and size.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg := paging.Parse(r)

	filter := audit.QueryFilter{
		DocumentID: strings.TrimSpace(q.Get("document")),
		ActorID:    strings.TrimSpace(q.Get("actor")),
		Category:   strings.TrimSpace(q.Get("category")),
		EventType:  strings.TrimSpace(q.Get("event_type")),
		Limit:      pg.Limit(),
		Offset:     pg.Offset(),
	}
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			jsonresp.Error(w, http.StatusBadRequest, jsonresp.CodeBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit count failed", zap.Error(err))
		jsonresp.Error(w, http.StatusInternalServerError, jsonresp.CodeInternal, "internal error")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	jsonresp.OK(w, "", page{
		Events: events,
		Total:  total,
		Page:   pg.Number,
		Size:   pg.Size,
		Range:  pg.ComputeRange(len(events), total),
	})
}
