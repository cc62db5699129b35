// internal/app/workflow/details.go
package workflow

import (
	"strings"
	"time"

	"github.com/dalemusser/kerjasama/internal/domain/models"
)

const dateLayout = "2006-01-02"

// cleanDetails trims and sanitizes the free-text fields and checks the few
// descriptive rules the workflow depends on.
func (e *Engine) cleanDetails(a models.Action, d models.Details) (models.Details, error) {
	clean := func(s string) string { return strings.TrimSpace(e.sanitize(s)) }

	d.Title = clean(d.Title)
	d.DocumentNumber = strings.TrimSpace(d.DocumentNumber)
	d.Partner = clean(d.Partner)
	d.PartnerType = strings.TrimSpace(d.PartnerType)
	d.StatusNote = clean(d.StatusNote)
	d.UnitID = strings.TrimSpace(d.UnitID)
	d.Country = strings.TrimSpace(d.Country)
	d.PartnerInfo.ContactName = clean(d.PartnerInfo.ContactName)
	d.PartnerInfo.ContactTitle = clean(d.PartnerInfo.ContactTitle)

	scope := make([]string, 0, len(d.Scope))
	for _, s := range d.Scope {
		if s = clean(s); s != "" {
			scope = append(scope, s)
		}
	}
	d.Scope = scope

	if d.Title == "" {
		return d, validation(a, "title", "title is required")
	}

	var start, end time.Time
	var err error
	for _, f := range []struct {
		name string
		v    *string
		t    *time.Time
	}{
		{"entryDate", &d.EntryDate, nil},
		{"startDate", &d.StartDate, &start},
		{"endDate", &d.EndDate, &end},
	} {
		*f.v = strings.TrimSpace(*f.v)
		if *f.v == "" {
			continue
		}
		var t time.Time
		if t, err = time.Parse(dateLayout, *f.v); err != nil {
			return d, validation(a, f.name, f.name+" must be a YYYY-MM-DD date")
		}
		if f.t != nil {
			*f.t = t
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return d, validation(a, "endDate", "endDate must not be before startDate")
	}
	if d.DurationYears < 0 {
		return d, validation(a, "durationYears", "durationYears must not be negative")
	}

	for _, l := range []struct {
		name string
		v    *string
	}{
		{"documents.suratPermohonanUrl", &d.Documents.SuratPermohonanURL},
		{"documents.proposalUrl", &d.Documents.ProposalURL},
		{"documents.draftAjuanUrl", &d.Documents.DraftAjuanURL},
		{"documents.finalUrl", &d.Documents.FinalURL},
	} {
		*l.v = strings.TrimSpace(*l.v)
		if !validAttachment(*l.v) {
			return d, validation(a, l.name, l.name+" must be an http(s) URL or a site path")
		}
	}
	return d, nil
}
