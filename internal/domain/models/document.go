// internal/domain/models/document.go
package models

import (
	"slices"
	"sort"
	"time"
)

// Document is a cooperation-document proposal (ajuan) and the aggregate root
// of the approval workflow. Workflow fields are only changed by the workflow
// engine; Details may be changed while the document is in DRAFT or REVISI.
type Document struct {
	ID    string `bson:"_id" json:"id"`
	Level Level  `bson:"level" json:"level"`

	Status              Status  `bson:"status" json:"status"`
	ReturnToStatus      *Status `bson:"return_to_status,omitempty" json:"returnToStatus"`
	RevisionRequestedBy *Role   `bson:"revision_requested_by,omitempty" json:"revisionRequestedBy"`
	PengajuRole         *Role   `bson:"pengaju_role,omitempty" json:"pengajuRole"`
	CreatedByRole       Role    `bson:"created_by_role" json:"createdByRole"`

	SubmittedAt   *time.Time `bson:"submitted_at,omitempty" json:"submittedAt"`
	ResubmittedAt *time.Time `bson:"resubmitted_at,omitempty" json:"resubmittedAt"`
	CompletedAt   *time.Time `bson:"completed_at,omitempty" json:"completedAt"`
	ArchivedAt    *time.Time `bson:"archived_at,omitempty" json:"archivedAt"`

	RelatedIDs    []string         `bson:"related_ids" json:"relatedIds"`
	ReviewHistory []ReviewLogEntry `bson:"review_history" json:"reviewHistory"`

	Details `bson:",inline"`

	// Version increments on every write and guards against lost updates.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Details holds the descriptive fields of an ajuan. None of them take part in
// workflow decisions except DeanApproval for PRODI proposals.
type Details struct {
	DocumentNumber     string             `bson:"document_number" json:"documentNumber"`
	Title              string             `bson:"title" json:"title"`
	EntryDate          string             `bson:"entry_date" json:"entryDate"`
	UnitID             string             `bson:"unit_id" json:"unitId"`
	Partner            string             `bson:"partner" json:"partner"`
	PartnerType        string             `bson:"partner_type" json:"partnerType"`
	PartnerInfo        PartnerInfo        `bson:"partner_info" json:"partnerInfo"`
	InstitutionAddress InstitutionAddress `bson:"institution_address" json:"institutionAddress"`
	Country            string             `bson:"country" json:"country"`
	Scope              []string           `bson:"scope" json:"scope"`
	StartDate          string             `bson:"start_date" json:"startDate"`
	EndDate            string             `bson:"end_date" json:"endDate"`
	DurationYears      int                `bson:"duration_years,omitempty" json:"durationYears,omitempty"`
	DeanApproval       bool               `bson:"dean_approval" json:"deanApproval"`
	StatusNote         string             `bson:"status_note,omitempty" json:"statusNote,omitempty"`
	Documents          DocumentLinks      `bson:"documents" json:"documents"`
}

type PartnerInfo struct {
	Phone           string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email           string `bson:"email,omitempty" json:"email,omitempty"`
	ContactName     string `bson:"contact_name,omitempty" json:"contactName,omitempty"`
	ContactTitle    string `bson:"contact_title,omitempty" json:"contactTitle,omitempty"`
	ContactWhatsapp string `bson:"contact_whatsapp,omitempty" json:"contactWhatsapp,omitempty"`
	Website         string `bson:"website,omitempty" json:"website,omitempty"`
}

type InstitutionAddress struct {
	Province string `bson:"province,omitempty" json:"province,omitempty"`
	City     string `bson:"city,omitempty" json:"city,omitempty"`
	Country  string `bson:"country,omitempty" json:"country,omitempty"`
}

// DocumentLinks are links to files held by the external file store.
type DocumentLinks struct {
	SuratPermohonanURL string `bson:"surat_permohonan_url,omitempty" json:"suratPermohonanUrl,omitempty"`
	ProposalURL        string `bson:"proposal_url,omitempty" json:"proposalUrl,omitempty"`
	DraftAjuanURL      string `bson:"draft_ajuan_url,omitempty" json:"draftAjuanUrl,omitempty"`
	FinalURL           string `bson:"final_url,omitempty" json:"finalUrl,omitempty"`
}

// ReviewLogEntry is one immutable review event. Entries are created only by
// the workflow engine.
type ReviewLogEntry struct {
	StageStatus   Status       `bson:"stage_status" json:"stageStatus"`
	Action        ReviewAction `bson:"action" json:"action"`
	Note          string       `bson:"note,omitempty" json:"note,omitempty"`
	AttachmentURL string       `bson:"attachment_url,omitempty" json:"attachmentUrl,omitempty"`
	ActorRole     Role         `bson:"actor_role" json:"actorRole"`
	CreatedAt     time.Time    `bson:"created_at" json:"createdAt"`
}

// Editable reports whether descriptive fields may change in the current stage.
func (d Document) Editable() bool {
	return d.Status == StatusDraft || d.Status == StatusRevisi
}

// Owner is the role that may edit, submit and resubmit the document.
func (d Document) Owner() Role {
	if d.PengajuRole != nil {
		return *d.PengajuRole
	}
	return d.CreatedByRole
}

// Clone returns a copy that shares no slices or pointers with d.
func (d Document) Clone() Document {
	c := d
	c.RelatedIDs = slices.Clone(d.RelatedIDs)
	c.ReviewHistory = slices.Clone(d.ReviewHistory)
	c.Scope = slices.Clone(d.Scope)
	c.ReturnToStatus = clonePtr(d.ReturnToStatus)
	c.RevisionRequestedBy = clonePtr(d.RevisionRequestedBy)
	c.PengajuRole = clonePtr(d.PengajuRole)
	c.SubmittedAt = clonePtr(d.SubmittedAt)
	c.ResubmittedAt = clonePtr(d.ResubmittedAt)
	c.CompletedAt = clonePtr(d.CompletedAt)
	c.ArchivedAt = clonePtr(d.ArchivedAt)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// LatestReviews returns the last n entries of history ordered by CreatedAt
// ascending. Entries with equal timestamps keep their insertion order.
// n <= 0 returns the whole ordered history.
func LatestReviews(history []ReviewLogEntry, n int) []ReviewLogEntry {
	out := slices.Clone(history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
