// internal/domain/models/status.go
package models

import (
	"fmt"
	"strings"
)

// Status is the workflow stage of an ajuan.
//
// Values are stored verbatim in MongoDB and sent verbatim over the API.
// Unknown values are rejected by UnmarshalText, so a Status decoded from
// JSON is always one of Statuses.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusPengajuanDokumen   Status = "PENGAJUAN_DOKUMEN"
	StatusVerifikasiFakultas Status = "VERIFIKASI_FAKULTAS"
	StatusReviewDKG          Status = "REVIEW_DKG"
	StatusReviewDKGE         Status = "REVIEW_DKGE"
	StatusReviewWR           Status = "REVIEW_WR"
	StatusReviewBLK          Status = "REVIEW_BLK"
	StatusRevisi             Status = "REVISI"
	StatusSelesai            Status = "SELESAI"
)

// Statuses is the closed set of workflow stages in display order.
var Statuses = []Status{
	StatusDraft,
	StatusPengajuanDokumen,
	StatusVerifikasiFakultas,
	StatusReviewDKG,
	StatusReviewDKGE,
	StatusReviewWR,
	StatusReviewBLK,
	StatusRevisi,
	StatusSelesai,
}

var statusLabels = map[Status]string{
	StatusDraft:              "Draft",
	StatusPengajuanDokumen:   "Pengajuan Dokumen",
	StatusVerifikasiFakultas: "Verifikasi Fakultas",
	StatusReviewDKG:          "Review DKG",
	StatusReviewDKGE:         "Review DKGE",
	StatusReviewWR:           "Review WR",
	StatusReviewBLK:          "Review BLK",
	StatusRevisi:             "Revisi",
	StatusSelesai:            "Selesai",
}

// Valid reports whether s is one of the nine workflow stages.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether no further workflow action can move s.
func (s Status) Terminal() bool { return s == StatusSelesai }

// Label is the human-facing name shown in the dashboard.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts a stage name in any letter case.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Role identifies the acting party. Reviewer roles own exactly one review
// stage; proposer roles may originate documents.
type Role string

const (
	RoleLembagaKerjaSama Role = "LEMBAGA_KERJA_SAMA"
	RoleFakultas         Role = "FAKULTAS"
	RoleProdi            Role = "PRODI"
	RoleOrangLuar        Role = "ORANG_LUAR"
	RoleWR               Role = "WR"
	RoleDKG              Role = "DKG"
	RoleDKGE             Role = "DKGE"
	RoleBLK              Role = "BLK"
)

// Roles is the closed set of roles.
var Roles = []Role{
	RoleLembagaKerjaSama,
	RoleFakultas,
	RoleProdi,
	RoleOrangLuar,
	RoleWR,
	RoleDKG,
	RoleDKGE,
	RoleBLK,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

// CanPropose reports whether r may originate (create and submit) an ajuan.
func (r Role) CanPropose() bool {
	switch r {
	case RoleLembagaKerjaSama, RoleFakultas, RoleProdi, RoleOrangLuar:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts a role in any letter case, which matches how the
// identity provider reports backend roles (e.g. "fakultas").
func ParseRole(v string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(v)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", v)
	}
	return r, nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Action is a user-facing workflow operation.
type Action string

const (
	ActionSubmit          Action = "submit"
	ActionEdit            Action = "edit"
	ActionApprove         Action = "approve"
	ActionRequestRevision Action = "request_revision"
	ActionResubmit        Action = "resubmit"
	ActionDelete          Action = "delete"
	ActionArchive         Action = "archive"

	// ActionCreate labels errors and audit rows for a new document. It is
	// not a per-document action, so it never appears in Actions.
	ActionCreate Action = "create"

	// ActionLogActivity labels changes to a completed agreement's activity
	// log. It is not a workflow action and never appears in Actions.
	ActionLogActivity Action = "log_activity"
)

// Actions is the canonical action order used whenever a set of actions is
// rendered as a list.
var Actions = []Action{
	ActionSubmit,
	ActionEdit,
	ActionApprove,
	ActionRequestRevision,
	ActionResubmit,
	ActionDelete,
	ActionArchive,
}

func (a Action) Valid() bool {
	if a == ActionCreate || a == ActionLogActivity {
		return true
	}
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}

func (a Action) String() string { return string(a) }

func ParseAction(v string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(v)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", v)
	}
	return a, nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Level is the document category. It is orthogonal to Status.
type Level string

const (
	LevelMOU Level = "MOU"
	LevelMOA Level = "MOA"
	LevelIA  Level = "IA"
)

var Levels = []Level{LevelMOU, LevelMOA, LevelIA}

func (l Level) Valid() bool {
	return l == LevelMOU || l == LevelMOA || l == LevelIA
}

func (l Level) String() string { return string(l) }

func ParseLevel(v string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(v)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", v)
	}
	return l, nil
}

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ReviewAction is the outcome recorded in a review log entry.
type ReviewAction string

const (
	ReviewApprove         ReviewAction = "APPROVE"
	ReviewRequestRevision ReviewAction = "REQUEST_REVISION"
)

func (a ReviewAction) Valid() bool {
	return a == ReviewApprove || a == ReviewRequestRevision
}

func (a *ReviewAction) UnmarshalText(b []byte) error {
	v := ReviewAction(strings.ToUpper(strings.TrimSpace(string(b))))
	if !v.Valid() {
		return fmt.Errorf("unknown review action %q", string(b))
	}
	*a = v
	return nil
}
