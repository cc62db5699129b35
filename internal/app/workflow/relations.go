// internal/app/workflow/relations.go
package workflow

import (
	"strings"

	"github.com/dalemusser/kerjasama/internal/domain/models"
)

// RelationMode selects how unusable related ids are handled.
type RelationMode string

const (
	// RelationStrict rejects the whole request on the first unusable id.
	RelationStrict RelationMode = "strict"
	// RelationFilter drops unusable ids and reports them as warnings.
	RelationFilter RelationMode = "filter"
)

func ParseRelationMode(v string) (RelationMode, bool) {
	switch m := RelationMode(strings.ToLower(strings.TrimSpace(v))); m {
	case RelationStrict, RelationFilter:
		return m, true
	case "":
		return RelationStrict, true
	}
	return "", false
}

// RelationPolicy governs the relatedIds a document may declare. Relations are
// one-directional; a reverse lookup is the caller's job.
type RelationPolicy struct {
	Mode              RelationMode
	DisallowSameLevel bool
}

// DefaultRelationPolicy mirrors the dashboard: MOU links to MOA/IA and so on,
// never to a document of its own level.
var DefaultRelationPolicy = RelationPolicy{Mode: RelationStrict, DisallowSameLevel: true}

// RelationWarning explains why a requested id was dropped in filter mode.
type RelationWarning struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

const (
	reasonNotFound  = "not_found"
	reasonSelf      = "self_reference"
	reasonSameLevel = "same_level"
)

// Resolve validates requested against known, the levels of the referenced
// documents that currently exist. Blank and duplicate ids are ignored. The
// returned slice is never nil.
func (p RelationPolicy) Resolve(a models.Action, selfID string, selfLevel models.Level, requested []string, known map[string]models.Level) ([]string, []RelationWarning, error) {
	out := make([]string, 0, len(requested))
	var warns []RelationWarning
	seen := make(map[string]bool, len(requested))

	for _, raw := range requested {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		reason := ""
		lvl, ok := known[id]
		switch {
		case id == selfID:
			reason = reasonSelf
		case !ok:
			reason = reasonNotFound
		case p.DisallowSameLevel && lvl == selfLevel:
			reason = reasonSameLevel
		}
		if reason == "" {
			out = append(out, id)
			continue
		}

		if p.Mode == RelationFilter {
			warns = append(warns, RelationWarning{ID: id, Reason: reason})
			continue
		}
		switch reason {
		case reasonNotFound:
			return nil, nil, NotFound("related document %s not found", id)
		case reasonSelf:
			return nil, nil, validation(a, "relatedIds", "a document cannot be related to itself")
		default:
			return nil, nil, validation(a, "relatedIds", "related document "+id+" has the same level ("+string(lvl)+")")
		}
	}
	return out, warns, nil
}
