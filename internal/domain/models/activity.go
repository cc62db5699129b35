// internal/domain/models/activity.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Activity is one entry in the activity log of a completed agreement, such
// as a workshop or an exchange visit carried out under it.
type Activity struct {
	ID         string `bson:"_id" json:"id"`
	DocumentID string `bson:"document_id" json:"documentId"`

	Date  string         `bson:"date" json:"date"` // YYYY-MM-DD
	Title string         `bson:"title" json:"title"`
	Notes string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Link  string         `bson:"link,omitempty" json:"link,omitempty"`
	Files []ActivityFile `bson:"files" json:"files"`

	CreatedBy     string    `bson:"created_by" json:"createdBy"`
	CreatedByRole Role      `bson:"created_by_role" json:"createdByRole"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// ActivityFile links an attachment held by the external file store.
type ActivityFile struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

// Validity tells whether a completed agreement is still in force.
type Validity string

const (
	ValidityActive   Validity = "ACTIVE"
	ValidityExpiring Validity = "EXPIRING"
	ValidityExpired  Validity = "EXPIRED"
)

var Validities = []Validity{ValidityActive, ValidityExpiring, ValidityExpired}

func (v Validity) Valid() bool {
	for _, x := range Validities {
		if x == v {
			return true
		}
	}
	return false
}

// ParseValidity accepts any letter case.
func ParseValidity(v string) (Validity, error) {
	x := Validity(strings.ToUpper(strings.TrimSpace(v)))
	if !x.Valid() {
		return "", fmt.Errorf("unknown validity %q", v)
	}
	return x, nil
}

// ValidityAt classifies an agreement ending on endDate (YYYY-MM-DD) as of
// now. It is EXPIRED once endDate has passed and EXPIRING when endDate is at
// most window away. An empty or malformed endDate is open-ended and ACTIVE.
// Dates compare as whole UTC days.
func ValidityAt(endDate string, now time.Time, window time.Duration) Validity {
	end, err := time.Parse("2006-01-02", strings.TrimSpace(endDate))
	if err != nil {
		return ValidityActive
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case end.Before(today):
		return ValidityExpired
	case !end.After(today.Add(window)):
		return ValidityExpiring
	}
	return ValidityActive
}
