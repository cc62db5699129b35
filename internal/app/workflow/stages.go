// internal/app/workflow/stages.go
package workflow

import "github.com/dalemusser/kerjasama/internal/domain/models"

// reviewSequence is the order in which an ajuan moves through review. The
// stage after the last entry is SELESAI.
var reviewSequence = []models.Status{
	models.StatusPengajuanDokumen,
	models.StatusVerifikasiFakultas,
	models.StatusReviewDKG,
	models.StatusReviewDKGE,
	models.StatusReviewWR,
	models.StatusReviewBLK,
}

// stageOwners maps each review stage to the single role that may approve or
// request revision while the document sits there.
var stageOwners = map[models.Status]models.Role{
	models.StatusPengajuanDokumen:   models.RoleLembagaKerjaSama,
	models.StatusVerifikasiFakultas: models.RoleFakultas,
	models.StatusReviewDKG:          models.RoleDKG,
	models.StatusReviewDKGE:         models.RoleDKGE,
	models.StatusReviewWR:           models.RoleWR,
	models.StatusReviewBLK:          models.RoleBLK,
}

// IsReviewStage reports whether s is part of the review sequence.
func IsReviewStage(s models.Status) bool {
	_, ok := stageOwners[s]
	return ok
}

// StageOwner returns the reviewing role of a review stage.
func StageOwner(s models.Status) (models.Role, bool) {
	r, ok := stageOwners[s]
	return r, ok
}

// ReviewStages returns the review sequence in order.
func ReviewStages() []models.Status {
	out := make([]models.Status, len(reviewSequence))
	copy(out, reviewSequence)
	return out
}

// NextStage returns the stage an approval moves s to.
func NextStage(s models.Status) (models.Status, bool) {
	for i, st := range reviewSequence {
		if st != s {
			continue
		}
		if i == len(reviewSequence)-1 {
			return models.StatusSelesai, true
		}
		return reviewSequence[i+1], true
	}
	return "", false
}
