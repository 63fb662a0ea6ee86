package plan

import (
	"fmt"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
)

// ApplyStatus moves item to status to. It reports whether anything changed;
// setting the current status again is a no-op.
func ApplyStatus(item *models.PlanItem, to models.PlanItemStatus, now time.Time) (bool, error) {
	if err := item.Status.CanTransition(to); err != nil {
		return false, err
	}
	if item.Status == to {
		return false, nil
	}
	item.Status = to
	item.UpdatedAt = now
	return true, nil
}

// ApplyFindingStatus sets a user-chosen status on a finding.
func ApplyFindingStatus(f *models.Finding, to models.FindingStatus, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown finding status %q", models.ErrInvalidTransition, to)
	}
	if f.Status == to {
		return false, nil
	}
	f.Status = to
	f.UpdatedAt = now
	return true, nil
}
