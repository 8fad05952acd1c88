package lifecycle

import (
	"context"
	"fmt"
	"time"

	"postforge/internal/models"
)

// ScheduledCounter is the slice of the record store the admission check
// needs: how many ideas are already Scheduled for a platform on the UTC
// calendar day containing the given instant.
type ScheduledCounter interface {
	CountScheduled(ctx context.Context, platform models.Platform, at time.Time) (int64, error)
}

// AdmissionController enforces the per-platform daily posting cap before a
// schedule transition commits. It only reads; the commit (the store write
// that flips the idea to Scheduled) belongs to the caller. Keeping check
// and commit as two phases means the count can be overrun by concurrent
// schedule requests for the same platform/day. Accepted race: the store
// offers no compare-and-swap over a count.
type AdmissionController struct {
	store ScheduledCounter
}

// NewAdmissionController creates an admission controller over the given store
func NewAdmissionController(store ScheduledCounter) *AdmissionController {
	return &AdmissionController{store: store}
}

// DayKey truncates an instant to its UTC calendar day
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Check runs the admission algorithm for a candidate schedule time against
// the requested platform set. The cap comes from the requesting idea's own
// frequencyPerDay (default 1), not from a global config, so two ideas with
// different limits can disagree about the cap for the same platform/day.
// Admission is all-or-nothing: the first platform at or over quota rejects
// the whole request with a QuotaExceededError naming that platform and day.
func (a *AdmissionController) Check(ctx context.Context, idea *models.Idea, scheduledAt time.Time, platforms []models.Platform) error {
	limit := int64(idea.EffectiveFrequencyPerDay())

	for _, platform := range platforms {
		count, err := a.store.CountScheduled(ctx, platform, scheduledAt)
		if err != nil {
			return fmt.Errorf("failed to count scheduled ideas for %s: %w", platform, err)
		}
		if count >= limit {
			return &QuotaExceededError{Platform: platform, Day: DayKey(scheduledAt)}
		}
	}

	return nil
}
