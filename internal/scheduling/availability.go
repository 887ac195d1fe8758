package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// ComputeAvailability annotates every candidate slot for a date with
// its availability at "now" against the given snapshot. Slots starting
// before now are marked past without consulting the validator. The
// result is ordered by time and idempotent for a fixed snapshot and
// now; both the generator and the validator use the same policy
// duration, so no available slot can intersect a break or extend past
// the work window.
func ComputeAvailability(date time.Time, cfg model.ScheduleConfig, snapshot []*model.Appointment, now time.Time, excludeID *uuid.UUID) []model.SlotStatus {
	duration := cfg.Policy.Duration()
	candidates := GenerateSlots(date, cfg)

	statuses := make([]model.SlotStatus, 0, len(candidates))
	for _, slot := range candidates {
		if slot.Before(now) {
			statuses = append(statuses, model.SlotStatus{Time: slot, Reason: string(ReasonPast)})
			continue
		}
		verdict := Validate(slot, duration, cfg, snapshot, excludeID)
		status := model.SlotStatus{Time: slot, Available: verdict.Valid}
		if !verdict.Valid {
			status.Reason = string(verdict.Reason)
		}
		statuses = append(statuses, status)
	}
	return statuses
}
