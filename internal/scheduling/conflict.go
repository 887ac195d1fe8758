package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// ReasonCode classifies why a candidate slot is not bookable.
type ReasonCode string

const (
	ReasonNonWorkDay          ReasonCode = "non_work_day"
	ReasonOutsideWorkingHours ReasonCode = "outside_working_hours"
	ReasonInBreak             ReasonCode = "in_break"
	ReasonPast                ReasonCode = "past"
	ReasonConflict            ReasonCode = "conflict"
)

// Verdict is the outcome of validating one candidate appointment.
// ConflictID is set only for ReasonConflict.
type Verdict struct {
	Valid      bool       `json:"valid"`
	Reason     ReasonCode `json:"reason,omitempty"`
	ConflictID uuid.UUID  `json:"conflict_id,omitempty"`
}

func valid() Verdict {
	return Verdict{Valid: true}
}

func rejected(reason ReasonCode) Verdict {
	return Verdict{Reason: reason}
}

func (v Verdict) String() string {
	if v.Valid {
		return "valid"
	}
	if v.Reason == ReasonConflict {
		return fmt.Sprintf("%s with %s", v.Reason, v.ConflictID)
	}
	return string(v.Reason)
}

// Overlaps tests a candidate interval against an existing appointment
// using half-open comparison: a candidate starting exactly when an
// appointment ends does not conflict.
func Overlaps(start time.Time, duration time.Duration, appt *model.Appointment) bool {
	end := start.Add(duration)
	return start.Before(appt.EndTime()) && end.After(appt.StartTime)
}

// Validate checks a candidate appointment against the schedule and a
// snapshot of existing appointments. Checks run in order: inactive day,
// containment in a free sub-interval of the work window, then overlap
// with any non-cancelled appointment other than excludeID (set when
// re-validating an edit). Pure and total: the same inputs always
// produce the same verdict, so it is safe to re-run at commit time.
func Validate(start time.Time, duration time.Duration, cfg model.ScheduleConfig, snapshot []*model.Appointment, excludeID *uuid.UUID) Verdict {
	day := cfg.Day(start.Weekday())
	if !day.Active {
		return rejected(ReasonNonWorkDay)
	}

	end := start.Add(duration)
	contained := false
	for _, iv := range freeIntervals(start, day) {
		if iv.contains(start, end) {
			contained = true
			break
		}
	}
	if !contained {
		for _, br := range day.Breaks {
			if start.Before(br.End.At(start)) && end.After(br.Start.At(start)) {
				return rejected(ReasonInBreak)
			}
		}
		return rejected(ReasonOutsideWorkingHours)
	}

	for _, appt := range snapshot {
		if !appt.Blocks() {
			continue
		}
		if excludeID != nil && appt.ID == *excludeID {
			continue
		}
		if Overlaps(start, duration, appt) {
			return Verdict{Reason: ReasonConflict, ConflictID: appt.ID}
		}
	}
	return valid()
}
