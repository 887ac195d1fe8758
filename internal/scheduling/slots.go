// Package scheduling holds the pure appointment availability logic:
// slot generation from a weekly schedule, conflict validation against a
// snapshot of existing appointments, per-date availability views, and
// recurring series expansion. Every function is deterministic given its
// inputs; "now" and appointment snapshots are always explicit arguments
// and nothing here touches a repository or a clock.
package scheduling

import (
	"time"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// interval is a half-open [start, end) span anchored to concrete times
// on a single day.
type interval struct {
	start time.Time
	end   time.Time
}

func (iv interval) contains(start, end time.Time) bool {
	return !start.Before(iv.start) && !end.After(iv.end)
}

// freeIntervals subtracts the day's breaks from its work window. Breaks
// are validated at config time to be sorted and non-overlapping, so a
// single forward pass suffices. Degenerate results (a break spanning
// the whole window) yield an empty list.
func freeIntervals(date time.Time, day model.DaySchedule) []interval {
	if !day.Active {
		return nil
	}
	var free []interval
	cursor := day.WorkStart.At(date)
	end := day.WorkEnd.At(date)
	for _, br := range day.Breaks {
		brStart := br.Start.At(date)
		if brStart.After(cursor) {
			free = append(free, interval{start: cursor, end: brStart})
		}
		brEnd := br.End.At(date)
		if brEnd.After(cursor) {
			cursor = brEnd
		}
	}
	if cursor.Before(end) {
		free = append(free, interval{start: cursor, end: end})
	}
	return free
}

// GenerateSlots computes the ordered candidate session start times for
// a date. It walks each free sub-interval of the day's work window in
// steps of session duration plus interval, emitting a start whenever a
// full session still fits before the sub-interval ends. The result is
// independent of "now" and of existing bookings; AvailabilityEngine
// composes those in.
func GenerateSlots(date time.Time, cfg model.ScheduleConfig) []time.Time {
	day := cfg.Day(date.Weekday())
	if !day.Active {
		return nil
	}
	duration := cfg.Policy.Duration()
	step := cfg.Policy.Step()

	var slots []time.Time
	for _, iv := range freeIntervals(date, day) {
		for t := iv.start; !t.Add(duration).After(iv.end); t = t.Add(step) {
			slots = append(slots, t)
		}
	}
	return slots
}
