package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

// Expand produces the candidate occurrence start times of a recurring
// series. Occurrence i is the base advanced by i weeks (weekly), 2i
// weeks (biweekly) or i calendar months (monthly), preserving local
// time of day. Monthly advancement from a day-of-month that does not
// exist in the target month clamps to the month's last day; the clamp
// is recomputed from the base day each step, so a series started on the
// 31st lands on Apr 30 and back on May 31 rather than drifting.
func Expand(base time.Time, freq model.Frequency, count int) []time.Time {
	if count < 1 {
		return nil
	}
	occurrences := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		switch freq {
		case model.FrequencyWeekly:
			occurrences = append(occurrences, base.AddDate(0, 0, 7*i))
		case model.FrequencyBiweekly:
			occurrences = append(occurrences, base.AddDate(0, 0, 14*i))
		case model.FrequencyMonthly:
			occurrences = append(occurrences, addMonthsClamped(base, i))
		default:
			return nil
		}
	}
	return occurrences
}

func addMonthsClamped(base time.Time, months int) time.Time {
	year, month, day := base.Date()
	// Normalized via day 1 so an oversized day never rolls the month.
	anchor := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, base.Location())
	if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	hour, minute, sec := base.Clock()
	return time.Date(anchor.Year(), anchor.Month(), day, hour, minute, sec, base.Nanosecond(), base.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SeriesError reports the first occurrence of a series that failed
// validation. The whole series is rejected; nothing may be persisted
// before ValidateSeries succeeds.
type SeriesError struct {
	Index   int     `json:"index"`
	Verdict Verdict `json:"verdict"`
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("occurrence %d invalid: %s", e.Index, e.Verdict)
}

// ValidateSeries validates every occurrence against the schedule and
// the snapshot, all-or-nothing. Each occurrence that passes is
// provisionally added to the working snapshot before the next is
// checked, so a series whose own occurrences would overlap (possible
// only through month-end clamping) is rejected too.
func ValidateSeries(occurrences []time.Time, duration time.Duration, cfg model.ScheduleConfig, snapshot []*model.Appointment) *SeriesError {
	working := make([]*model.Appointment, len(snapshot), len(snapshot)+len(occurrences))
	copy(working, snapshot)

	for i, start := range occurrences {
		verdict := Validate(start, duration, cfg, working, nil)
		if !verdict.Valid {
			return &SeriesError{Index: i, Verdict: verdict}
		}
		placeholder := &model.Appointment{
			StartTime:       start,
			DurationMinutes: int(duration / time.Minute),
			Status:          model.AppointmentStatusScheduled,
			Kind:            model.AppointmentKindSession,
		}
		placeholder.ID = uuid.New()
		working = append(working, placeholder)
	}
	return nil
}
