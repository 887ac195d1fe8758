package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func appointmentAt(start time.Time, durationMinutes int, status model.AppointmentStatus) *model.Appointment {
	appt := &model.Appointment{
		StartTime:       start,
		DurationMinutes: durationMinutes,
		Status:          status,
		Kind:            model.AppointmentKindSession,
	}
	appt.ID = uuid.New()
	return appt
}

func TestOverlaps(t *testing.T) {
	existing := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusScheduled)

	tests := []struct {
		name     string
		start    time.Time
		duration time.Duration
		want     bool
	}{
		{"identical interval", at(monday, 10, 0), 50 * time.Minute, true},
		{"candidate inside existing", at(monday, 10, 10), 20 * time.Minute, true},
		{"existing inside candidate", at(monday, 9, 30), 2 * time.Hour, true},
		{"partial overlap at start", at(monday, 9, 30), 50 * time.Minute, true},
		{"partial overlap at end", at(monday, 10, 30), 50 * time.Minute, true},
		{"touching boundary after", at(monday, 10, 50), 50 * time.Minute, false},
		{"touching boundary before", at(monday, 9, 10), 50 * time.Minute, false},
		{"clearly apart", at(monday, 14, 0), 50 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.start, tt.duration, existing))
		})
	}
}

func TestValidate_ReasonOrdering(t *testing.T) {
	cfg := clinicConfig(
		clinicDay(model.BreakInterval{Start: model.NewTimeOfDay(12, 0), End: model.NewTimeOfDay(13, 0)}),
		model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10},
	)
	duration := 50 * time.Minute

	sunday := monday.AddDate(0, 0, -1)

	tests := []struct {
		name   string
		start  time.Time
		reason ReasonCode
	}{
		{"inactive day", at(sunday, 10, 0), ReasonNonWorkDay},
		{"before work window", at(monday, 6, 0), ReasonOutsideWorkingHours},
		{"crosses work end", at(monday, 18, 30), ReasonOutsideWorkingHours},
		{"inside break", at(monday, 12, 10), ReasonInBreak},
		{"crosses into break", at(monday, 11, 30), ReasonInBreak},
		{"crosses out of break", at(monday, 12, 30), ReasonInBreak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Validate(tt.start, duration, cfg, nil, nil)
			assert.False(t, verdict.Valid)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}

	verdict := Validate(at(monday, 10, 0), duration, cfg, nil, nil)
	assert.True(t, verdict.Valid)
}

func TestValidate_Conflict(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})
	existing := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusScheduled)
	snapshot := []*model.Appointment{existing}

	verdict := Validate(at(monday, 10, 30), 50*time.Minute, cfg, snapshot, nil)
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonConflict, verdict.Reason)
	assert.Equal(t, existing.ID, verdict.ConflictID)

	// Boundary-touching candidate does not conflict.
	verdict = Validate(at(monday, 10, 50), 50*time.Minute, cfg, snapshot, nil)
	assert.True(t, verdict.Valid)
}

func TestValidate_SelfConflictAndExclude(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})
	existing := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusConfirmed)
	snapshot := []*model.Appointment{existing}

	// A persisted appointment conflicts with itself...
	verdict := Validate(existing.StartTime, existing.Duration(), cfg, snapshot, nil)
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonConflict, verdict.Reason)
	assert.Equal(t, existing.ID, verdict.ConflictID)

	// ...unless excluded, as when re-validating an edit.
	verdict = Validate(existing.StartTime, existing.Duration(), cfg, snapshot, &existing.ID)
	assert.True(t, verdict.Valid)
}

func TestValidate_CancelledAppointmentsNeverBlock(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})
	cancelled := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusCancelled)

	verdict := Validate(at(monday, 10, 0), 50*time.Minute, cfg, []*model.Appointment{cancelled}, nil)
	assert.True(t, verdict.Valid)
}

func TestValidate_BlockedAndPersonalKindsBlock(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})

	blocked := appointmentAt(at(monday, 9, 0), 60, model.AppointmentStatusScheduled)
	blocked.Kind = model.AppointmentKindBlocked
	personal := appointmentAt(at(monday, 14, 0), 60, model.AppointmentStatusScheduled)
	personal.Kind = model.AppointmentKindPersonal
	snapshot := []*model.Appointment{blocked, personal}

	verdict := Validate(at(monday, 9, 30), 50*time.Minute, cfg, snapshot, nil)
	assert.Equal(t, ReasonConflict, verdict.Reason)

	verdict = Validate(at(monday, 14, 30), 50*time.Minute, cfg, snapshot, nil)
	assert.Equal(t, ReasonConflict, verdict.Reason)
}
