package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

func TestComputeAvailability_MarksPastSlots(t *testing.T) {
	cfg := clinicConfig(
		clinicDay(model.BreakInterval{Start: model.NewTimeOfDay(12, 0), End: model.NewTimeOfDay(13, 0)}),
		model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10},
	)
	now := at(monday, 10, 30)

	statuses := ComputeAvailability(monday, cfg, nil, now, nil)
	require.NotEmpty(t, statuses)

	for _, st := range statuses {
		if st.Time.Before(now) {
			assert.False(t, st.Available)
			assert.Equal(t, string(ReasonPast), st.Reason)
		} else {
			assert.True(t, st.Available, "slot %s should be available", st.Time)
		}
	}
}

func TestComputeAvailability_ConflictedSlotCarriesReason(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})
	existing := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusScheduled)
	now := at(monday, 0, 0)

	statuses := ComputeAvailability(monday, cfg, []*model.Appointment{existing}, now, nil)

	var found bool
	for _, st := range statuses {
		if st.Time.Equal(existing.StartTime) {
			found = true
			assert.False(t, st.Available)
			assert.Equal(t, string(ReasonConflict), st.Reason)
		}
	}
	assert.True(t, found)
}

func TestComputeAvailability_ExcludeIDFreesOwnSlot(t *testing.T) {
	cfg := clinicConfig(clinicDay(), model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})
	existing := appointmentAt(at(monday, 10, 0), 50, model.AppointmentStatusScheduled)
	now := at(monday, 0, 0)

	statuses := ComputeAvailability(monday, cfg, []*model.Appointment{existing}, now, &existing.ID)
	for _, st := range statuses {
		if st.Time.Equal(existing.StartTime) {
			assert.True(t, st.Available)
		}
	}
}

func TestComputeAvailability_IdempotentAndOrdered(t *testing.T) {
	cfg := clinicConfig(
		clinicDay(model.BreakInterval{Start: model.NewTimeOfDay(12, 0), End: model.NewTimeOfDay(13, 0)}),
		model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10},
	)
	snapshot := []*model.Appointment{
		appointmentAt(at(monday, 8, 0), 50, model.AppointmentStatusScheduled),
		appointmentAt(at(monday, 14, 0), 50, model.AppointmentStatusConfirmed),
	}
	now := at(monday, 9, 30)

	first := ComputeAvailability(monday, cfg, snapshot, now, nil)
	second := ComputeAvailability(monday, cfg, snapshot, now, nil)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.True(t, first[i].Time.After(first[i-1].Time))
	}
}

func TestComputeAvailability_EmptyForInactiveDay(t *testing.T) {
	day := clinicDay()
	day.Active = false
	cfg := clinicConfig(day, model.SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10})

	assert.Empty(t, ComputeAvailability(monday, cfg, nil, at(monday, 0, 0), nil))
}
