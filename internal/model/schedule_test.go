package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: NewTimeOfDay(9, 0)},
		{input: "00:00", want: NewTimeOfDay(0, 0)},
		{input: "23:59", want: NewTimeOfDay(23, 59)},
		{input: "12:30", want: NewTimeOfDay(12, 30)},
		{input: "24:00", wantErr: true},
		{input: "09:60", wantErr: true},
		{input: "-1:00", wantErr: true},
		{input: "0900", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewTimeOfDay(9, 5))
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(data))

	var parsed TimeOfDay
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, NewTimeOfDay(9, 5), parsed)
}

func TestTimeOfDay_At(t *testing.T) {
	date := time.Date(2024, 3, 4, 15, 44, 12, 99, time.UTC)
	got := NewTimeOfDay(9, 30).At(date)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), got)
}

func TestDaySchedule_Validate(t *testing.T) {
	valid := DaySchedule{
		Weekday:   time.Monday,
		Active:    true,
		WorkStart: NewTimeOfDay(9, 0),
		WorkEnd:   NewTimeOfDay(17, 0),
		Breaks: []BreakInterval{
			{Start: NewTimeOfDay(12, 0), End: NewTimeOfDay(13, 0)},
		},
	}
	require.NoError(t, valid.Validate())

	t.Run("inverted work window", func(t *testing.T) {
		d := valid
		d.WorkStart, d.WorkEnd = d.WorkEnd, d.WorkStart
		assert.ErrorIs(t, d.Validate(), ErrInvertedWorkWindow)
	})

	t.Run("zero-length work window", func(t *testing.T) {
		d := valid
		d.WorkEnd = d.WorkStart
		assert.ErrorIs(t, d.Validate(), ErrInvertedWorkWindow)
	})

	t.Run("inverted break", func(t *testing.T) {
		d := valid
		d.Breaks = []BreakInterval{{Start: NewTimeOfDay(13, 0), End: NewTimeOfDay(12, 0)}}
		assert.ErrorIs(t, d.Validate(), ErrInvalidBreakRange)
	})

	t.Run("break outside work window", func(t *testing.T) {
		d := valid
		d.Breaks = []BreakInterval{{Start: NewTimeOfDay(8, 0), End: NewTimeOfDay(9, 30)}}
		assert.ErrorIs(t, d.Validate(), ErrInvalidBreakRange)
	})

	t.Run("overlapping breaks", func(t *testing.T) {
		d := valid
		d.Breaks = []BreakInterval{
			{Start: NewTimeOfDay(12, 0), End: NewTimeOfDay(13, 0)},
			{Start: NewTimeOfDay(12, 30), End: NewTimeOfDay(14, 0)},
		}
		assert.ErrorIs(t, d.Validate(), ErrOverlappingBreaks)
	})

	t.Run("adjacent breaks are fine", func(t *testing.T) {
		d := valid
		d.Breaks = []BreakInterval{
			{Start: NewTimeOfDay(12, 0), End: NewTimeOfDay(13, 0)},
			{Start: NewTimeOfDay(13, 0), End: NewTimeOfDay(13, 30)},
		}
		assert.NoError(t, d.Validate())
	})

	t.Run("inactive day skips checks", func(t *testing.T) {
		d := valid
		d.Active = false
		d.WorkStart, d.WorkEnd = d.WorkEnd, d.WorkStart
		assert.NoError(t, d.Validate())
	})
}

func TestSessionPolicy(t *testing.T) {
	p := SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10}
	require.NoError(t, p.Validate())
	assert.Equal(t, 50*time.Minute, p.Duration())
	assert.Equal(t, 60*time.Minute, p.Step())

	assert.Error(t, SessionPolicy{DurationMinutes: 0}.Validate())
	assert.Error(t, SessionPolicy{DurationMinutes: 30, IntervalMinutes: -5}.Validate())
	assert.NoError(t, SessionPolicy{DurationMinutes: 30}.Validate())
}

func TestDefaultScheduleConfig(t *testing.T) {
	cfg := DefaultScheduleConfig()
	require.NoError(t, cfg.Validate())
	assert.Nil(t, cfg.ClinicID)

	for wd := time.Monday; wd <= time.Friday; wd++ {
		day := cfg.Day(wd)
		assert.True(t, day.Active, wd.String())
		assert.Equal(t, NewTimeOfDay(9, 0), day.WorkStart)
		assert.Equal(t, NewTimeOfDay(17, 0), day.WorkEnd)
		require.Len(t, day.Breaks, 1)
		assert.Equal(t, NewTimeOfDay(12, 0), day.Breaks[0].Start)
		assert.Equal(t, NewTimeOfDay(13, 0), day.Breaks[0].End)
	}
	assert.False(t, cfg.Day(time.Saturday).Active)
	assert.False(t, cfg.Day(time.Sunday).Active)

	assert.Equal(t, 50, cfg.Policy.DurationMinutes)
	assert.Equal(t, 10, cfg.Policy.IntervalMinutes)
}

func TestScheduleConfig_DayMissingWeekday(t *testing.T) {
	cfg := ScheduleConfig{Days: map[time.Weekday]DaySchedule{}}
	day := cfg.Day(time.Wednesday)
	assert.False(t, day.Active)
	assert.Equal(t, time.Wednesday, day.Weekday)
}

func TestRecurrence_Validate(t *testing.T) {
	assert.NoError(t, Recurrence{Frequency: FrequencyWeekly, Count: 1}.Validate())
	assert.NoError(t, Recurrence{Frequency: FrequencyMonthly, Count: 12}.Validate())
	assert.Error(t, Recurrence{Frequency: "daily", Count: 3}.Validate())
	assert.Error(t, Recurrence{Frequency: FrequencyBiweekly, Count: 0}.Validate())
}
