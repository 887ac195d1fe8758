package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a clock time within a day, stored as minutes from midnight.
// It marshals as "HH:MM", the format schedules are edited in.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// At anchors the clock time onto a calendar date in the date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", t.String())), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BreakInterval is a sub-interval of a work window during which no
// sessions may be booked.
type BreakInterval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	Label string    `json:"label,omitempty"`
}

// DaySchedule is the work window and breaks configured for one weekday.
type DaySchedule struct {
	Weekday   time.Weekday    `json:"day_of_week"`
	Active    bool            `json:"is_active"`
	WorkStart TimeOfDay       `json:"work_start"`
	WorkEnd   TimeOfDay       `json:"work_end"`
	Breaks    []BreakInterval `json:"breaks,omitempty"`
}

// Validate enforces the config-time invariants: a non-inverted work
// window, every break inside the window, and sorted, non-overlapping
// breaks. Inactive days are not checked; their window is ignored.
func (d DaySchedule) Validate() error {
	if !d.Active {
		return nil
	}
	if d.WorkStart >= d.WorkEnd {
		return fmt.Errorf("%w: %s work window %s-%s", ErrInvertedWorkWindow, d.Weekday, d.WorkStart, d.WorkEnd)
	}
	var prevEnd TimeOfDay
	for i, br := range d.Breaks {
		if br.Start >= br.End {
			return fmt.Errorf("%w: %s break %s-%s", ErrInvalidBreakRange, d.Weekday, br.Start, br.End)
		}
		if br.Start < d.WorkStart || br.End > d.WorkEnd {
			return fmt.Errorf("%w: %s break %s-%s outside work window", ErrInvalidBreakRange, d.Weekday, br.Start, br.End)
		}
		if i > 0 && br.Start < prevEnd {
			return fmt.Errorf("%w: %s break %s-%s", ErrOverlappingBreaks, d.Weekday, br.Start, br.End)
		}
		prevEnd = br.End
	}
	return nil
}

// SessionPolicy controls how candidate slots are laid out within the
// free parts of a work window.
type SessionPolicy struct {
	DurationMinutes int `json:"duration_minutes" validate:"required,gt=0"`
	IntervalMinutes int `json:"interval_minutes" validate:"gte=0"`
}

func (p SessionPolicy) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

// Step is the distance between consecutive candidate slot starts.
func (p SessionPolicy) Step() time.Duration {
	return time.Duration(p.DurationMinutes+p.IntervalMinutes) * time.Minute
}

func (p SessionPolicy) Validate() error {
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("session duration must be positive, got %d", p.DurationMinutes)
	}
	if p.IntervalMinutes < 0 {
		return fmt.Errorf("session interval must not be negative, got %d", p.IntervalMinutes)
	}
	return nil
}

// ScheduleConfig is the weekly bookable schedule for a clinic. A nil
// ClinicID marks the global default configuration.
type ScheduleConfig struct {
	Base
	ClinicID *uuid.UUID                   `json:"clinic_id,omitempty" db:"clinic_id"`
	Days     map[time.Weekday]DaySchedule `json:"days"`
	Policy   SessionPolicy                `json:"policy"`
}

// Day returns the schedule for a weekday. Missing days are inactive.
func (c ScheduleConfig) Day(wd time.Weekday) DaySchedule {
	if d, ok := c.Days[wd]; ok {
		return d
	}
	return DaySchedule{Weekday: wd, Active: false}
}

func (c ScheduleConfig) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	for _, d := range c.Days {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultScheduleConfig is the documented fallback used while a clinic
// has no stored configuration: Monday-Friday 09:00-17:00 with a
// 12:00-13:00 lunch break, 50-minute sessions, 10-minute gap.
func DefaultScheduleConfig() ScheduleConfig {
	days := make(map[time.Weekday]DaySchedule, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		active := wd >= time.Monday && wd <= time.Friday
		day := DaySchedule{Weekday: wd, Active: active}
		if active {
			day.WorkStart = NewTimeOfDay(9, 0)
			day.WorkEnd = NewTimeOfDay(17, 0)
			day.Breaks = []BreakInterval{
				{Start: NewTimeOfDay(12, 0), End: NewTimeOfDay(13, 0), Label: "lunch"},
			}
		}
		days[wd] = day
	}
	return ScheduleConfig{
		Days:   days,
		Policy: SessionPolicy{DurationMinutes: 50, IntervalMinutes: 10},
	}
}

// WeekdayNames maps admin-facing day names to time.Weekday. Keep all
// conversions going through this table.
var WeekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekdayName is the inverse of WeekdayNames.
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

type UpdateScheduleRequest struct {
	Days   []DaySchedule `json:"days" binding:"required"`
	Policy SessionPolicy `json:"policy" binding:"required"`
}
