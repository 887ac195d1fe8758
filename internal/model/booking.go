package model

import (
	"fmt"
	"time"
)

// Frequency of a recurring appointment series.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

type Recurrence struct {
	Frequency Frequency `json:"frequency" binding:"required"`
	Count     int       `json:"count" binding:"required,gte=1"`
}

func (r Recurrence) Validate() error {
	if !r.Frequency.Valid() {
		return fmt.Errorf("unsupported frequency %q", r.Frequency)
	}
	if r.Count < 1 {
		return fmt.Errorf("recurrence count must be at least 1, got %d", r.Count)
	}
	return nil
}

// SlotStatus is a candidate slot annotated with availability. Reason is
// set only when the slot is unavailable.
type SlotStatus struct {
	Time      time.Time `json:"time"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// ContactInfo is the structural contact data collected by the booking
// workflow before submission.
type ContactInfo struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
	Notes string `json:"notes" validate:"max=1000"`
}
