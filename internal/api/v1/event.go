package v1

import (
	"fmt"
	"time"
)

// Frequency is the unit a recurrence pattern steps in.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"

	// FrequencyCustom is reserved for day-of-week filtered schedules.
	// The occurrence engine currently steps it like FrequencyDaily.
	FrequencyCustom Frequency = "custom"
)

// Known reports whether f is one of the supported frequencies.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// RecurrencePattern describes how a base event repeats.
// Optional fields are only meaningful for specific frequencies:
// DaysOfWeek for custom patterns, DayOfMonth for monthly patterns.
// The pattern validator rejects any other combination.
type RecurrencePattern struct {
	// Frequency selects the stepping unit (daily, weekly, monthly, custom).
	Frequency Frequency `json:"frequency"`

	// Interval is the positive step count in the unit implied by Frequency,
	// e.g. Interval=2 with FrequencyWeekly means "every second week".
	Interval int `json:"interval"`

	// EndDate, if set, is the last calendar date (inclusive) on which an
	// occurrence may exist. Time-of-day is ignored.
	EndDate *time.Time `json:"end_date,omitempty"`

	// DaysOfWeek restricts custom patterns to specific weekdays.
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`

	// DayOfMonth pins monthly patterns to a specific day (1-31).
	// Zero means "use the base event's own day-of-month".
	DayOfMonth int `json:"day_of_month,omitempty"`
}

// Daily returns a pattern repeating every `interval` days.
func Daily(interval int) *RecurrencePattern {
	return &RecurrencePattern{Frequency: FrequencyDaily, Interval: interval}
}

// Weekly returns a pattern repeating every `interval` weeks.
func Weekly(interval int) *RecurrencePattern {
	return &RecurrencePattern{Frequency: FrequencyWeekly, Interval: interval}
}

// Monthly returns a pattern repeating every `interval` months on the base
// event's day-of-month.
func Monthly(interval int) *RecurrencePattern {
	return &RecurrencePattern{Frequency: FrequencyMonthly, Interval: interval}
}

// Custom returns a day-stepped pattern carrying a weekday filter.
func Custom(interval int, days ...time.Weekday) *RecurrencePattern {
	return &RecurrencePattern{Frequency: FrequencyCustom, Interval: interval, DaysOfWeek: days}
}

// Event is a user-authored calendar item (the "base event") or, when
// IsInstance is set, an ephemeral occurrence synthesized from one.
//
// Only base events are ever persisted. Instances are created on demand
// inside a query and discarded by the caller; the storage layer rejects
// them outright.
type Event struct {
	// ID is the stable identifier, unique per OwnerID.
	// Synthesized instances derive theirs as "{baseID}_{YYYY-MM-DD}".
	ID string `json:"id"`

	// OwnerID identifies the schedule this event belongs to.
	OwnerID string `json:"owner_id"`

	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`

	// StartTime is the absolute start instant. Stored and compared in UTC.
	StartTime time.Time `json:"start_time"`

	// DurationMinutes is the event length; must be > 0.
	DurationMinutes int `json:"duration_minutes"`

	// Completed marks a finished one-off event. Not tracked per instance.
	Completed bool `json:"completed"`

	// Recurrence is the embedded repeat rule. Nil means non-recurring.
	Recurrence *RecurrencePattern `json:"recurrence,omitempty"`

	// IsInstance marks a synthesized occurrence of a recurring base event.
	IsInstance bool `json:"is_instance,omitempty"`

	// ParentEventID backs an instance to its base event. Lookup only; the
	// base event has no knowledge of generated instances.
	ParentEventID string `json:"parent_event_id,omitempty"`
}

// IsRecurring reports whether the event carries a recurrence pattern.
func (e *Event) IsRecurring() bool {
	return e.Recurrence != nil
}

// EndTime is the exclusive end of the event's occupancy window,
// StartTime + DurationMinutes.
func (e *Event) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Validate ensures the event envelope is well formed. Recurrence pattern
// validation is a separate concern (see the recurrence package).
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}

	if e.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}

	if e.Title == "" {
		return fmt.Errorf("title is required")
	}

	if e.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}

	if e.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be > 0")
	}

	return nil
}
