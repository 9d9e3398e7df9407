package recurrence

import (
	"fmt"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

// ValidatePattern guards malformed patterns before they reach the occurrence
// engine. The engine itself degrades safely, so this is the only place a bad
// pattern surfaces loudly.
//
// ref is the instant the end date is checked against: the interactive write
// path passes the current time, while restore paths pass the event's own
// start so that historical patterns remain importable.
func ValidatePattern(p *v1.RecurrencePattern, ref time.Time) error {
	if p == nil {
		return fmt.Errorf("recurrence pattern is required")
	}

	if !p.Frequency.Known() {
		return fmt.Errorf("unknown frequency %q", p.Frequency)
	}

	if p.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", p.Interval)
	}

	if p.EndDate != nil && !dateOf(*p.EndDate).After(dateOf(ref)) {
		return fmt.Errorf("end_date %s must be after %s",
			dateOf(*p.EndDate).Format("2006-01-02"), dateOf(ref).Format("2006-01-02"))
	}

	if len(p.DaysOfWeek) > 0 && p.Frequency != v1.FrequencyCustom {
		return fmt.Errorf("days_of_week is only valid for custom patterns")
	}
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
	}

	if p.DayOfMonth != 0 {
		if p.Frequency != v1.FrequencyMonthly {
			return fmt.Errorf("day_of_month is only valid for monthly patterns")
		}
		if p.DayOfMonth < 1 || p.DayOfMonth > 31 {
			return fmt.Errorf("day_of_month must be 1-31, got %d", p.DayOfMonth)
		}
	}

	return nil
}
