package recurrence

import (
	"fmt"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

const (
	// DefaultInstanceCap bounds one expansion of a recurring event. It exists
	// to guarantee termination against malformed patterns, not as a business
	// rule; Generate reports when it was hit so callers can tell a capped
	// result from a complete one.
	DefaultInstanceCap = 1000

	// DefaultUpcomingCount is how many future occurrences Upcoming returns
	// when the caller does not ask for a specific number.
	DefaultUpcomingCount = 5

	// monthScanLimit bounds the anchored month scan. The calendar months
	// reachable by repeated interval steps cycle within twelve steps, so a
	// scan this deep without a hit proves the anchor day exists in none of
	// them.
	monthScanLimit = 48
)

// noOccurrence marks a month scan that proved the anchor day unreachable.
// It sorts after any real schedule date, so expansion loops drain instead
// of spinning.
var noOccurrence = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// dateOf truncates an instant to its UTC calendar date (midnight UTC).
// All occurrence arithmetic happens at this granularity.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two instants fall on the same UTC calendar date.
func SameDay(a, b time.Time) bool {
	return dateOf(a).Equal(dateOf(b))
}

// daysBetween returns the whole number of days from date a to date b.
// Both arguments must already be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// monthsBetween returns the whole number of calendar months from a to b,
// ignoring day-of-month.
func monthsBetween(a, b time.Time) int {
	ay, am, _ := a.UTC().Date()
	by, bm, _ := b.UTC().Date()
	return (by-ay)*12 + int(bm-am)
}

// effectiveInterval clamps a pattern's interval to at least 1 so that
// stepping always makes forward progress, even on malformed input that
// bypassed validation.
func effectiveInterval(p *v1.RecurrencePattern) int {
	if p.Interval < 1 {
		return 1
	}
	return p.Interval
}

// anchorDay returns the day-of-month a monthly pattern is pinned to:
// the explicit DayOfMonth if set, otherwise the base event's own day.
func anchorDay(p *v1.RecurrencePattern, base time.Time) int {
	if p.DayOfMonth > 0 {
		return p.DayOfMonth
	}
	return base.UTC().Day()
}

// OccursOn reports whether the event has an occurrence on the target date.
//
// Non-recurring events occur only on their exact calendar date. Recurring
// events occur on dates at or after their base date, at or before the
// pattern's end date, whose distance from the base date matches the
// pattern's period. Unknown frequencies never match.
//
// Monthly patterns match only months that actually contain the anchor day;
// a pattern anchored on the 31st simply has no February occurrence.
func OccursOn(e *v1.Event, target time.Time) bool {
	if !e.IsRecurring() {
		return SameDay(e.StartTime, target)
	}

	p := e.Recurrence
	base := dateOf(e.StartTime)
	td := dateOf(target)

	if td.Before(base) {
		return false
	}
	if p.EndDate != nil && td.After(dateOf(*p.EndDate)) {
		return false
	}

	interval := effectiveInterval(p)
	days := daysBetween(base, td)

	switch p.Frequency {
	case v1.FrequencyDaily:
		return days%interval == 0
	case v1.FrequencyWeekly:
		return days%(interval*7) == 0
	case v1.FrequencyMonthly:
		if td.Day() != anchorDay(p, e.StartTime) {
			return false
		}
		return monthsBetween(base, td)%interval == 0
	case v1.FrequencyCustom:
		// DaysOfWeek is carried but not yet applied; custom patterns
		// currently step like daily ones.
		return days%interval == 0
	default:
		return false
	}
}

// NextOccurrence advances a single step from current according to the
// pattern. It never fails: unknown frequencies advance by one day, so every
// call makes forward progress of at least one day.
func NextOccurrence(current time.Time, p *v1.RecurrencePattern) time.Time {
	interval := effectiveInterval(p)

	switch p.Frequency {
	case v1.FrequencyDaily, v1.FrequencyCustom:
		return current.AddDate(0, 0, interval)
	case v1.FrequencyWeekly:
		return current.AddDate(0, 0, interval*7)
	case v1.FrequencyMonthly:
		return nextMonthWithDay(current, interval, anchorDay(p, current))
	default:
		return current.AddDate(0, 0, 1)
	}
}

// nextMonthWithDay steps forward by whole months, skipping months that do
// not contain the anchor day. Stepping from Jan 31 lands on Mar 31, never on
// a normalized Mar 2/3. Some patterns can never land at all (a 12-month
// interval anchored on the 31st from an April start revisits April forever),
// so the scan is bounded and reports noOccurrence for an unreachable day.
func nextMonthWithDay(current time.Time, intervalMonths, day int) time.Time {
	cur := current.UTC()
	y, m, _ := cur.Date()
	hh, mm, ss := cur.Clock()
	month := int(m)

	for i := 0; i < monthScanLimit; i++ {
		month += intervalMonths
		candidate := time.Date(y, time.Month(month), day, hh, mm, ss, cur.Nanosecond(), time.UTC)
		if candidate.Day() == day {
			return candidate
		}
	}
	return noOccurrence
}

// firstOccurrence returns the instant of the event's first occurrence. For
// almost every pattern that is the base start itself; a monthly pattern with
// an explicit DayOfMonth different from the base day is snapped forward to
// the first month containing the anchor day.
func firstOccurrence(e *v1.Event) time.Time {
	p := e.Recurrence
	if p == nil || p.Frequency != v1.FrequencyMonthly {
		return e.StartTime
	}

	day := anchorDay(p, e.StartTime)
	if e.StartTime.UTC().Day() == day {
		return e.StartTime
	}

	cur := e.StartTime.UTC()
	candidate := time.Date(cur.Year(), cur.Month(), day, cur.Hour(), cur.Minute(), cur.Second(), cur.Nanosecond(), time.UTC)
	if candidate.Day() == day && !candidate.Before(cur) {
		return candidate
	}
	return nextMonthWithDay(cur, effectiveInterval(p), day)
}

// FindNextOccurrence returns the first occurrence of the event at or after
// the given instant. Non-recurring events always yield their own start,
// even when it lies in the past.
func FindNextOccurrence(e *v1.Event, from time.Time) time.Time {
	if !e.IsRecurring() {
		return e.StartTime
	}

	cur := firstOccurrence(e)
	for cur.Before(from) && !cur.Equal(noOccurrence) {
		cur = NextOccurrence(cur, e.Recurrence)
	}
	return cur
}

// NewInstance synthesizes the concrete occurrence of a base event on the
// given date: the target's calendar day combined with the base event's
// time-of-day. The instance id is derived as "{baseID}_{YYYY-MM-DD}" and the
// result is never persisted.
func NewInstance(base *v1.Event, date time.Time) *v1.Event {
	day := dateOf(date)
	start := base.StartTime.UTC()

	inst := *base
	inst.ID = fmt.Sprintf("%s_%s", base.ID, day.Format("2006-01-02"))
	inst.StartTime = time.Date(
		day.Year(), day.Month(), day.Day(),
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(),
		time.UTC,
	)
	inst.Recurrence = nil
	inst.IsInstance = true
	inst.ParentEventID = base.ID
	return &inst
}

// Generate materializes every occurrence of a recurring event whose date
// falls in [start, end], ordered by time. The boolean result reports whether
// the expansion hit the iteration cap before the range was exhausted; a
// capped result is incomplete and callers should surface that rather than
// treat it as the full window.
//
// Non-recurring events produce no instances. Generate never returns an
// error: malformed patterns degrade to day-stepping and are contained by
// the cap.
func Generate(base *v1.Event, start, end time.Time, limit int) ([]*v1.Event, bool) {
	if !base.IsRecurring() {
		return nil, false
	}
	if limit <= 0 {
		limit = DefaultInstanceCap
	}

	p := base.Recurrence
	startD := dateOf(start)
	endD := dateOf(end)

	var lastD *time.Time
	if p.EndDate != nil {
		d := dateOf(*p.EndDate)
		lastD = &d
	}

	var out []*v1.Event
	cur := FindNextOccurrence(base, startD)

	for i := 0; ; i++ {
		if cur.Equal(noOccurrence) {
			return out, false
		}
		curD := dateOf(cur)
		if curD.After(endD) {
			return out, false
		}
		if lastD != nil && curD.After(*lastD) {
			return out, false
		}
		if i >= limit {
			return out, true
		}

		out = append(out, NewInstance(base, cur))
		cur = NextOccurrence(cur, p)
	}
}

// Upcoming returns up to count future occurrence instants of the event,
// seeded from the later of the base start and now. Non-recurring events
// yield exactly their own start. The scan is bounded by count*10 steps, so
// a pattern whose end date already elapsed returns fewer results, possibly
// none.
func Upcoming(base *v1.Event, count int, now time.Time) []time.Time {
	if count <= 0 {
		count = DefaultUpcomingCount
	}

	if !base.IsRecurring() {
		return []time.Time{base.StartTime}
	}

	p := base.Recurrence
	from := base.StartTime
	if now.After(from) {
		from = now
	}

	var out []time.Time
	cur := FindNextOccurrence(base, from)

	for i := 0; i < count*10 && len(out) < count; i++ {
		if cur.Equal(noOccurrence) {
			break
		}
		if p.EndDate != nil && dateOf(cur).After(dateOf(*p.EndDate)) {
			break
		}
		out = append(out, cur)
		cur = NextOccurrence(cur, p)
	}
	return out
}
