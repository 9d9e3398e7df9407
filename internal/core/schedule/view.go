// Package schedule merges one-off events and expanded recurring instances
// into a single ordered view of a day or date range. Every function is a
// pure computation over caller-supplied event lists; nothing here reads or
// writes storage.
package schedule

import (
	"sort"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	"github.com/kairos-lab/project-kairos/internal/core/recurrence"
)

// EventsForDate returns everything scheduled on the target calendar date:
// one-off events starting that day plus one synthesized instance per
// recurring base that occurs then. The result is sorted ascending by start
// time; equal start times keep insertion order (one-offs before instances),
// which is an implementation detail rather than a guarantee.
func EventsForDate(regular, recurringBases []*v1.Event, target time.Time) []*v1.Event {
	var out []*v1.Event

	for _, e := range regular {
		if recurrence.SameDay(e.StartTime, target) {
			out = append(out, e)
		}
	}

	for _, base := range recurringBases {
		if recurrence.OccursOn(base, target) {
			out = append(out, recurrence.NewInstance(base, target))
		}
	}

	sortByStart(out)
	return out
}

// EventsInRange returns everything scheduled in [start, end]: one-off events
// whose start falls inside the range plus all recurring instances expanded
// into it. The boolean result reports whether any base hit the expansion cap,
// meaning the view is incomplete.
func EventsInRange(regular, recurringBases []*v1.Event, start, end time.Time, instanceCap int) ([]*v1.Event, bool) {
	var out []*v1.Event

	for _, e := range regular {
		if !e.StartTime.Before(start) && !e.StartTime.After(end) {
			out = append(out, e)
		}
	}

	truncated := false
	for _, base := range recurringBases {
		instances, capped := recurrence.Generate(base, start, end, instanceCap)
		if capped {
			truncated = true
		}
		out = append(out, instances...)
	}

	sortByStart(out)
	return out, truncated
}

func sortByStart(events []*v1.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}

// DayBounds returns the UTC midnight opening the target's calendar date and
// the midnight opening the next one. Used by callers that need the day as a
// half-open instant range.
func DayBounds(target time.Time) (time.Time, time.Time) {
	y, m, d := target.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
