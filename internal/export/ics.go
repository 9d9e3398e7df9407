// Package export renders an owner's schedule as an iCalendar feed that
// standard calendar clients can subscribe to. Recurring events are exported
// as their base VEVENT plus an RRULE, not as expanded instances; the
// subscribing client performs its own expansion.
package export

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

const prodID = "-//kairos-lab//project-kairos//EN"

// Calendar builds the iCalendar document for a set of base events.
func Calendar(events []*v1.Event, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, evt := range events {
		ve := cal.AddEvent(evt.ID)
		ve.SetDtStampTime(now)
		ve.SetStartAt(evt.StartTime.UTC())
		ve.SetEndAt(evt.EndTime().UTC())
		ve.SetSummary(evt.Title)
		if evt.Notes != "" {
			ve.SetDescription(evt.Notes)
		}
		if evt.Category != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, evt.Category)
		}

		if evt.IsRecurring() {
			rule, err := RRule(evt.Recurrence, evt.StartTime)
			if err != nil {
				return "", fmt.Errorf("event %s: %w", evt.ID, err)
			}
			ve.AddRrule(rule)
		}
	}

	return cal.Serialize(), nil
}

// RRule serializes a recurrence pattern to an RFC 5545 RRULE value.
//
// Custom patterns export as DAILY: the day-of-week filter is carried by the
// model but not yet applied by the occurrence engine, and the feed must match
// what the service actually schedules.
func RRule(p *v1.RecurrencePattern, baseStart time.Time) (string, error) {
	opt := rrule.ROption{Interval: p.Interval}
	if opt.Interval < 1 {
		opt.Interval = 1
	}

	switch p.Frequency {
	case v1.FrequencyDaily, v1.FrequencyCustom:
		opt.Freq = rrule.DAILY
	case v1.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case v1.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		day := p.DayOfMonth
		if day == 0 {
			day = baseStart.UTC().Day()
		}
		opt.Bymonthday = []int{day}
	default:
		return "", fmt.Errorf("unknown frequency %q", p.Frequency)
	}

	if p.EndDate != nil {
		opt.Until = p.EndDate.UTC()
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("building rrule: %w", err)
	}
	return rule.String(), nil
}
