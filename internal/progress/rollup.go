package progress

import (
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	"github.com/kairos-lab/project-kairos/internal/core/schedule"
)

// Summary reports how much of a scheduled window was actually completed.
// Completion is tracked on one-off events only; synthesized instances count
// toward the scheduled total but can never be completed, so recurring-heavy
// schedules naturally show lower rates.
type Summary struct {
	Start          string          `json:"start"`
	End            string          `json:"end"`
	Scheduled      int             `json:"scheduled"`
	Completed      int             `json:"completed"`
	CompletionRate decimal.Decimal `json:"completion_rate"`
	Days           []DayProgress   `json:"days"`
	Truncated      bool            `json:"truncated,omitempty"`
}

// DayProgress is one calendar day's slice of the summary.
type DayProgress struct {
	Date      string `json:"date"`
	Scheduled int    `json:"scheduled"`
	Completed int    `json:"completed"`
}

const dateLayout = "2006-01-02"

// Rollup buckets an expanded schedule view into per-day counts and computes
// the overall completion rate, rounded to four decimal places.
func Rollup(events []*v1.Event, start, end time.Time, truncated bool) Summary {
	type counts struct {
		scheduled int
		completed int
	}

	buckets := make(map[time.Time]*counts)
	total := counts{}

	for _, evt := range events {
		dayStart, _ := schedule.DayBounds(evt.StartTime)
		b := buckets[dayStart]
		if b == nil {
			b = &counts{}
			buckets[dayStart] = b
		}

		b.scheduled++
		total.scheduled++
		if evt.Completed && !evt.IsInstance {
			b.completed++
			total.completed++
		}
	}

	summary := Summary{
		Start:          start.UTC().Format(dateLayout),
		End:            end.UTC().Format(dateLayout),
		Scheduled:      total.scheduled,
		Completed:      total.completed,
		CompletionRate: decimal.Zero,
		Truncated:      truncated,
	}

	if total.scheduled > 0 {
		summary.CompletionRate = decimal.NewFromInt(int64(total.completed)).
			Div(decimal.NewFromInt(int64(total.scheduled))).
			Round(4)
	}

	// One entry per day in the range, zero-filled, in calendar order.
	dayStart, _ := schedule.DayBounds(start)
	endDay, _ := schedule.DayBounds(end)
	for !dayStart.After(endDay) {
		day := DayProgress{Date: dayStart.Format(dateLayout)}
		if b := buckets[dayStart]; b != nil {
			day.Scheduled = b.scheduled
			day.Completed = b.completed
		}
		summary.Days = append(summary.Days, day)
		dayStart = dayStart.AddDate(0, 0, 1)
	}

	return summary
}
