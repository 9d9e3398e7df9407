package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

func oneOff(id string, start time.Time) *v1.Event {
	return &v1.Event{
		ID:              id,
		OwnerID:         "owner-1",
		Title:           id,
		StartTime:       start,
		DurationMinutes: 30,
	}
}

func recurring(id string, start time.Time, p *v1.RecurrencePattern) *v1.Event {
	e := oneOff(id, start)
	e.Recurrence = p
	return e
}

func TestEventsForDate(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	regular := []*v1.Event{
		oneOff("lunch", day.Add(12*time.Hour)),
		oneOff("yesterday", day.Add(-10*time.Hour)),
		oneOff("standup", day.Add(9*time.Hour+30*time.Minute)),
	}
	bases := []*v1.Event{
		recurring("meds", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), v1.Daily(1)),
		recurring("review", time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), v1.Weekly(1)), // Tuesdays; Mar 5 is a Tuesday
		recurring("payday", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), v1.Monthly(1)),
	}

	got := EventsForDate(regular, bases, day)

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []string{"meds_2024-03-05", "standup", "lunch", "review_2024-03-05"}, ids)

	// Instances got the target date with the base time-of-day.
	require.Equal(t, day.Add(8*time.Hour), got[0].StartTime)
	require.True(t, got[0].IsInstance)
	require.Equal(t, "meds", got[0].ParentEventID)
}

func TestEventsForDate_StableTieBreak(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	at9 := day.Add(9 * time.Hour)

	regular := []*v1.Event{
		oneOff("first", at9),
		oneOff("second", at9),
	}

	got := EventsForDate(regular, nil, day)
	require.Len(t, got, 2)
	require.Equal(t, "first", got[0].ID)
	require.Equal(t, "second", got[1].ID)
}

func TestEventsInRange(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	regular := []*v1.Event{
		oneOff("inside", start.AddDate(0, 0, 2).Add(14*time.Hour)),
		oneOff("before", start.AddDate(0, 0, -1)),
		oneOff("after", end.AddDate(0, 0, 1)),
	}
	bases := []*v1.Event{
		recurring("meds", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), v1.Daily(2)),
	}

	got, truncated := EventsInRange(regular, bases, start, end, 0)

	require.False(t, truncated)
	// Daily interval 2 anchored Jan 1: hits Mar 5, 7 and 9 within the week.
	require.Len(t, got, 4)

	for i := 1; i < len(got); i++ {
		require.False(t, got[i].StartTime.Before(got[i-1].StartTime), "events must be ordered by start time")
	}

	var instanceCount int
	for _, e := range got {
		if e.IsInstance {
			instanceCount++
		}
	}
	require.Equal(t, 3, instanceCount)
}

func TestEventsInRange_PropagatesTruncation(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bases := []*v1.Event{
		recurring("runaway", start, v1.Daily(1)),
	}

	got, truncated := EventsInRange(nil, bases, start, start.AddDate(20, 0, 0), 100)

	require.True(t, truncated)
	require.Len(t, got, 100)
}

func TestDayBounds(t *testing.T) {
	from, to := DayBounds(time.Date(2024, 3, 5, 17, 45, 12, 0, time.UTC))
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), to)
}
