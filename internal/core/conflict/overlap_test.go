package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

func timedEvent(id string, start time.Time, minutes int) *v1.Event {
	return &v1.Event{
		ID:              id,
		OwnerID:         "owner-1",
		Title:           id,
		StartTime:       start,
		DurationMinutes: minutes,
	}
}

func TestOverlaps(t *testing.T) {
	ten := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b *v1.Event
		want bool
	}{
		{
			name: "contained interval overlaps",
			a:    timedEvent("a", ten, 60),
			b:    timedEvent("b", ten.Add(30*time.Minute), 30),
			want: true,
		},
		{
			name: "back to back does not overlap",
			a:    timedEvent("a", ten, 60),
			b:    timedEvent("c", ten.Add(60*time.Minute), 30),
			want: false,
		},
		{
			name: "identical windows overlap",
			a:    timedEvent("a", ten, 45),
			b:    timedEvent("b", ten, 45),
			want: true,
		},
		{
			name: "partial head overlap",
			a:    timedEvent("a", ten, 60),
			b:    timedEvent("b", ten.Add(-15*time.Minute), 30),
			want: true,
		},
		{
			name: "disjoint windows",
			a:    timedEvent("a", ten, 30),
			b:    timedEvent("b", ten.Add(2*time.Hour), 30),
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			require.Equal(t, tc.want, Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestFindConflicts(t *testing.T) {
	ten := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	existing := []*v1.Event{
		timedEvent("evt-early", ten.Add(-3*time.Hour), 60),
		timedEvent("evt-clash", ten.Add(30*time.Minute), 30),
		timedEvent("evt-late", ten.Add(5*time.Hour), 60),
	}

	t.Run("single overlap found", func(t *testing.T) {
		candidate := timedEvent("candidate", ten, 60)
		conflicts := FindConflicts(candidate, existing)
		require.Len(t, conflicts, 1)
		require.Equal(t, "evt-clash", conflicts[0].ID)
	})

	t.Run("no overlap", func(t *testing.T) {
		candidate := timedEvent("candidate", ten.Add(2*time.Hour), 30)
		require.Empty(t, FindConflicts(candidate, existing))
	})

	t.Run("own id excluded", func(t *testing.T) {
		candidate := timedEvent("evt-clash", ten.Add(30*time.Minute), 30)
		require.Empty(t, FindConflicts(candidate, existing))
	})

	t.Run("input order preserved", func(t *testing.T) {
		candidate := timedEvent("candidate", ten.Add(-3*time.Hour), 600)
		conflicts := FindConflicts(candidate, existing)
		require.Len(t, conflicts, 3)
		require.Equal(t, "evt-early", conflicts[0].ID)
		require.Equal(t, "evt-clash", conflicts[1].ID)
		require.Equal(t, "evt-late", conflicts[2].ID)
	})
}

func TestCheck(t *testing.T) {
	ten := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	t.Run("valid when clear", func(t *testing.T) {
		result := Check(timedEvent("c", ten, 30), nil, nil)
		require.True(t, result.Valid)
		require.Empty(t, result.Message)
	})

	t.Run("invalid reports conflict count", func(t *testing.T) {
		existing := []*v1.Event{
			timedEvent("a", ten, 60),
			timedEvent("b", ten.Add(15*time.Minute), 60),
		}
		result := Check(timedEvent("c", ten, 90), existing, nil)
		require.False(t, result.Valid)
		require.Equal(t, "event conflicts with 2 existing event(s)", result.Message)
		require.Len(t, result.Conflicts, 2)
	})

	t.Run("category buffer turns back-to-back into conflict", func(t *testing.T) {
		policies := PolicySet{"medication": 30 * time.Minute}

		med := timedEvent("med", ten, 15)
		med.Category = "medication"
		next := timedEvent("next", ten.Add(15*time.Minute), 30)

		require.True(t, Check(next, []*v1.Event{med}, nil).Valid)
		require.False(t, Check(next, []*v1.Event{med}, policies).Valid)
	})
}
