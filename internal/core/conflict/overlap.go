package conflict

import (
	"fmt"
	"time"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
)

// Overlaps reports whether two events occupy intersecting time windows.
// Windows are half-open [start, start+duration): an event ending exactly
// when another starts does not conflict.
func Overlaps(a, b *v1.Event) bool {
	return a.StartTime.Before(b.EndTime()) && b.StartTime.Before(a.EndTime())
}

// overlapsBuffered widens both windows by their category buffers before the
// overlap test. A zero buffer reduces to Overlaps.
func overlapsBuffered(a, b *v1.Event, bufA, bufB time.Duration) bool {
	aStart, aEnd := a.StartTime.Add(-bufA), a.EndTime().Add(bufA)
	bStart, bEnd := b.StartTime.Add(-bufB), b.EndTime().Add(bufB)
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflicts scans existing events and returns every one whose window
// overlaps the candidate's. Events sharing the candidate's id are skipped,
// so updates do not conflict with their own stored version. Results keep
// input order; the scan is O(n).
func FindConflicts(candidate *v1.Event, existing []*v1.Event) []*v1.Event {
	var conflicts []*v1.Event
	for _, e := range existing {
		if e.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// ValidationResult is the value-based outcome of a conflict check. Conflicts
// are reported, never raised: the caller decides whether to reject the write
// or prompt for a reschedule.
type ValidationResult struct {
	Valid     bool        `json:"valid"`
	Message   string      `json:"message,omitempty"`
	Conflicts []*v1.Event `json:"conflicts,omitempty"`
}

// Check runs the conflict scan and wraps the outcome. When a policy set is
// provided, category buffers widen the compared windows, so back-to-back
// events in buffered categories also register as conflicts.
func Check(candidate *v1.Event, existing []*v1.Event, policies PolicySet) ValidationResult {
	var conflicts []*v1.Event
	for _, e := range existing {
		if e.ID == candidate.ID {
			continue
		}
		if overlapsBuffered(candidate, e, policies.Buffer(candidate.Category), policies.Buffer(e.Category)) {
			conflicts = append(conflicts, e)
		}
	}

	if len(conflicts) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{
		Valid:     false,
		Message:   fmt.Sprintf("event conflicts with %d existing event(s)", len(conflicts)),
		Conflicts: conflicts,
	}
}
