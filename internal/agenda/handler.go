package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	httperr "github.com/kairos-lab/project-kairos/internal/core/errors"
	"github.com/kairos-lab/project-kairos/internal/core/recurrence"
	"github.com/kairos-lab/project-kairos/internal/core/schedule"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

const dateLayout = "2006-01-02"

// DayResponse is the payload of the single-day agenda view.
type DayResponse struct {
	Date   string      `json:"date"`
	Events []*v1.Event `json:"events"`
	Count  int         `json:"count"`
}

// RangeResponse is the payload of the date-range agenda view. Truncated
// reports that at least one recurring base hit the instance cap, so the view
// is incomplete.
type RangeResponse struct {
	Start     string      `json:"start"`
	End       string      `json:"end"`
	Events    []*v1.Event `json:"events"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated"`
}

// UpcomingResponse is the payload of the next-occurrences preview.
type UpcomingResponse struct {
	EventID     string      `json:"event_id"`
	Occurrences []time.Time `json:"occurrences"`
}

// DayHandler handles GET /v1/agenda/:owner_id/day?date=YYYY-MM-DD.
// Omitting date means today.
func (s *Service) DayHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")

	target := s.nowFn()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, httperr.HttpValidationError,
				fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", raw))
			return
		}
		target = parsed
	}

	dayStart, _ := schedule.DayBounds(target)
	key := ownerID + "|" + dayStart.Format(dateLayout)

	// Concurrent identical day queries share one fetch.
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.loadDay(c.Request.Context(), ownerID, target)
	})
	if err != nil {
		slog.Error("Failed to load day view", "error", err, "owner_id", ownerID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to load agenda")
		return
	}

	events := result.([]*v1.Event)
	c.JSON(http.StatusOK, DayResponse{
		Date:   dayStart.Format(dateLayout),
		Events: events,
		Count:  len(events),
	})
}

func (s *Service) loadDay(ctx context.Context, ownerID string, target time.Time) ([]*v1.Event, error) {
	dayStart, dayEnd := schedule.DayBounds(target)

	regular, err := s.store.ListRegularEventsInRange(ctx, ownerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	bases, err := s.store.ListRecurringEvents(ctx, ownerID, dayEnd)
	if err != nil {
		return nil, err
	}

	return schedule.EventsForDate(regular, bases, target), nil
}

// RangeHandler handles GET /v1/agenda/:owner_id/range?start&end (dates,
// inclusive). The span is bounded by schedule.max_range_days.
func (s *Service) RangeHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		writeError(c, http.StatusBadRequest, httperr.HttpValidationError,
			"invalid or missing start (want YYYY-MM-DD)")
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		writeError(c, http.StatusBadRequest, httperr.HttpValidationError,
			"invalid or missing end (want YYYY-MM-DD)")
		return
	}
	if end.Before(start) {
		writeError(c, http.StatusBadRequest, httperr.HttpValidationError, "end must not be before start")
		return
	}
	if int(end.Sub(start).Hours()/24)+1 > s.maxRangeDays {
		writeError(c, http.StatusBadRequest, httperr.HttpValidationError,
			fmt.Sprintf("range exceeds maximum of %d days", s.maxRangeDays))
		return
	}

	rangeStart, _ := schedule.DayBounds(start)
	_, rangeEnd := schedule.DayBounds(end)
	rangeEnd = rangeEnd.Add(-time.Nanosecond) // inclusive end of the last day

	regular, err := s.store.ListRegularEventsInRange(c.Request.Context(), ownerID, rangeStart, rangeEnd)
	if err != nil {
		slog.Error("Failed to load range view", "error", err, "owner_id", ownerID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to load agenda")
		return
	}
	bases, err := s.store.ListRecurringEvents(c.Request.Context(), ownerID, rangeEnd)
	if err != nil {
		slog.Error("Failed to load recurring bases", "error", err, "owner_id", ownerID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to load agenda")
		return
	}

	events, truncated := schedule.EventsInRange(regular, bases, rangeStart, rangeEnd, s.instanceCap)
	if truncated {
		slog.Warn("Range view truncated at instance cap",
			"owner_id", ownerID,
			"cap", s.instanceCap)
	}

	c.JSON(http.StatusOK, RangeResponse{
		Start:     rangeStart.Format(dateLayout),
		End:       end.Format(dateLayout),
		Events:    events,
		Count:     len(events),
		Truncated: truncated,
	})
}

// UpcomingHandler handles GET /v1/agenda/:owner_id/upcoming/:event_id?count=N.
func (s *Service) UpcomingHandler(c *gin.Context) {
	ownerID, eventID := c.Param("owner_id"), c.Param("event_id")

	count := s.upcomingCount
	if raw := c.Query("count"); raw != "" {
		var parsed int
		if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil || parsed <= 0 {
			writeError(c, http.StatusBadRequest, httperr.HttpValidationError,
				fmt.Sprintf("invalid count %q", raw))
			return
		}
		count = parsed
	}

	base, err := s.store.GetEvent(c.Request.Context(), ownerID, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, http.StatusNotFound, httperr.HttpNotFoundError, "Event not found")
			return
		}
		slog.Error("Failed to load event", "error", err, "event_id", eventID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to load event")
		return
	}

	occurrences := recurrence.Upcoming(base, count, s.nowFn())
	c.JSON(http.StatusOK, UpcomingResponse{
		EventID:     eventID,
		Occurrences: occurrences,
	})
}

func writeError(c *gin.Context, status int, errorType, message string) {
	c.JSON(status, httperr.ErrorResponse{ErrorType: errorType, Message: message})
}
