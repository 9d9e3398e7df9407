package progress

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/kairos-lab/project-kairos/internal/core/errors"
	"github.com/kairos-lab/project-kairos/internal/core/schedule"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

type Service struct {
	store        storage.EventStore
	instanceCap  int
	maxRangeDays int
}

func NewService(store storage.EventStore, instanceCap, maxRangeDays int) *Service {
	if store == nil {
		panic("progress: store must not be nil")
	}
	if instanceCap <= 0 {
		instanceCap = 1000
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 366
	}
	return &Service{store: store, instanceCap: instanceCap, maxRangeDays: maxRangeDays}
}

// RegisterRoutes registers the progress rollup route.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/progress/:owner_id", s.SummaryHandler)
}

// SummaryHandler handles GET /v1/progress/:owner_id?start&end (dates,
// inclusive).
func (s *Service) SummaryHandler(c *gin.Context) {
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
	rangeEnd = rangeEnd.Add(-time.Nanosecond)

	regular, err := s.store.ListRegularEventsInRange(c.Request.Context(), ownerID, rangeStart, rangeEnd)
	if err != nil {
		slog.Error("Failed to load events for progress", "error", err, "owner_id", ownerID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to compute progress")
		return
	}
	bases, err := s.store.ListRecurringEvents(c.Request.Context(), ownerID, rangeEnd)
	if err != nil {
		slog.Error("Failed to load recurring bases for progress", "error", err, "owner_id", ownerID)
		writeError(c, http.StatusInternalServerError, httperr.HttpInternalError, "Failed to compute progress")
		return
	}

	events, truncated := schedule.EventsInRange(regular, bases, rangeStart, rangeEnd, s.instanceCap)
	c.JSON(http.StatusOK, Rollup(events, start, end, truncated))
}

func writeError(c *gin.Context, status int, errorType, message string) {
	c.JSON(status, httperr.ErrorResponse{ErrorType: errorType, Message: message})
}
