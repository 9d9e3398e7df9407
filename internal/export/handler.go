package export

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/kairos-lab/project-kairos/internal/core/errors"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

type Service struct {
	store storage.EventStore
	nowFn func() time.Time
}

func NewService(store storage.EventStore) *Service {
	if store == nil {
		panic("export: store must not be nil")
	}
	return &Service{
		store: store,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the calendar feed route.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/export/:owner_id/calendar.ics", s.CalendarHandler)
}

// CalendarHandler handles GET /v1/export/:owner_id/calendar.ics.
func (s *Service) CalendarHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")

	events, err := s.store.ListEvents(c.Request.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to load events for export", "error", err, "owner_id", ownerID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to export calendar",
		})
		return
	}

	doc, err := Calendar(events, s.nowFn())
	if err != nil {
		slog.Error("Failed to build calendar", "error", err, "owner_id", ownerID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to export calendar",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
}
