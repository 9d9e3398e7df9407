package scheduling

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	"github.com/kairos-lab/project-kairos/internal/core/conflict"
	httperr "github.com/kairos-lab/project-kairos/internal/core/errors"
	"github.com/kairos-lab/project-kairos/internal/core/recurrence"
	"github.com/kairos-lab/project-kairos/internal/core/schedule"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
	"github.com/kairos-lab/project-kairos/internal/notify"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"
	msgEventNotFound  = "Event not found"
	msgConflict       = "Event conflicts with the existing schedule"
)

// schedulingError carries the structured HTTP error shape from a helper back
// to the handler. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type schedulingError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *schedulingError) Error() string {
	return e.message
}

// CreateHandler handles POST /v1/events: validate, conflict-check, persist.
func (s *Service) CreateHandler(c *gin.Context) {
	evt, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}

	if err := s.validateEvent(evt); err != nil {
		writeError(c, err)
		return
	}

	if err := s.checkConflicts(c.Request.Context(), evt); err != nil {
		writeError(c, err)
		return
	}

	if err := s.store.SaveEvent(c.Request.Context(), evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate event rejected", "event_id", evt.ID, "owner_id", evt.OwnerID)
			writeError(c, &schedulingError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateEventError,
				message:    msgDuplicateEvent,
			})
			return
		}
		slog.Error("Failed to persist event", "error", err, "event_id", evt.ID)
		writeError(c, &schedulingError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	slog.Info("Event created",
		"event_id", evt.ID,
		"owner_id", evt.OwnerID,
		"recurring", evt.IsRecurring())

	s.bus.Publish(notify.Notification{Kind: notify.EventCreated, Event: evt})
	c.JSON(http.StatusCreated, evt)
}

// UpdateHandler handles PUT /v1/events/:owner_id/:id. The body is the full
// replacement event; path parameters win over any ids in the body.
func (s *Service) UpdateHandler(c *gin.Context) {
	evt, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}
	evt.OwnerID = c.Param("owner_id")
	evt.ID = c.Param("id")

	if err := s.validateEvent(evt); err != nil {
		writeError(c, err)
		return
	}

	if err := s.checkConflicts(c.Request.Context(), evt); err != nil {
		writeError(c, err)
		return
	}

	if err := s.store.UpdateEvent(c.Request.Context(), evt); err != nil {
		writeError(c, storeError(err, evt.ID))
		return
	}

	s.bus.Publish(notify.Notification{Kind: notify.EventUpdated, Event: evt})
	c.JSON(http.StatusOK, evt)
}

// DeleteHandler handles DELETE /v1/events/:owner_id/:id.
func (s *Service) DeleteHandler(c *gin.Context) {
	ownerID, id := c.Param("owner_id"), c.Param("id")

	evt, err := s.store.GetEvent(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, storeError(err, id))
		return
	}

	if err := s.store.DeleteEvent(c.Request.Context(), ownerID, id); err != nil {
		writeError(c, storeError(err, id))
		return
	}

	s.bus.Publish(notify.Notification{Kind: notify.EventDeleted, Event: evt})
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CompleteHandler handles POST /v1/events/:owner_id/:id/complete. An optional
// body {"completed": false} un-completes; the default marks done.
func (s *Service) CompleteHandler(c *gin.Context) {
	ownerID, id := c.Param("owner_id"), c.Param("id")

	body := struct {
		Completed *bool `json:"completed"`
	}{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, &schedulingError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidJsonError,
				message:    msgInvalidJSON,
			})
			return
		}
	}
	completed := body.Completed == nil || *body.Completed

	if err := s.store.SetCompleted(c.Request.Context(), ownerID, id, completed); err != nil {
		writeError(c, storeError(err, id))
		return
	}

	evt, err := s.store.GetEvent(c.Request.Context(), ownerID, id)
	if err != nil {
		writeError(c, storeError(err, id))
		return
	}

	s.bus.Publish(notify.Notification{Kind: notify.EventCompleted, Event: evt})
	c.JSON(http.StatusOK, evt)
}

// parseEvent reads the raw request body and binds it into an Event struct.
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, *schedulingError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, &schedulingError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, &schedulingError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, &schedulingError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	evt.StartTime = evt.StartTime.UTC()
	return &evt, nil
}

// validateEvent runs envelope validation, then pattern validation for
// recurring events. Writes through this path must not be instances and must
// carry a pattern still valid relative to now.
func (s *Service) validateEvent(evt *v1.Event) *schedulingError {
	if evt.IsInstance {
		return &schedulingError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    "generated instances cannot be written",
		}
	}

	if err := evt.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err, "event_id", evt.ID)
		return &schedulingError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
		}
	}

	if evt.Recurrence != nil {
		if err := recurrence.ValidatePattern(evt.Recurrence, s.nowFn()); err != nil {
			slog.Warn("Pattern validation failed", "error", err, "event_id", evt.ID)
			return &schedulingError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpValidationError,
				message:    err.Error(),
			}
		}
	}

	return nil
}

// checkConflicts assembles the candidate day's schedule and runs the overlap
// scan. Conflicts surface as HTTP 409 carrying the full ValidationResult;
// they are reported, never raised.
func (s *Service) checkConflicts(ctx context.Context, evt *v1.Event) *schedulingError {
	dayStart, dayEnd := schedule.DayBounds(evt.StartTime)

	// Conflicts are scoped to the candidate's calendar day; EventsForDate
	// applies the same filter to whatever is fetched.
	regular, err := s.store.ListRegularEventsInRange(ctx, evt.OwnerID, dayStart, dayEnd)
	if err != nil {
		slog.Error("Failed to load events for conflict check", "error", err, "owner_id", evt.OwnerID)
		return &schedulingError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	bases, err := s.store.ListRecurringEvents(ctx, evt.OwnerID, dayEnd)
	if err != nil {
		slog.Error("Failed to load recurring bases for conflict check", "error", err, "owner_id", evt.OwnerID)
		return &schedulingError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	existing := schedule.EventsForDate(regular, bases, evt.StartTime)

	// Updates must not conflict with their own stored version or with
	// instances synthesized from it.
	filtered := existing[:0]
	for _, e := range existing {
		if e.ID == evt.ID || e.ParentEventID == evt.ID {
			continue
		}
		filtered = append(filtered, e)
	}

	result := conflict.Check(evt, filtered, s.policies)
	if result.Valid {
		return nil
	}

	slog.Info("Schedule conflict detected",
		"event_id", evt.ID,
		"owner_id", evt.OwnerID,
		"conflicts", len(result.Conflicts))
	return &schedulingError{
		statusCode: http.StatusConflict,
		errorType:  httperr.HttpConflictError,
		message:    msgConflict,
		details:    result,
	}
}

// storeError maps storage sentinel errors onto the HTTP error taxonomy.
func storeError(err error, id string) *schedulingError {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &schedulingError{
			statusCode: http.StatusNotFound,
			errorType:  httperr.HttpNotFoundError,
			message:    msgEventNotFound,
		}
	case errors.Is(err, storage.ErrEphemeral):
		return &schedulingError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    "generated instances cannot be written",
		}
	default:
		slog.Error("Storage operation failed", "error", err, "event_id", id)
		return &schedulingError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
}

// writeError serializes a schedulingError as the JSON HTTP response.
func writeError(c *gin.Context, err *schedulingError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
