package backup

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/kairos-lab/project-kairos/internal/api/v1"
	httperr "github.com/kairos-lab/project-kairos/internal/core/errors"
	"github.com/kairos-lab/project-kairos/internal/core/recurrence"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

// Archive is the backup wire format: every base event of one owner. Generated
// instances never appear here; they are recomputed from the patterns after a
// restore.
type Archive struct {
	OwnerID    string      `json:"owner_id"`
	ExportedAt time.Time   `json:"exported_at"`
	Events     []*v1.Event `json:"events"`
}

// ImportResult summarizes one restore run. Rejected entries carry the reason
// so a caller can fix its archive; duplicates are counted, not errors, which
// makes restores idempotent.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped_duplicates"`
	Rejected []RejectedImport `json:"rejected,omitempty"`
}

type RejectedImport struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ExportHandler handles GET /v1/backup/:owner_id.
func (s *Service) ExportHandler(c *gin.Context) {
	ownerID := c.Param("owner_id")

	events, err := s.store.ListEvents(c.Request.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to export events", "error", err, "owner_id", ownerID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to export events",
		})
		return
	}

	c.JSON(http.StatusOK, Archive{
		OwnerID:    ownerID,
		ExportedAt: s.nowFn(),
		Events:     events,
	})
}

// ImportHandler handles POST /v1/backup/:owner_id. Each archive entry is
// validated against its own start time, so patterns that already ran out
// restore cleanly. Duplicates are skipped; instances and invalid entries are
// rejected individually without aborting the rest of the archive.
func (s *Service) ImportHandler(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(s.maxBodySizeBytes)))
	if err != nil {
		slog.Error("Failed to read archive body", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to read request body",
		})
		return
	}

	var archive Archive
	if err := json.Unmarshal(body, &archive); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid archive body",
		})
		return
	}

	ownerID := c.Param("owner_id")
	var result ImportResult

	for _, evt := range archive.Events {
		evt.OwnerID = ownerID

		if reason := s.admissible(evt); reason != "" {
			result.Rejected = append(result.Rejected, RejectedImport{ID: evt.ID, Reason: reason})
			continue
		}

		if err := s.store.SaveEvent(c.Request.Context(), evt); err != nil {
			switch {
			case errors.Is(err, storage.ErrDuplicate):
				result.Skipped++
			case errors.Is(err, storage.ErrEphemeral):
				result.Rejected = append(result.Rejected, RejectedImport{ID: evt.ID, Reason: "generated instance"})
			default:
				slog.Error("Failed to restore event", "error", err, "event_id", evt.ID)
				c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
					ErrorType: httperr.HttpInternalError,
					Message:   "Failed to restore events",
				})
				return
			}
			continue
		}
		result.Imported++
	}

	slog.Info("Archive restored",
		"owner_id", ownerID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"rejected", len(result.Rejected))
	c.JSON(http.StatusOK, result)
}

// admissible returns an empty string when the event may be restored, or the
// rejection reason. The pattern reference is the event's own start time:
// archives legitimately contain patterns whose end date has elapsed.
func (s *Service) admissible(evt *v1.Event) string {
	if evt.IsInstance {
		return "generated instance"
	}
	if err := evt.Validate(); err != nil {
		return err.Error()
	}
	if evt.Recurrence != nil {
		if err := recurrence.ValidatePattern(evt.Recurrence, evt.StartTime); err != nil {
			return err.Error()
		}
	}
	return ""
}
