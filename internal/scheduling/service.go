package scheduling

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kairos-lab/project-kairos/internal/core/conflict"
	"github.com/kairos-lab/project-kairos/internal/core/storage"
	"github.com/kairos-lab/project-kairos/internal/notify"
)

type Service struct {
	store            storage.EventStore
	bus              *notify.Bus
	policies         conflict.PolicySet
	maxBodySizeBytes int
	nowFn            func() time.Time
}

func NewService(store storage.EventStore, bus *notify.Bus, policies conflict.PolicySet, maxBodySizeMB int) *Service {
	if store == nil {
		panic("scheduling: store must not be nil")
	}
	if bus == nil {
		panic("scheduling: bus must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		bus:              bus,
		policies:         policies,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the schedule write-path routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.CreateHandler)
	r.PUT("/v1/events/:owner_id/:id", s.UpdateHandler)
	r.DELETE("/v1/events/:owner_id/:id", s.DeleteHandler)
	r.POST("/v1/events/:owner_id/:id/complete", s.CompleteHandler)
}
