package backup

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

type Service struct {
	store            storage.EventStore
	maxBodySizeBytes int
	nowFn            func() time.Time
}

func NewService(store storage.EventStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("backup: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the backup export/import routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/backup/:owner_id", s.ExportHandler)
	r.POST("/v1/backup/:owner_id", s.ImportHandler)
}
