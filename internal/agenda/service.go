package agenda

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/kairos-lab/project-kairos/internal/core/storage"
)

type Service struct {
	store         storage.EventStore
	instanceCap   int
	maxRangeDays  int
	upcomingCount int

	// group collapses identical concurrent day queries into one store fetch.
	group singleflight.Group
	nowFn func() time.Time
}

func NewService(store storage.EventStore, instanceCap, maxRangeDays, upcomingCount int) *Service {
	if store == nil {
		panic("agenda: store must not be nil")
	}
	if instanceCap <= 0 {
		instanceCap = 1000
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 366
	}
	if upcomingCount <= 0 {
		upcomingCount = 5
	}
	return &Service{
		store:         store,
		instanceCap:   instanceCap,
		maxRangeDays:  maxRangeDays,
		upcomingCount: upcomingCount,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the schedule read-path routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/agenda/:owner_id/day", s.DayHandler)
	r.GET("/v1/agenda/:owner_id/range", s.RangeHandler)
	r.GET("/v1/agenda/:owner_id/upcoming/:event_id", s.UpcomingHandler)
}
