package ingestion

import (
	"github.com/gin-gonic/gin"
	"github.com/oa-device/oaParkingMonitor/internal/core/registry"
	"github.com/oa-device/oaParkingMonitor/internal/core/storage"
)

type Service struct {
	registry         *registry.SiteRegistry
	store            storage.DetectionStore
	maxBodySizeBytes int
}

func NewService(reg *registry.SiteRegistry, store storage.DetectionStore, maxBodySizeMB int) *Service {
	if reg == nil {
		panic("ingestion: site registry must not be nil")
	}
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		registry:         reg,
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	// One detection object or an array of them; edge uploaders send both shapes.
	r.POST("/v1/detections", s.IngestHandler)
}
