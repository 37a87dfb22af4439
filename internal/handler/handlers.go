package handler

import (
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/deppfellow/bltz-shield/internal/service"
)

// Handlers groups all HTTP handlers so router setup takes one value.
type Handlers struct {
	Metadata *MetadataHandler
	Status   *StatusHandler
	Health   *HealthHandler
}

func NewHandlers(s *server.Server, services *service.Services, repos *repository.Repositories) *Handlers {
	var storage repository.Pinger
	if repos != nil {
		storage = repos.Health
	}

	return &Handlers{
		Metadata: NewMetadataHandler(s, services.Metadata),
		Status:   NewStatusHandler(s, services.Metadata),
		Health:   NewHealthHandler(s, storage),
	}
}
