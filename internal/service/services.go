package service

import (
	"github.com/deppfellow/bltz-shield/internal/lib/job"
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/server"
)

type Services struct {
	Auth     *AuthService
	Metadata *MetadataService
	Job      *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService := NewAuthService(s)
	metadataService := NewMetadataService(s, repos)

	return &Services{
		Job:      s.Job,
		Auth:     authService,
		Metadata: metadataService,
	}, nil
}
