package services

import (
	"github.com/ghuser/voyagewatch/pkg/app"
	"github.com/ghuser/voyagewatch/pkg/cache"
	"github.com/ghuser/voyagewatch/services/event/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for the event context.
type Services struct {
	Report *ReportService
}

// New wires the event services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewEventRepository(a.Db, a.EventBus)

	var seen SeenSet
	if a.Redis != nil {
		seen = cache.NewSeenCache(a.Redis)
	}
	return &Services{
		Report: NewReportService(repo, seen, a.Metrics, a.Logger),
	}
}
