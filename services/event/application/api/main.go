package api

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/voyagewatch/pkg/app"
	"github.com/ghuser/voyagewatch/services/event/application/handlers"
	appsvcs "github.com/ghuser/voyagewatch/services/event/application/services"
	domainevents "github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/infrastructure/relay"
)

// EventRoutes registers event endpoints on the provided chi router.
func EventRoutes(r chi.Router, svcs *appsvcs.Services) {
	r.Group(func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", handlers.NewPostEventHandler(svcs).Execute)
			r.Get("/{id}", handlers.NewGetEventHandler(svcs).Execute)
		})
	})
}

// RegisterSubscribers feeds every reported event on the bus to the hub.
// Subscriber errors are drained in the background until ctx is done.
func RegisterSubscribers(ctx context.Context, a *app.Application, hub *relay.Hub) error {
	errCh, err := a.EventBus.Subscribe(ctx, domainevents.TopicEventReported, hub.HandleReported)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domainevents.TopicEventReported, err)
	}

	go func() {
		for err := range errCh {
			a.Logger.ErrorContext(ctx, "subscriber error",
				"topic", domainevents.TopicEventReported,
				"error", err,
			)
		}
	}()

	a.Logger.Info("event subscribers registered", "topics", []string{domainevents.TopicEventReported})
	return nil
}
