package app

import (
	"github.com/ghuser/voyagewatch/pkg/cache"
	"github.com/ghuser/voyagewatch/pkg/database"
	"github.com/ghuser/voyagewatch/pkg/events"
	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/pkg/telemetry"
)

// Application holds the relay's shared infrastructure. Pass it to each
// service's route and subscription setup during startup.
//
// Logging: app.Logger is backed by a trace-aware handler; use the context
// methods and trace_id, span_id and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "report: event accepted", "event_id", id)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient // nil when REDIS_URL is empty
	Metrics  *telemetry.RelayMetrics
}
