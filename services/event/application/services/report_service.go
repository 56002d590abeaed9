package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/pkg/telemetry"
	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
	"github.com/ghuser/voyagewatch/services/event/domain/repositories"
	domainsvcs "github.com/ghuser/voyagewatch/services/event/domain/services"
)

// SeenSet remembers which event ids have been reported. *cache.SeenCache implements it.
type SeenSet interface {
	MarkSeen(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// ReportService accepts events for the relay: websocket frames and HTTP
// reports both end here. The repository publishes each accepted event, and
// the relay hub broadcasts it when the bus delivers it.
type ReportService struct {
	repo    repositories.EventRepository
	seen    SeenSet
	metrics *telemetry.RelayMetrics
	log     logger.Logger
	now     func() time.Time
}

// NewReportService wires the service. seen and metrics may be nil.
func NewReportService(repo repositories.EventRepository, seen SeenSet, metrics *telemetry.RelayMetrics, log logger.Logger) *ReportService {
	return &ReportService{repo: repo, seen: seen, metrics: metrics, log: log, now: time.Now}
}

// Submit completes an HTTP report before accepting it: a missing id gets a
// fresh ULID and a zero reportedAt becomes the server time.
func (s *ReportService) Submit(ctx context.Context, c models.Candidate) (models.Event, error) {
	if c.ID == nil {
		id := models.NewEventID()
		c.ID = &id
	}
	if c.ReportedAt.IsZero() {
		c.ReportedAt = s.now().UTC()
	}

	e, err := domainsvcs.Validate(c)
	if err != nil {
		s.metrics.EventRejected(ctx, telemetry.ReasonInvalid)
		return models.Event{}, err
	}
	if err := s.Report(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// Report accepts a validated event exactly once per id. The id is claimed in
// the seen-set first; a repeated claim, or a repeated id in the database,
// returns ErrEventAlreadyReported. A seen-set outage is logged and the
// database constraint alone decides.
func (s *ReportService) Report(ctx context.Context, e models.Event) error {
	claimed := false
	if s.seen != nil {
		first, err := s.seen.MarkSeen(ctx, e.ID)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "report: seen-set unavailable", "event_id", e.ID, "error", err)
		case !first:
			s.metrics.EventRejected(ctx, telemetry.ReasonDuplicate)
			return fmt.Errorf("report %s: %w", e.ID, domain.ErrEventAlreadyReported)
		default:
			claimed = true
		}
	}

	if err := s.repo.Save(ctx, e); err != nil {
		if errors.Is(err, domain.ErrEventAlreadyReported) {
			s.metrics.EventRejected(ctx, telemetry.ReasonDuplicate)
			return err
		}
		s.metrics.EventRejected(ctx, telemetry.ReasonError)
		if claimed {
			if ferr := s.seen.Forget(ctx, e.ID); ferr != nil {
				s.log.WarnContext(ctx, "report: release seen claim", "event_id", e.ID, "error", ferr)
			}
		}
		return fmt.Errorf("report %s: %w", e.ID, err)
	}

	s.metrics.EventAccepted(ctx)
	s.log.InfoContext(ctx, "report: event accepted", "event_id", e.ID, "event_type", e.Type)
	return nil
}

// Get returns a reported event by id.
func (s *ReportService) Get(ctx context.Context, id string) (models.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
