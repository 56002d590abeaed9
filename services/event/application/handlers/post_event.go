package handlers

import (
	"net/http"
	"time"

	"github.com/ghuser/voyagewatch/pkg/errhttp"
	"github.com/ghuser/voyagewatch/pkg/httpx"
	pkgvalidator "github.com/ghuser/voyagewatch/pkg/validator"
	appsvcs "github.com/ghuser/voyagewatch/services/event/application/services"
	domainevents "github.com/ghuser/voyagewatch/services/event/domain/events"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// ReportEventRequest is the request body for POST /events.
type ReportEventRequest struct {
	ID              *string  `json:"id"              validate:"omitempty,max=128"          example:"01JH8ZK3V5Q2W9X7Y6M4N1P0RS"`
	EventType       string   `json:"eventType"       validate:"required"                   example:"SHIPWRECK"`
	Latitude        *float64 `json:"latitude"        validate:"required"                   example:"18.47"`
	Longitude       *float64 `json:"longitude"       validate:"required"                   example:"-66.11"`
	Description     string   `json:"description"     validate:"max=2000"                   example:"Galleon down off the reef"`
	ReportedBy      string   `json:"reportedBy"      validate:"max=100"                    example:"Anne Bonny"`
	ReportedAt      string   `json:"reportedAt"      validate:"omitempty,max=64"           example:"2025-03-14T09:26:53Z"`
	IsPvP           bool     `json:"isPvP"                                                 example:"false"`
	Confidence      int      `json:"confidence"      validate:"gte=0,lte=5"                example:"4"`
	AllianceID      string   `json:"allianceId"      validate:"max=64"                     example:"black-flag"`
	ServerRegion    string   `json:"serverRegion"    validate:"omitempty,max=32,printascii" example:"eu-west"`
	AdditionalNotes string   `json:"additionalNotes" validate:"max=2000"                   example:"Two sloops circling"`
} // @name ReportEventRequest

// EventResponse is a stored event.
type EventResponse struct {
	ID              string    `json:"id"                        example:"01JH8ZK3V5Q2W9X7Y6M4N1P0RS"`
	EventType       string    `json:"eventType"                 example:"SHIPWRECK"`
	Latitude        float64   `json:"latitude"                  example:"18.47"`
	Longitude       float64   `json:"longitude"                 example:"-66.11"`
	Description     string    `json:"description"               example:"Galleon down off the reef"`
	ReportedBy      string    `json:"reportedBy"                example:"Anne Bonny"`
	ReportedAt      time.Time `json:"reportedAt"                example:"2025-03-14T09:26:53Z"`
	IsPvP           bool      `json:"isPvP"                     example:"false"`
	Confidence      int       `json:"confidence,omitempty"      example:"4"`
	AllianceID      string    `json:"allianceId,omitempty"      example:"black-flag"`
	ServerRegion    string    `json:"serverRegion,omitempty"    example:"eu-west"`
	AdditionalNotes string    `json:"additionalNotes,omitempty" example:"Two sloops circling"`
} // @name EventResponse

func newEventResponse(e models.Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		EventType:       e.Type.String(),
		Latitude:        e.Latitude,
		Longitude:       e.Longitude,
		Description:     e.Description,
		ReportedBy:      e.ReportedBy,
		ReportedAt:      e.ReportedAt,
		IsPvP:           e.IsPvP,
		Confidence:      e.Confidence,
		AllianceID:      e.AllianceID,
		ServerRegion:    e.ServerRegion,
		AdditionalNotes: e.AdditionalNotes,
	}
}

// PostEventHandler handles POST /events requests.
type PostEventHandler struct {
	svc *appsvcs.Services
}

// NewPostEventHandler returns a PostEventHandler backed by the given services.
func NewPostEventHandler(svc *appsvcs.Services) *PostEventHandler {
	return &PostEventHandler{svc: svc}
}

// Execute reports a new event.
//
//	@Summary		Report event
//	@Description	Reports an event at a map position. Connected trackers receive it over /ws.
//	@Description	A missing id gets a server-assigned ULID; a missing reportedAt becomes the server time.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ReportEventRequest	true	"Event report"
//	@Success		201		{object}	EventResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	httpx.ErrorResponse
//	@Router			/events [post]
func (h *PostEventHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[ReportEventRequest](w, r)
	if !ok {
		return
	}

	c := models.Candidate{
		ID:              req.ID,
		Type:            models.EventType(req.EventType),
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Description:     req.Description,
		ReportedBy:      req.ReportedBy,
		IsPvP:           req.IsPvP,
		Confidence:      req.Confidence,
		AllianceID:      req.AllianceID,
		ServerRegion:    req.ServerRegion,
		AdditionalNotes: req.AdditionalNotes,
	}
	if req.ReportedAt != "" {
		at, err := domainevents.ParseTimestamp(req.ReportedAt)
		if err != nil {
			errhttp.WriteError(w, err)
			return
		}
		c.ReportedAt = at
	}

	e, err := h.svc.Report.Submit(r.Context(), c)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, newEventResponse(e))
}
