package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/voyagewatch/pkg/errhttp"
	"github.com/ghuser/voyagewatch/pkg/httpx"
	appsvcs "github.com/ghuser/voyagewatch/services/event/application/services"
)

// GetEventHandler handles GET /events/{id} requests.
type GetEventHandler struct {
	svc *appsvcs.Services
}

// NewGetEventHandler returns a GetEventHandler backed by the given services.
func NewGetEventHandler(svc *appsvcs.Services) *GetEventHandler {
	return &GetEventHandler{svc: svc}
}

// Execute returns a reported event.
//
//	@Summary		Get event
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event id"
//	@Success		200	{object}	EventResponse
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Router			/events/{id} [get]
func (h *GetEventHandler) Execute(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Report.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEventResponse(e))
}
