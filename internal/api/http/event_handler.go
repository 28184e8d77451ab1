package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/service"
)

type EventHandler struct {
	events service.EventService
}

func NewEventHandler(events service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type eventResponse struct {
	Event   *domain.Event               `json:"event"`
	Options []domain.RegistrationOption `json:"options"`
}

type createEventRequest struct {
	Event   domain.Event                `json:"event"`
	Options []domain.RegistrationOption `json:"options"`
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context(), callerIsStaff(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	event, options, err := h.events.GetEventByCode(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	// Private events are reachable by code, just not listed.
	respondJSON(w, http.StatusOK, eventResponse{Event: event, Options: options})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Event.Title == "" {
		respondBadRequest(w, "event title is required")
		return
	}

	if err := h.events.CreateEvent(r.Context(), &req.Event, req.Options); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, eventResponse{Event: &req.Event, Options: req.Options})
}

func (h *EventHandler) CreateDiscountCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req domain.DiscountCode
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := h.events.CreateDiscountCode(r.Context(), code, &req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, &req)
}

func (h *EventHandler) CreateGroupDiscount(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req domain.GroupDiscount
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := h.events.CreateGroupDiscount(r.Context(), code, &req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, &req)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req domain.Event
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	req.Code = code

	if err := h.events.UpdateEvent(r.Context(), &req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &req)
}
