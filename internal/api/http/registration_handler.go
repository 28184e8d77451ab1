package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/service"
)

type RegistrationHandler struct {
	registrations service.RegistrationService
}

func NewRegistrationHandler(registrations service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type registerRequest struct {
	OptionID          int32                `json:"option_id"`
	AddOnIDs          []int32              `json:"add_on_ids"`
	DiscountCode      string               `json:"discount_code"`
	PaymentMethod     domain.PaymentMethod `json:"payment_method"`
	ApplicationAnswer string               `json:"application_answer"`
	SendUpdateEmails  bool                 `json:"send_update_emails"`
}

type registrationResponse struct {
	Registration *domain.Registration `json:"registration"`
	Payment      *domain.Payment      `json:"payment,omitempty"`
}

type decideRequest struct {
	Decision domain.RegistrationStatus `json:"decision"`
}

func pathID(r *http.Request, name string) (int32, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	reg, payment, err := h.registrations.Register(r.Context(), callerID(r.Context()), service.RegisterRequest{
		EventCode:         code,
		OptionID:          req.OptionID,
		AddOnIDs:          req.AddOnIDs,
		DiscountCode:      req.DiscountCode,
		PaymentMethod:     req.PaymentMethod,
		ApplicationAnswer: req.ApplicationAnswer,
		SendUpdateEmails:  req.SendUpdateEmails,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, registrationResponse{Registration: reg, Payment: payment})
}

func (h *RegistrationHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	reg, err := h.registrations.GetOwn(r.Context(), callerID(r.Context()), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reg)
}

func (h *RegistrationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrations.ListOwn(r.Context(), callerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, regs)
}

// SelectOption is the second step of application-gated events: the selected
// participant picks an option and the payment is created.
func (h *RegistrationHandler) SelectOption(w http.ResponseWriter, r *http.Request) {
	regID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid registration id")
		return
	}

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	reg, payment, err := h.registrations.SelectOption(r.Context(), callerID(r.Context()), regID, service.RegisterRequest{
		OptionID:         req.OptionID,
		AddOnIDs:         req.AddOnIDs,
		DiscountCode:     req.DiscountCode,
		PaymentMethod:    req.PaymentMethod,
		SendUpdateEmails: req.SendUpdateEmails,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, registrationResponse{Registration: reg, Payment: payment})
}

func (h *RegistrationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	regID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid registration id")
		return
	}

	if err := h.registrations.Withdraw(r.Context(), callerID(r.Context()), regID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Decide is the staff review of a submitted application.
func (h *RegistrationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	regID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid registration id")
		return
	}

	var req decideRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	switch req.Decision {
	case domain.RegistrationSelected, domain.RegistrationWaitlist, domain.RegistrationDeclined:
	default:
		respondBadRequest(w, "decision must be SELECTED, WAITLIST or DECLINED")
		return
	}

	reg, err := h.registrations.DecideApplication(r.Context(), regID, req.Decision)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reg)
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	regID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid registration id")
		return
	}

	if err := h.registrations.Cancel(r.Context(), regID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
