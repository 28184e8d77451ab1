package http

import (
	"net/http"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/service"
)

type MembershipHandler struct {
	memberships service.MembershipService
}

func NewMembershipHandler(memberships service.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

type applyMembershipRequest struct {
	Type        domain.MembershipType `json:"type"`
	Method      domain.PaymentMethod  `json:"payment_method"`
	MailingList bool                  `json:"mailing_list"`
}

type membershipResponse struct {
	Membership *domain.Membership `json:"membership"`
	Payment    *domain.Payment    `json:"payment,omitempty"`
}

type membershipCostsResponse struct {
	Currency domain.Currency   `json:"currency"`
	Costs    map[string]string `json:"costs"`
}

func (h *MembershipHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyMembershipRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if !domain.ValidMembershipType(req.Type) {
		respondBadRequest(w, "type must be REGULAR, ACADEMIC or BUSINESS")
		return
	}

	membership, payment, err := h.memberships.Apply(r.Context(), callerID(r.Context()), req.Type, req.Method, req.MailingList)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, membershipResponse{Membership: membership, Payment: payment})
}

func (h *MembershipHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	membership, err := h.memberships.GetOwn(r.Context(), callerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, membership)
}

// Costs publishes the yearly prices so the signup form can render them.
func (h *MembershipHandler) Costs(w http.ResponseWriter, r *http.Request) {
	resp := membershipCostsResponse{Costs: make(map[string]string)}
	for _, mType := range []domain.MembershipType{
		domain.MembershipRegular, domain.MembershipAcademic, domain.MembershipBusiness,
	} {
		cost, currency, err := h.memberships.Cost(mType)
		if err != nil {
			continue
		}
		resp.Currency = currency
		resp.Costs[string(mType)] = cost.StringFixed(2)
	}
	respondJSON(w, http.StatusOK, resp)
}
