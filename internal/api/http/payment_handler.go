package http

import (
	"fmt"
	"net/http"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/service"
)

type PaymentHandler struct {
	payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentResponse struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

type confirmRequest struct {
	IntentID string `json:"intent_id"`
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	payment, err := h.payments.GetOwn(r.Context(), callerID(r.Context()), paymentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentResponse{Payment: payment})
}

// ProceedInvoice finalizes a bank-transfer payment: the invoice is issued and
// emailed to the payer.
func (h *PaymentHandler) ProceedInvoice(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	payment, err := h.payments.ProceedInvoice(r.Context(), callerID(r.Context()), paymentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentResponse{Payment: payment})
}

// Checkout opens a card charge for the fee-inclusive amount and returns the
// client secret the frontend needs to collect the card.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	payment, clientSecret, err := h.payments.StartGatewayCheckout(r.Context(), callerID(r.Context()), paymentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentResponse{Payment: payment, ClientSecret: clientSecret})
}

// Confirm is the browser's success callback after the gateway accepted the
// charge. The service re-checks the intent with the gateway before settling.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	var req confirmRequest
	if err := decodeBody(r, &req); err != nil || req.IntentID == "" {
		respondBadRequest(w, "intent_id is required")
		return
	}

	payment, err := h.payments.ConfirmGatewayPayment(r.Context(), callerID(r.Context()), paymentID, req.IntentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentResponse{Payment: payment})
}

// Document streams the current invoice or receipt PDF.
func (h *PaymentHandler) Document(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	filename, pdf, err := h.payments.InvoiceDocument(r.Context(), callerID(r.Context()), paymentID)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
