package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"event-registration-backend/internal/service"
)

// AdminHandler exposes the staff bulk operations. Every route here sits behind
// the staff middleware.
type AdminHandler struct {
	admin    service.AdminService
	payments service.PaymentService
}

func NewAdminHandler(admin service.AdminService, payments service.PaymentService) *AdminHandler {
	return &AdminHandler{admin: admin, payments: payments}
}

type paymentIDsRequest struct {
	PaymentIDs []int32 `json:"payment_ids"`
}

func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	regs, err := h.admin.ListRegistrations(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, regs)
}

func (h *AdminHandler) decodeIDs(w http.ResponseWriter, r *http.Request) ([]int32, bool) {
	var req paymentIDsRequest
	if err := decodeBody(r, &req); err != nil || len(req.PaymentIDs) == 0 {
		respondBadRequest(w, "payment_ids is required")
		return nil, false
	}
	return req.PaymentIDs, true
}

func (h *AdminHandler) MarkInvoicesPaid(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.admin.MarkInvoicesPaid(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) EmailInvoices(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.admin.EmailInvoices(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) EmailReceipts(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}

	result, err := h.admin.EmailReceipts(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DownloadDocuments streams a zip of the selected payments' PDFs. Skip
// messages travel in a response header since the body is the archive.
func (h *AdminHandler) DownloadDocuments(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}

	archive, result, err := h.admin.DownloadDocuments(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.zip"`)
	if result.Skipped > 0 {
		w.Header().Set("X-Skipped-Documents", strconv.Itoa(result.Skipped))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(archive)
}

// MarkPaid marks a single bank-transfer invoice as settled.
func (h *AdminHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(r, "id")
	if !ok {
		respondBadRequest(w, "invalid payment id")
		return
	}

	payment, err := h.payments.MarkPaid(r.Context(), paymentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentResponse{Payment: payment})
}
