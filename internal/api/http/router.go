// Package http wires the service layer onto a gorilla/mux router. Handlers
// stay thin: decode, delegate, respond. All authorization decisions beyond
// the token check live in the services.
package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/security"
	"event-registration-backend/internal/service"
)

// Handlers collects the handler groups mounted by NewRouter.
type Handlers struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	Payments      *PaymentHandler
	Memberships   *MembershipHandler
	Admin         *AdminHandler
}

// NewHandlers builds the handler groups from the service layer.
func NewHandlers(
	auth service.AuthService,
	events service.EventService,
	registrations service.RegistrationService,
	payments service.PaymentService,
	memberships service.MembershipService,
	admin service.AdminService,
) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(auth),
		Events:        NewEventHandler(events),
		Registrations: NewRegistrationHandler(registrations),
		Payments:      NewPaymentHandler(payments),
		Memberships:   NewMembershipHandler(memberships),
		Admin:         NewAdminHandler(admin, payments),
	}
}

// NewRouter mounts all routes under /api/v1.
func NewRouter(h *Handlers, tm security.TokenManager) *mux.Router {
	auth := NewAuthMiddleware(tm)

	root := mux.NewRouter()
	root.Use(requestLogging)
	api := root.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/auth/signup", h.Auth.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/membership/costs", h.Memberships.Costs).Methods(http.MethodGet)
	api.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	// Authenticated
	user := api.NewRoute().Subrouter()
	user.Use(auth.RequireUser)

	user.HandleFunc("/profile", h.Auth.GetProfile).Methods(http.MethodGet)
	user.HandleFunc("/profile", h.Auth.UpdateProfile).Methods(http.MethodPut)

	user.HandleFunc("/events", h.Events.List).Methods(http.MethodGet)
	user.HandleFunc("/events/{code}", h.Events.Get).Methods(http.MethodGet)

	user.HandleFunc("/events/{code}/register", h.Registrations.Register).Methods(http.MethodPost)
	user.HandleFunc("/events/{code}/registration", h.Registrations.GetOwn).Methods(http.MethodGet)
	user.HandleFunc("/registrations", h.Registrations.ListOwn).Methods(http.MethodGet)
	user.HandleFunc("/registrations/{id}/select-option", h.Registrations.SelectOption).Methods(http.MethodPost)
	user.HandleFunc("/registrations/{id}/withdraw", h.Registrations.Withdraw).Methods(http.MethodPost)

	user.HandleFunc("/payments/{id}", h.Payments.Get).Methods(http.MethodGet)
	user.HandleFunc("/payments/{id}/proceed-invoice", h.Payments.ProceedInvoice).Methods(http.MethodPost)
	user.HandleFunc("/payments/{id}/checkout", h.Payments.Checkout).Methods(http.MethodPost)
	user.HandleFunc("/payments/{id}/confirm", h.Payments.Confirm).Methods(http.MethodPost)
	user.HandleFunc("/payments/{id}/document", h.Payments.Document).Methods(http.MethodGet)

	user.HandleFunc("/membership", h.Memberships.Apply).Methods(http.MethodPost)
	user.HandleFunc("/membership", h.Memberships.GetOwn).Methods(http.MethodGet)

	// Staff
	staff := api.PathPrefix("/admin").Subrouter()
	staff.Use(auth.RequireStaff)

	staff.HandleFunc("/events", h.Events.Create).Methods(http.MethodPost)
	staff.HandleFunc("/events/{code}", h.Events.Update).Methods(http.MethodPut)
	staff.HandleFunc("/events/{code}/discount-codes", h.Events.CreateDiscountCode).Methods(http.MethodPost)
	staff.HandleFunc("/events/{code}/group-discounts", h.Events.CreateGroupDiscount).Methods(http.MethodPost)
	staff.HandleFunc("/events/{code}/registrations", h.Admin.ListRegistrations).Methods(http.MethodGet)

	staff.HandleFunc("/registrations/{id}/decide", h.Registrations.Decide).Methods(http.MethodPost)
	staff.HandleFunc("/registrations/{id}/cancel", h.Registrations.Cancel).Methods(http.MethodPost)

	staff.HandleFunc("/payments/{id}/mark-paid", h.Admin.MarkPaid).Methods(http.MethodPost)
	staff.HandleFunc("/payments/mark-paid", h.Admin.MarkInvoicesPaid).Methods(http.MethodPost)
	staff.HandleFunc("/payments/email-invoices", h.Admin.EmailInvoices).Methods(http.MethodPost)
	staff.HandleFunc("/payments/email-receipts", h.Admin.EmailReceipts).Methods(http.MethodPost)
	staff.HandleFunc("/payments/download", h.Admin.DownloadDocuments).Methods(http.MethodPost)

	return root
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}
