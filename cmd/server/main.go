package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	httpapi "event-registration-backend/internal/api/http"
	"event-registration-backend/internal/billing"
	"event-registration-backend/internal/config"
	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/gateway"
	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/repository/postgres"
	"event-registration-backend/internal/security"
	"event-registration-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting registration server", "config", *configPath)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database", "host", cfg.Database.Host, "database", cfg.Database.Database)

	store := postgres.NewStore(db)

	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
	)
	stripeGateway := gateway.NewStripeGateway(cfg.Stripe.SecretKey)
	billingCfg := buildBillingConfig(cfg)

	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager)
	eventSvc := service.NewEventService(store.EventRepository, store.DiscountRepository)
	membershipSvc := service.NewMembershipService(
		store.MembershipRepository, store.PaymentRepository, store.UserRepository,
		buildMembershipCosts(cfg))
	registrationSvc := service.NewRegistrationService(
		store.EventRepository, store.RegistrationRepository, store.PaymentRepository,
		store.MembershipRepository, store.DiscountRepository, store.UserRepository,
		emailSvc)
	paymentSvc := service.NewPaymentService(
		store.PaymentRepository, store.UserRepository, stripeGateway, emailSvc,
		billingCfg, registrationSvc, membershipSvc)
	adminSvc := service.NewAdminService(
		store.EventRepository, store.RegistrationRepository, store.PaymentRepository,
		store.UserRepository, paymentSvc, emailSvc, billingCfg)

	handlers := httpapi.NewHandlers(authSvc, eventSvc, registrationSvc, paymentSvc, membershipSvc, adminSvc)
	router := httpapi.NewRouter(handlers, tokenManager)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}

// buildBillingConfig converts the YAML billing section into the typed form
// the invoice renderer works with.
func buildBillingConfig(cfg *config.Config) billing.Config {
	bankDetails := make(map[domain.Currency]string, len(cfg.Billing.BankDetails))
	for currency, details := range cfg.Billing.BankDetails {
		bankDetails[domain.Currency(currency)] = details
	}
	return billing.Config{
		RecipientName:    cfg.Billing.RecipientName,
		RecipientAddress: cfg.Billing.RecipientAddress,
		BankDetails:      bankDetails,
		DeadlineDays:     int32(cfg.Billing.PaymentDeadlineDays),
		NoVATForCards:    cfg.Billing.NoVATForCreditCards,
	}
}

// buildMembershipCosts parses the configured yearly prices. Validation already
// confirmed every value is a decimal.
func buildMembershipCosts(cfg *config.Config) service.MembershipCosts {
	prices := make(map[domain.MembershipType]decimal.Decimal, len(cfg.Billing.MembershipCosts))
	for mType, cost := range cfg.Billing.MembershipCosts {
		prices[domain.MembershipType(mType)] = decimal.RequireFromString(cost)
	}
	return service.MembershipCosts{
		Currency: domain.Currency(cfg.Billing.MembershipCurrency),
		Prices:   prices,
	}
}
