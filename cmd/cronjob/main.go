package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"event-registration-backend/internal/billing"
	"event-registration-backend/internal/config"
	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/gateway"
	"event-registration-backend/internal/jobs"
	"event-registration-backend/internal/logger"
	"event-registration-backend/internal/repository/postgres"
	"event-registration-backend/internal/scheduler"
	"event-registration-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "path to configuration file")
	runOnce := flag.String("run-once", "", "run a single job and exit (sweep-stale-payments, send-invoice-reminders, nightly)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting cron job runner", "config", *configPath)

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
	jobRunner := jobs.NewJobRunner(db, store, buildJobServices(cfg, store), cfg)

	if *runOnce != "" {
		runJobOnce(jobRunner, *runOnce)
		return
	}

	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	logger.Info("Scheduler running",
		"sweep_stale_payments", cfg.Scheduler.SweepStalePayments,
		"send_invoice_reminders", cfg.Scheduler.SendInvoiceReminders)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	sched.Stop()
	logger.Info("Scheduler stopped")
}

// buildJobServices wires the service slice the jobs need. The jobs reuse the
// same payment settlement path as the API so a swept or reminded payment
// behaves identically either way.
func buildJobServices(cfg *config.Config, store *postgres.Store) *jobs.Services {
	bankDetails := make(map[domain.Currency]string, len(cfg.Billing.BankDetails))
	for currency, details := range cfg.Billing.BankDetails {
		bankDetails[domain.Currency(currency)] = details
	}
	billingCfg := billing.Config{
		RecipientName:    cfg.Billing.RecipientName,
		RecipientAddress: cfg.Billing.RecipientAddress,
		BankDetails:      bankDetails,
		DeadlineDays:     int32(cfg.Billing.PaymentDeadlineDays),
		NoVATForCards:    cfg.Billing.NoVATForCreditCards,
	}

	prices := make(map[domain.MembershipType]decimal.Decimal, len(cfg.Billing.MembershipCosts))
	for mType, cost := range cfg.Billing.MembershipCosts {
		prices[domain.MembershipType(mType)] = decimal.RequireFromString(cost)
	}

	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	membershipSvc := service.NewMembershipService(
		store.MembershipRepository, store.PaymentRepository, store.UserRepository,
		service.MembershipCosts{Currency: domain.Currency(cfg.Billing.MembershipCurrency), Prices: prices})
	registrationSvc := service.NewRegistrationService(
		store.EventRepository, store.RegistrationRepository, store.PaymentRepository,
		store.MembershipRepository, store.DiscountRepository, store.UserRepository,
		emailSvc)
	paymentSvc := service.NewPaymentService(
		store.PaymentRepository, store.UserRepository,
		gateway.NewStripeGateway(cfg.Stripe.SecretKey), emailSvc,
		billingCfg, registrationSvc, membershipSvc)

	return &jobs.Services{
		Email:   emailSvc,
		Payment: paymentSvc,
	}
}

func runJobOnce(jobRunner *jobs.JobRunner, name string) {
	start := time.Now()
	logger.Info("Running single job", "job", name)

	switch name {
	case "sweep-stale-payments":
		jobRunner.SweepStalePayments()
	case "send-invoice-reminders":
		jobRunner.SendInvoiceReminders()
	case "nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job", "job", name)
		os.Exit(1)
	}

	logger.Info("Job finished", "job", name, "duration", time.Since(start).String())
}
