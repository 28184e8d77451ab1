package jobs

import (
	"context"
	"time"

	"event-registration-backend/internal/domain"
	"event-registration-backend/internal/logger"
)

// SweepStalePayments retires CREATED payments nobody touched within the
// configured TTL. Registrations keep their slot; a fresh payment is created
// when the participant returns.
func (jr *JobRunner) SweepStalePayments() {
	jr.runWithRecovery("SweepStalePayments", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		ttl := time.Duration(jr.config.Billing.StalePaymentTTLDays) * 24 * time.Hour
		swept, err := jr.services.Payment.SweepStale(ctx, ttl)
		if err != nil {
			logger.Error("Failed to sweep stale payments", "error", err)
			return
		}
		logger.Info("Swept stale payments", "count", swept, "ttl_days", jr.config.Billing.StalePaymentTTLDays)
	})
}

// SendInvoiceReminders nudges payers whose issued invoice passed the payment
// deadline without settling.
func (jr *JobRunner) SendInvoiceReminders() {
	jr.runWithRecovery("SendInvoiceReminders", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		payments, err := jr.store.PaymentRepository.ListByStatus(ctx, []domain.PaymentStatus{domain.PaymentIssued})
		if err != nil {
			logger.Error("Failed to list issued invoices", "error", err)
			return
		}

		now := time.Now()

		reminded := 0
		for i := range payments {
			payment := &payments[i]
			days := int32(jr.config.Billing.PaymentDeadlineDays)
			if payment.Data.Event != nil && payment.Data.Event.PaymentDeadlineDays > 0 {
				days = payment.Data.Event.PaymentDeadlineDays
			}
			cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
			if payment.UpdatedOn.After(cutoff) {
				continue
			}

			user, err := jr.store.UserRepository.GetByID(ctx, payment.Data.User.ID)
			if err != nil {
				logger.Error("Failed to load payer for reminder",
					"payment_id", payment.ID, "user_id", payment.Data.User.ID, "error", err)
				continue
			}

			subject := "membership"
			if payment.Data.Event != nil {
				subject = payment.Data.Event.Title
			}
			if err := jr.services.Email.SendInvoiceReminder(ctx, user.Email, user.Name,
				payment.InvoiceNoFormatted(), subject); err != nil {
				logger.Error("Failed to send invoice reminder",
					"payment_id", payment.ID, "error", err)
				continue
			}
			reminded++
		}
		logger.Info("Sent invoice reminders", "count", reminded, "candidates", len(payments))
	})
}
