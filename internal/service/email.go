package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"event-registration-backend/internal/logger"
)

type sendgridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendgridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendgridEmailService) send(_ context.Context, to, toName, subject, plainText string, attachmentName string, attachment []byte) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(recipient)
	message.AddPersonalizations(personalization)

	content := mail.NewContent("text/plain", plainText)
	message.AddContent(content)

	if attachment != nil {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(attachment))
		a.SetType("application/pdf")
		a.SetFilename(attachmentName)
		a.SetDisposition("attachment")
		message.AddAttachment(a)
	}

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

func (s *sendgridEmailService) SendApplicationSubmitted(ctx context.Context, email, name, eventTitle string) error {
	subject := fmt.Sprintf("Application received: %s", eventTitle)
	body := fmt.Sprintf("Dear %s,\n\nWe received your application for %s. You will hear from us once the organizers have reviewed it.\n", name, eventTitle)
	return s.send(ctx, email, name, subject, body, "", nil)
}

func (s *sendgridEmailService) SendApplicationAccepted(ctx context.Context, email, name, eventTitle string, waitlisted bool) error {
	if waitlisted {
		subject := fmt.Sprintf("Waitlisted: %s", eventTitle)
		body := fmt.Sprintf("Dear %s,\n\nYour application for %s is on the waiting list. We will notify you when a spot opens up.\n", name, eventTitle)
		return s.send(ctx, email, name, subject, body, "", nil)
	}
	subject := fmt.Sprintf("Application accepted: %s", eventTitle)
	body := fmt.Sprintf("Dear %s,\n\nYour application for %s was accepted. Please log in to choose your registration option and complete the payment.\n", name, eventTitle)
	return s.send(ctx, email, name, subject, body, "", nil)
}

func (s *sendgridEmailService) SendRegistrationSuccess(ctx context.Context, email, name, eventTitle string) error {
	subject := fmt.Sprintf("Registration confirmed: %s", eventTitle)
	body := fmt.Sprintf("Dear %s,\n\nYour registration for %s is confirmed. We look forward to seeing you.\n", name, eventTitle)
	return s.send(ctx, email, name, subject, body, "", nil)
}

func (s *sendgridEmailService) SendInvoice(ctx context.Context, email, name, invoiceNo string, pdf []byte) error {
	subject := fmt.Sprintf("Invoice %s", invoiceNo)
	body := fmt.Sprintf("Dear %s,\n\nPlease find invoice %s attached. Payment instructions are on the document.\n", name, invoiceNo)
	return s.send(ctx, email, name, subject, body, fmt.Sprintf("invoice_%s.pdf", strings.TrimPrefix(invoiceNo, "#")), pdf)
}

func (s *sendgridEmailService) SendReceipt(ctx context.Context, email, name, invoiceNo string, pdf []byte) error {
	subject := fmt.Sprintf("Payment received, receipt %s", invoiceNo)
	body := fmt.Sprintf("Dear %s,\n\nThank you, we received your payment. Receipt %s is attached.\n", name, invoiceNo)
	return s.send(ctx, email, name, subject, body, fmt.Sprintf("receipt_%s.pdf", strings.TrimPrefix(invoiceNo, "#")), pdf)
}

func (s *sendgridEmailService) SendCancellation(ctx context.Context, email, name, eventTitle string) error {
	subject := fmt.Sprintf("Registration cancelled: %s", eventTitle)
	body := fmt.Sprintf("Dear %s,\n\nYour registration for %s has been cancelled. Any unpaid invoice for it is void.\n", name, eventTitle)
	return s.send(ctx, email, name, subject, body, "", nil)
}

func (s *sendgridEmailService) SendInvoiceReminder(ctx context.Context, email, name, invoiceNo, eventTitle string) error {
	subject := fmt.Sprintf("Payment reminder for %s", eventTitle)
	body := fmt.Sprintf("Dear %s,\n\nInvoice %s for %s is still unpaid past its deadline. Please settle it to keep your registration.\n", name, invoiceNo, eventTitle)
	return s.send(ctx, email, name, subject, body, "", nil)
}
