package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/intakehq/voice-intake/internal/patients"
	"github.com/intakehq/voice-intake/pkg/logging"
)

// ConfirmationMailer renders and sends appointment confirmation
// emails through whichever EmailSender is configured.
type ConfirmationMailer struct {
	sender EmailSender
	office string
	logger *logging.Logger
}

// NewConfirmationMailer wires a mailer to a sender. The office name
// appears in the email subject and signature.
func NewConfirmationMailer(sender EmailSender, office string, logger *logging.Logger) *ConfirmationMailer {
	if sender == nil {
		panic("notify: email sender required")
	}
	if office == "" {
		office = "Medical Office"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmationMailer{sender: sender, office: office, logger: logger}
}

// SendConfirmation emails the caller their booked appointment
// details. The record must carry a validated email address.
func (m *ConfirmationMailer) SendConfirmation(ctx context.Context, rec patients.Record, appt patients.Appointment) error {
	if rec.Email == "" {
		return fmt.Errorf("notify: record has no email address")
	}

	name := strings.TrimSpace(rec.FirstName + " " + rec.LastName)
	subject := fmt.Sprintf("Your appointment with %s is confirmed", m.office)
	body, html := renderConfirmation(m.office, name, appt)

	err := m.sender.Send(ctx, EmailMessage{
		To:      rec.Email,
		ToName:  name,
		Subject: subject,
		Body:    body,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("notify: confirmation: %w", err)
	}
	m.logger.Info("confirmation email sent", "to", rec.Email, "doctor", appt.Doctor)
	return nil
}

func renderConfirmation(office, name string, appt patients.Appointment) (body, html string) {
	doctor := displayDoctor(appt.Doctor)
	day := appt.Start.Format("Monday, January 2, 2006")
	window := appt.Start.Format("3:04 PM") + " to " + appt.End.Format("3:04 PM")

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your appointment with %s is confirmed.\n\n", doctor)
	fmt.Fprintf(&b, "When: %s, %s\n", day, window)
	if appt.Reason != "" {
		fmt.Fprintf(&b, "Reason for visit: %s\n", appt.Reason)
	}
	fmt.Fprintf(&b, "\nIf you need to change or cancel, please call the office.\n\n%s\n", office)
	body = b.String()

	var h strings.Builder
	fmt.Fprintf(&h, "<p>Hi %s,</p>", name)
	fmt.Fprintf(&h, "<p>Your appointment with <strong>%s</strong> is confirmed.</p>", doctor)
	fmt.Fprintf(&h, "<p><strong>When:</strong> %s, %s</p>", day, window)
	if appt.Reason != "" {
		fmt.Fprintf(&h, "<p><strong>Reason for visit:</strong> %s</p>", appt.Reason)
	}
	fmt.Fprintf(&h, "<p>If you need to change or cancel, please call the office.</p><p>%s</p>", office)
	html = h.String()
	return body, html
}

// displayDoctor renders the stored lowercase doctor name for humans.
func displayDoctor(doctor string) string {
	words := strings.Fields(doctor)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return "Dr. " + strings.Join(words, " ")
}
