package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/intakehq/voice-intake/internal/patients"
)

type recordingSender struct {
	last EmailMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	s.last = msg
	return s.err
}

func testAppointment() patients.Appointment {
	start := time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC)
	return patients.Appointment{
		SlotID: "slot-1",
		Doctor: "john smith",
		Start:  start,
		End:    start.Add(30 * time.Minute),
		Reason: "annual checkup",
	}
}

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "office@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "office@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Medical Office" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestNewSESSender_NilWithoutClient(t *testing.T) {
	if sender := NewSESSender(nil, SESConfig{FromEmail: "office@example.com"}, nil); sender != nil {
		t.Error("expected nil sender without SES client")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.com", Subject: "x"}); err != nil {
		t.Errorf("stub send: %v", err)
	}
}

func TestConfirmationMailerSend(t *testing.T) {
	sender := &recordingSender{}
	mailer := NewConfirmationMailer(sender, "Hayes Valley Medical", nil)

	rec := patients.Record{
		FirstName: "Jane", LastName: "Doe",
		Email: "jane.doe@example.com",
	}
	if err := mailer.SendConfirmation(context.Background(), rec, testAppointment()); err != nil {
		t.Fatalf("SendConfirmation: %v", err)
	}

	if sender.last.To != "jane.doe@example.com" || sender.last.ToName != "Jane Doe" {
		t.Errorf("recipient wrong: %+v", sender.last)
	}
	if !strings.Contains(sender.last.Subject, "Hayes Valley Medical") {
		t.Errorf("subject = %q", sender.last.Subject)
	}
	for _, want := range []string{"Dr. John Smith", "Thursday, September 3, 2026", "3:00 PM", "annual checkup"} {
		if !strings.Contains(sender.last.Body, want) {
			t.Errorf("body missing %q:\n%s", want, sender.last.Body)
		}
	}
	if !strings.Contains(sender.last.HTML, "<strong>Dr. John Smith</strong>") {
		t.Errorf("html missing doctor: %s", sender.last.HTML)
	}
}

func TestConfirmationMailerRequiresEmail(t *testing.T) {
	mailer := NewConfirmationMailer(&recordingSender{}, "", nil)
	err := mailer.SendConfirmation(context.Background(), patients.Record{FirstName: "Jane"}, testAppointment())
	if err == nil {
		t.Error("record without email accepted")
	}
}

func TestConfirmationMailerPropagatesSendError(t *testing.T) {
	boom := errors.New("smtp down")
	mailer := NewConfirmationMailer(&recordingSender{err: boom}, "", nil)
	rec := patients.Record{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	if err := mailer.SendConfirmation(context.Background(), rec, testAppointment()); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped send error", err)
	}
}
