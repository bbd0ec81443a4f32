package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries: got %d, want 3", cfg.MaxRetries)
	}
	if cfg.MaxCollaboratorFailures != 2 {
		t.Errorf("MaxCollaboratorFailures: got %d, want 2", cfg.MaxCollaboratorFailures)
	}
	if cfg.MaxAppointmentMinutes != 60 {
		t.Errorf("MaxAppointmentMinutes: got %d, want 60", cfg.MaxAppointmentMinutes)
	}
	if cfg.BookingWindowDays != 14 {
		t.Errorf("BookingWindowDays: got %d, want 14", cfg.BookingWindowDays)
	}
	if cfg.OfficeOpenHour != 9 || cfg.OfficeCloseHour != 17 {
		t.Errorf("office hours: got %d-%d, want 9-17", cfg.OfficeOpenHour, cfg.OfficeCloseHour)
	}
	if cfg.SessionTTL != 4*time.Hour {
		t.Errorf("SessionTTL: got %v, want 4h", cfg.SessionTTL)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Errorf("GeminiModelID: got %q", cfg.GeminiModelID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("INTAKE_MAX_RETRIES", "5")
	t.Setenv("INTAKE_SESSION_TTL", "30m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("MAX_APPOINTMENT_MINUTES", "45")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port: got %q, want 9999", cfg.Port)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries: got %d, want 5", cfg.MaxRetries)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL: got %v, want 30m", cfg.SessionTTL)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS: got false, want true")
	}
	if cfg.MaxAppointmentMinutes != 45 {
		t.Errorf("MaxAppointmentMinutes: got %d, want 45", cfg.MaxAppointmentMinutes)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("INTAKE_MAX_RETRIES", "not-a-number")
	cfg := Load()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries: got %d, want fallback 3", cfg.MaxRetries)
	}
}
