package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	OfficeName    string

	// Intake flow policy
	MaxRetries              int
	MaxCollaboratorFailures int
	SessionTTL              time.Duration

	// Appointment policy
	MaxAppointmentMinutes int
	BookingWindowDays     int
	OfficeOpenHour        int
	OfficeCloseHour       int
	OfficeTimezone        string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Gemini extraction
	GeminiAPIKey  string
	GeminiModelID string

	// SmartyStreets address verification
	SmartyAuthID    string
	SmartyAuthToken string
	SmartyBaseURL   string

	// AssemblyAI realtime transcription
	AssemblyAIAPIKey string
	STTProvider      string

	// Confirmation email
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AWSRegion         string
	SESFromEmail      string
	SESFromName       string

	// Slot seeding for local/demo runs
	SlotSeedFile string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		OfficeName:    getEnv("OFFICE_NAME", "Medical Office"),

		MaxRetries:              getEnvAsInt("INTAKE_MAX_RETRIES", 3),
		MaxCollaboratorFailures: getEnvAsInt("INTAKE_MAX_COLLABORATOR_FAILURES", 2),
		SessionTTL:              getEnvAsDuration("INTAKE_SESSION_TTL", 4*time.Hour),

		MaxAppointmentMinutes: getEnvAsInt("MAX_APPOINTMENT_MINUTES", 60),
		BookingWindowDays:     getEnvAsInt("BOOKING_WINDOW_DAYS", 14),
		OfficeOpenHour:        getEnvAsInt("OFFICE_OPEN_HOUR", 9),
		OfficeCloseHour:       getEnvAsInt("OFFICE_CLOSE_HOUR", 17),
		OfficeTimezone:        getEnv("OFFICE_TZ", "America/New_York"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		SmartyAuthID:    getEnv("SMARTY_AUTH_ID", ""),
		SmartyAuthToken: getEnv("SMARTY_AUTH_TOKEN", ""),
		SmartyBaseURL:   getEnv("SMARTY_BASE_URL", "https://us-street.api.smartystreets.com"),

		AssemblyAIAPIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		STTProvider:      getEnv("STT_PROVIDER", "auto"),

		EmailProvider:     getEnv("EMAIL_PROVIDER", "auto"),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Front Desk"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Front Desk"),

		SlotSeedFile: getEnv("SLOT_SEED_FILE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
