package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/intakehq/voice-intake/internal/address"
	"github.com/intakehq/voice-intake/internal/api/router"
	appconfig "github.com/intakehq/voice-intake/internal/config"
	"github.com/intakehq/voice-intake/internal/extract"
	"github.com/intakehq/voice-intake/internal/intake"
	"github.com/intakehq/voice-intake/internal/notify"
	"github.com/intakehq/voice-intake/internal/observability/metrics"
	"github.com/intakehq/voice-intake/internal/patients"
	"github.com/intakehq/voice-intake/internal/schedule"
	"github.com/intakehq/voice-intake/internal/session"
	"github.com/intakehq/voice-intake/internal/slots"
	"github.com/intakehq/voice-intake/internal/transport"
	"github.com/intakehq/voice-intake/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting voice-intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Language model collaborator. Everything conversational depends
	// on it, so a missing key is fatal.
	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}
	llm, err := extract.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer llm.Close()

	extractor := extract.NewClient(llm, extract.Options{
		OfficeOpenHour:  cfg.OfficeOpenHour,
		OfficeCloseHour: cfg.OfficeCloseHour,
		WindowDays:      cfg.BookingWindowDays,
	}, logger)

	// Address verification: SmartyStreets when configured, trusting
	// passthrough otherwise.
	var verifier address.Verifier = address.PassthroughVerifier{}
	if smarty := address.NewSmartyClient(address.SmartyConfig{
		AuthID:    cfg.SmartyAuthID,
		AuthToken: cfg.SmartyAuthToken,
		BaseURL:   cfg.SmartyBaseURL,
	}, logger); smarty != nil {
		verifier = smarty
	} else {
		logger.Warn("smartystreets not configured, accepting extracted addresses as-is")
	}
	resolver := address.NewResolver(extractor, verifier, logger)

	// Persistence: Postgres when DATABASE_URL is set, in-memory
	// otherwise.
	var (
		slotStore   slots.Store
		patientRepo patients.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slotStore = slots.NewPostgresStore(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		logger.Info("using postgres storage")
	} else {
		slotStore = slots.NewMemoryStore()
		patientRepo = patients.NewInMemoryRepository()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	seedSlots(ctx, cfg, slotStore, logger)

	negotiator := schedule.NewNegotiator(extractor, slotStore,
		time.Duration(cfg.MaxAppointmentMinutes)*time.Minute)

	// Session state: Redis when configured, in-memory otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		sessions = session.NewRedisStore(redis.NewClient(opts), cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, using in-memory session store")
	}

	notifier := notify.NewConfirmationMailer(buildEmailSender(ctx, cfg, logger), cfg.OfficeName, logger)

	reg := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(reg)

	engine := intake.NewEngine(intake.Deps{
		Normalizer: extractor,
		Resolver:   resolver,
		Scheduler:  negotiator,
		Narrator:   extractor,
		Slots:      slotStore,
		Patients:   patientRepo,
		Notifier:   notifier,
		Policy: intake.Policy{
			MaxRetries:              cfg.MaxRetries,
			MaxCollaboratorFailures: cfg.MaxCollaboratorFailures,
			BookingWindowDays:       cfg.BookingWindowDays,
		},
		Logger:  logger,
		Metrics: intakeMetrics,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		IntakeHandler:  transport.NewIntakeHandler(engine, sessions, logger),
		MediaStream:    transport.NewMediaStreamServer(engine, sessions, buildTranscriberFactory(cfg, logger), nil, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// seedSlots loads slot inventory from the seed file, if one is
// configured.
func seedSlots(ctx context.Context, cfg *appconfig.Config, store slots.Store, logger *logging.Logger) {
	if cfg.SlotSeedFile == "" {
		return
	}
	loc, err := time.LoadLocation(cfg.OfficeTimezone)
	if err != nil {
		logger.Error("invalid office timezone", "tz", cfg.OfficeTimezone, "error", err)
		os.Exit(1)
	}
	seed, err := slots.LoadSeedFile(cfg.SlotSeedFile, loc, cfg.OfficeOpenHour, cfg.OfficeCloseHour)
	if err != nil {
		logger.Error("failed to load slot seed file", "path", cfg.SlotSeedFile, "error", err)
		os.Exit(1)
	}

	switch s := store.(type) {
	case *slots.PostgresStore:
		err = s.Seed(ctx, seed)
	case *slots.MemoryStore:
		s.Seed(seed)
	}
	if err != nil {
		logger.Error("failed to seed slots", "error", err)
		os.Exit(1)
	}
	logger.Info("seeded slot inventory", "slots", len(seed))
}

// buildEmailSender picks the configured provider, falling back to a
// logging stub so intake still completes without email credentials.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	provider := cfg.EmailProvider
	if provider == "auto" {
		switch {
		case cfg.SendGridAPIKey != "":
			provider = "sendgrid"
		case cfg.SESFromEmail != "":
			provider = "ses"
		default:
			provider = "stub"
		}
	}

	switch provider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("using sendgrid email sender")
			return sender
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			logger.Info("using SES email sender")
			return sender
		}
	}

	logger.Warn("no email provider configured, confirmations will only be logged")
	return notify.NewStubEmailSender(logger)
}

// buildTranscriberFactory selects the realtime STT provider.
func buildTranscriberFactory(cfg *appconfig.Config, logger *logging.Logger) transport.TranscriberFactory {
	provider := cfg.STTProvider
	if provider == "auto" {
		if cfg.AssemblyAIAPIKey != "" {
			provider = "assemblyai"
		} else {
			provider = "text"
		}
	}

	switch provider {
	case "assemblyai":
		logger.Info("using assemblyai transcription")
		return transport.NewAssemblyAIFactory(cfg.AssemblyAIAPIKey, logger)
	default:
		logger.Warn("no STT provider configured, media frames are treated as text")
		return transport.NewTextFactory()
	}
}
