package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	accountingapp "oliver-admin/internal/accounting/application"
	accountingrepo "oliver-admin/internal/accounting/infrastructure/postgres"
	accountinghttp "oliver-admin/internal/accounting/interfaces/http"
	"oliver-admin/internal/accounting/render"
	apihttp "oliver-admin/internal/api/http"
	"oliver-admin/internal/audit"
	"oliver-admin/internal/auth"
	"oliver-admin/internal/logging"
	"oliver-admin/internal/notify"
	"oliver-admin/internal/observability/metrics"
	"oliver-admin/internal/storage"
)

func main() {
	cfg := loadConfig()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	settings, err := accountingapp.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("accounting config error")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("db open error")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logging.Fatal().Err(err).Msg("db ping error")
	}
	metrics.Init(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, files, err := buildStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("storage init error")
	}

	hub := notify.NewHub()
	go hub.Run(ctx)
	notifiers := []notify.Notifier{hub}
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(cfg.WebhookURL, 5, 30*time.Second)
		if err != nil {
			logging.Fatal().Err(err).Msg("webhook notifier error")
		}
		notifiers = append(notifiers, webhook)
	}

	ledger := accountingrepo.NewLedgerReader(db)
	summaries, err := accountingapp.NewSummaryService(ledger, settings.CommissionRate, settings.Location)
	if err != nil {
		logging.Fatal().Err(err).Msg("summary service error")
	}
	projector, err := accountingapp.NewProjector(ledger, summaries)
	if err != nil {
		logging.Fatal().Err(err).Msg("projector error")
	}
	renderer := render.NewRenderer(render.Options{
		Brand:      settings.Brand,
		PDFMaxRows: settings.PDFMaxRows,
		Location:   settings.Location,
	})
	exports, err := accountingapp.NewExportService(
		accountingrepo.NewExportRepository(db),
		projector,
		renderer,
		store,
		notify.NewMultiNotifier(notifiers...),
		accountingapp.WithLinkTTL(settings.LinkTTL),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("export service error")
	}
	handler, err := accountinghttp.NewHandler(summaries, exports, audit.NewRepository(db),
		accountinghttp.WithLocation(settings.Location),
		accountinghttp.WithHistoryLimit(settings.HistoryLimit),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("accounting handler error")
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/files/"})
	router := apihttp.NewRouter(apihttp.Config{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apihttp.Deps{
		DB:         db,
		Auth:       auth.NewMiddleware([]byte(cfg.JWTSecret), policy),
		Accounting: handler,
		Files:      files,
		Realtime:   hub.ServeWS,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageBackend).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown error")
	}
	if err := exports.Wait(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("exports still running at shutdown")
	}
}

// buildStore returns the object store and, for the filesystem backend, the
// handler serving its signed links.
func buildStore(cfg config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.StorageBackend {
	case "s3":
		s3, err := storage.NewS3Store(cfg.S3)
		return s3, nil, err
	default:
		fs, err := storage.NewFileStore(cfg.StorageRoot, strings.TrimRight(cfg.PublicBaseURL, "/")+"/files", []byte(cfg.SigningSecret))
		if err != nil {
			return nil, nil, err
		}
		return fs, fs.Handler(), nil
	}
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	JWTSecret          string
	LogLevel           string
	LogFormat          string
	StorageBackend     string
	StorageRoot        string
	SigningSecret      string
	PublicBaseURL      string
	S3                 storage.S3Config
	WebhookURL         string
	RateLimitPerMinute int
	CORSOrigins        []string
	ShutdownTimeout    time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
		LogFormat:      getenvDefault("LOG_FORMAT", "json"),
		StorageBackend: getenvDefault("STORAGE_BACKEND", "fs"),
		StorageRoot:    getenvDefault("STORAGE_ROOT", "data/exports"),
		SigningSecret:  getenvDefault("STORAGE_SIGNING_SECRET", ""),
		PublicBaseURL:  getenvDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		S3: storage.S3Config{
			Endpoint:  getenvDefault("S3_ENDPOINT", ""),
			Bucket:    getenvDefault("S3_BUCKET", ""),
			AccessKey: getenvDefault("S3_ACCESS_KEY", ""),
			SecretKey: getenvDefault("S3_SECRET_KEY", ""),
			Region:    getenvDefault("S3_REGION", "us-east-1"),
			UseSSL:    getenvBoolDefault("S3_USE_SSL", true),
		},
		WebhookURL:         getenvDefault("EXPORT_WEBHOOK_URL", ""),
		RateLimitPerMinute: getenvIntDefault("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:        splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "")),
		ShutdownTimeout:    getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
	if cfg.DatabaseURL == "" {
		logging.Fatal().Msg("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		logging.Fatal().Msg("AUTH_JWT_SECRET is required")
	}
	if cfg.SigningSecret == "" {
		cfg.SigningSecret = cfg.JWTSecret
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
