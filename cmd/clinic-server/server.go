package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ampara/clinic/internal/config"
	"github.com/ampara/clinic/internal/domain/clinical"
	"github.com/ampara/clinic/internal/domain/identity"
	"github.com/ampara/clinic/internal/domain/patient"
	"github.com/ampara/clinic/internal/domain/reports"
	"github.com/ampara/clinic/internal/domain/scheduling"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/db"
	"github.com/ampara/clinic/internal/platform/docstore"
	"github.com/ampara/clinic/internal/platform/events"
	"github.com/ampara/clinic/internal/platform/httpx"
	"github.com/ampara/clinic/internal/platform/middleware"
)

const version = "1.0.0"

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.DevSecretInUse {
		logger.Warn().Msg("JWT_SECRET is not set, using the development secret")
	}

	ctx := context.Background()
	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open document store")
	}
	defer closeStore(store, pool)
	logger.Info().Str("driver", store.Driver()).Msg("connected to document store")

	pub := newPublisher(cfg, logger)
	defer pub.Close()

	e, err := newApp(cfg, logger, store, pool, pub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newApp wires repositories, services and handlers onto a fresh echo
// instance. pool is nil unless the postgres backend is active.
func newApp(cfg *config.Config, logger zerolog.Logger, store docstore.Store, pool *pgxpool.Pool, pub events.Publisher) (*echo.Echo, error) {
	issuer, err := auth.NewTokenIssuer(tokenConfig(cfg))
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout()))
	e.Use(auth.Authenticate(issuer, auth.AuthSkipper))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		ExpiresIn:         3 * time.Minute,
	}))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(store, pool))

	patients := patient.NewRepo(store)
	appointments := scheduling.NewAppointmentRepo(store)
	evolutions := clinical.NewEvolutionRepo(store)
	medicalReports := clinical.NewMedicalReportRepo(store)

	identitySvc := identity.NewService(identity.NewUserRepo(store), auth.NewPasswordHasher(cfg.BcryptCost), issuer, pub)
	patientSvc := patient.NewService(patients, pub)
	schedulingSvc := scheduling.NewService(appointments, pub)
	clinicalSvc := clinical.NewService(evolutions, medicalReports)
	reportsSvc := reports.NewService(patients, evolutions, medicalReports, appointments)

	api := e.Group("/api")
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(api)
	reports.NewHandler(reportsSvc).RegisterRoutes(api)

	return e, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// openStore connects the backend named by STORE_DRIVER. The returned pool
// is only set for postgres.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, *pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := docstore.OpenMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		return store, nil, err
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewPostgresStore(pool), pool, nil
	case config.DriverMemory:
		return docstore.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func closeStore(store docstore.Store, pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Close(ctx)
	if pool != nil {
		pool.Close()
	}
}

// newPublisher returns the Kafka publisher when brokers are configured and
// the log publisher otherwise. Either way failures never reach callers.
func newPublisher(cfg *config.Config, logger zerolog.Logger) events.Publisher {
	var next events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Warn().Err(err).Msg("kafka publisher unavailable, falling back to log events")
		} else {
			logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", kp.Topic()).Msg("publishing events to kafka")
			next = kp
		}
	}
	return events.NewBestEffort(next, logger).WithTimeout(cfg.EventPublishTimeout())
}

func tokenConfig(cfg *config.Config) auth.TokenConfig {
	return auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		Expiration: cfg.JWTExpiration(),
	}
}
