package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/config"
	"github.com/tattva-health/portal-service/internal/dashboard"
	"github.com/tattva-health/portal-service/internal/db"
	"github.com/tattva-health/portal-service/internal/directory"
	"github.com/tattva-health/portal-service/internal/doctor"
	"github.com/tattva-health/portal-service/internal/gateway"
	httpserver "github.com/tattva-health/portal-service/internal/http"
	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/logging"
	"github.com/tattva-health/portal-service/internal/messaging"
	"github.com/tattva-health/portal-service/internal/otp"
	"github.com/tattva-health/portal-service/internal/owner"
	"github.com/tattva-health/portal-service/internal/patient"
	"github.com/tattva-health/portal-service/internal/session"
	"github.com/tattva-health/portal-service/internal/telemetry"
	"go.uber.org/zap"
)

const purgeInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Errorw("portal-service stopped", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitProvider(ctx, telemetry.Config{
		ServiceName:      cfg.ServiceName,
		ServiceNamespace: cfg.ServiceNamespace,
		ServiceVersion:   cfg.ServiceVersion,
		Environment:      cfg.Environment,
		OTLPEndpoint:     cfg.OTLPEndpoint,
		TracesSampler:    cfg.TracesSampler,
		MetricsInterval:  cfg.MetricsExportInterval,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.Postgres(), logger)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(ctx, database); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient = redis.NewClient(cfg.Redis())
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		logger.Infow("✓ Connected to Redis", "addr", cfg.RedisAddr)
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	identityRepo := identity.NewRepository(database)

	codes := newCodeStore(cfg, database, redisClient)
	otpService := otp.NewService(identityRepo, codes, newGateway(cfg, logger), logger,
		otp.WithPublisher(publisher),
		otp.WithMetrics(metrics),
		otp.WithTTL(cfg.CodeTTL),
		otp.WithDispatchTimeout(cfg.GatewayTimeout),
		otp.WithCodeLogging(cfg.LogCodes && cfg.IsDevelopment()),
	)
	defer otpService.Wait()

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.SessionStore == config.SessionStoreRedis {
		sessionStore = session.NewRedisStore(redisClient)
	}
	sessions := session.NewManager(sessionStore, session.Config{
		Secret:     cfg.SessionSecret,
		TTL:        cfg.SessionTTL,
		CookieName: cfg.SessionCookieName,
		Secure:     cfg.SessionCookieSecure,
	})
	go purgeExpired(ctx, codes, sessions, logger)

	perms, err := auth.LoadPermissions(cfg.PermissionsFile)
	if err != nil {
		return err
	}

	updater, err := doctor.NewAvailabilityUpdater(cfg.AvailabilityAuth, identityRepo)
	if err != nil {
		return err
	}
	logger.Infow("doctor availability strategy", "strategy", cfg.AvailabilityAuth)

	authorizer := auth.NewAuthorizer(identityRepo, metrics)
	doctorService := doctor.NewService(identityRepo, updater, publisher, metrics, logger)
	ownerService := owner.NewService(identityRepo, publisher, metrics, logger)

	router := httpserver.NewRouter(httpserver.Dependencies{
		ServiceName: cfg.ServiceName,
		Origins:     cfg.Origins(),
		Sessions:    sessions,
		Permissions: perms,
		Metrics:     metrics,
		Health:      database,

		RateLimiter:       httpserver.NewIPRateLimiter(ctx, cfg.RequestCodeRatePerMinute, cfg.RequestCodeBurst, metrics, logger),
		VerifyRateLimiter: httpserver.NewIPRateLimiter(ctx, cfg.VerifyCodeRatePerMinute, cfg.VerifyCodeBurst, metrics, logger),

		OTP:       otp.NewHandler(otpService, sessions, logger),
		Patient:   patient.NewHandler(patient.NewService(identityRepo), logger),
		Doctor:    doctor.NewHandler(doctorService, sessions, logger),
		Owner:     owner.NewHandler(ownerService, sessions, authorizer, logger),
		Dashboard: dashboard.NewHandler(dashboard.NewService(dashboard.NewRepository(database)), authorizer, logger),
		Directory: directory.NewHandler(directory.NewService(identityRepo), logger),
		Session:   session.NewHandler(sessions, publisher, logger),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("portal-service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newPublisher(cfg *config.Config, logger *zap.SugaredLogger) messaging.PublisherInterface {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, events are dropped")
		return messaging.NopPublisher{}
	}
	p, err := messaging.NewPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warnw("RabbitMQ unavailable, events are dropped", "error", err)
		return messaging.NopPublisher{}
	}
	return p
}

func newCodeStore(cfg *config.Config, database *sql.DB, redisClient *redis.Client) otp.CodeStore {
	switch cfg.CodeStore {
	case config.CodeStoreRedis:
		return otp.NewRedisStore(redisClient, cfg.CodeTTL)
	case config.CodeStoreMemory:
		return otp.NewMemoryStore(cfg.CodeTTL)
	default:
		return otp.NewPostgresStore(database, cfg.CodeTTL)
	}
}

func newGateway(cfg *config.Config, logger *zap.SugaredLogger) *gateway.UltramsgClient {
	gw := gateway.NewUltramsgClient(gateway.Config{
		InstanceID:  cfg.UltramsgInstanceID,
		Token:       cfg.UltramsgToken,
		BaseURL:     cfg.UltramsgBaseURL,
		CountryCode: cfg.CountryCode,
		Timeout:     cfg.GatewayTimeout,
		MaxFailures: cfg.GatewayMaxFailures,
		Cooldown:    cfg.GatewayCooldown,
	}, logger)
	if !gw.Configured() {
		logger.Warn("UltraMsg credentials missing, codes will not be delivered")
	}
	return gw
}

// purgeExpired drops stale codes and sessions once per purgeInterval.
func purgeExpired(ctx context.Context, codes otp.CodeStore, sessions *session.Manager, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := codes.PurgeExpired(ctx, now); err != nil {
				logger.Warnw("failed to purge expired codes", "error", err)
			} else if n > 0 {
				logger.Debugw("purged expired codes", "count", n)
			}
			if n, err := sessions.PurgeExpired(ctx); err != nil {
				logger.Warnw("failed to purge expired sessions", "error", err)
			} else if n > 0 {
				logger.Debugw("purged expired sessions", "count", n)
			}
		}
	}
}
