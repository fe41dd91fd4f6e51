package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/nexsched/libs/auth"
	"github.com/md-rashed-zaman/nexsched/libs/config"
	"github.com/md-rashed-zaman/nexsched/libs/db"
	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/libs/kafkax"
	otelx "github.com/md-rashed-zaman/nexsched/libs/otel"
	"github.com/md-rashed-zaman/nexsched/libs/runtime"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/assist"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/handlers"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/jobs"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/live"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/session"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

var version = "dev"

func main() {
	_ = config.LoadDotenv()

	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service, version))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc := runtime.LoadLocation(config.String("BOOKING_TIMEZONE", "America/Sao_Paulo"))
	st := store.New(store.Seed(time.Now(), loc))

	sessionTTL := config.Duration("SESSION_TTL", 24*time.Hour)
	var rdb *redis.Client
	var kv session.KV = session.NewMemoryKV()
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		kv = session.NewRedisKV(rdb, sessionTTL)
		logger.Info("session store: redis", "redis_addr", addr)
	} else {
		logger.Warn("session store: in-memory (REDIS_ADDR not set)")
	}

	var pool *db.Pool
	var backend profiles.Backend = profiles.Unconfigured{}
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err = db.Open(ctx, dbURL, db.Options{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		pg := profiles.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("profiles schema setup failed", "err", err)
			panic(err)
		}
		backend = pg
	} else {
		logger.Warn("auth backend not configured; staff login and registration disabled")
	}

	secret := config.String("SESSION_SECRET", "")
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}
	tokens, err := auth.NewIssuer(secret, sessionTTL)
	if err != nil {
		panic(err)
	}

	strategy := session.NewStrategy(st, backend)
	sessions := session.NewManager(kv, strategy, st, logger)
	logger.Info("auth strategy selected", "strategy", sessions.Strategy())

	brokers := config.String("KAFKA_BROKERS", "")
	outbox := events.NewOutbox(config.Int("EVENT_OUTBOX_CAPACITY", 1000), logger)
	publisher := events.NewPublisher(outbox, logger, events.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("EVENT_PUBLISH_INTERVAL", 2*time.Second),
	})
	go publisher.Run(ctx)

	allowedOrigins := config.List("CORS_ALLOWED_ORIGINS")
	hub := live.NewHub(logger, allowedOrigins)
	defer hub.Close()
	emitter := events.Multi{outbox, hub}

	var provider assist.TextGenerationProvider
	openai, err := assist.NewOpenAIProvider(assist.OpenAIConfig{
		APIKey:  config.String("OPENAI_API_KEY", ""),
		Model:   config.String("OPENAI_MODEL", assist.DefaultModel),
		BaseURL: config.String("OPENAI_BASE_URL", ""),
	})
	if err != nil {
		logger.Warn("assistant disabled", "err", err)
	} else {
		provider = openai
	}
	assistant := assist.NewAssistant(provider, logger, config.Duration("ASSIST_TIMEOUT", 20*time.Second), loc)

	flow := booking.NewFlow(st, emitter, logger, booking.Config{
		Guard: booking.Guard{
			EnforceAvailability: config.Bool("BOOKING_ENFORCE_AVAILABILITY", false),
			PreventOverlap:      config.Bool("BOOKING_PREVENT_OVERLAP", false),
		},
		Location: loc,
	})

	if config.Bool("REMINDER_SWEEP_ENABLED", false) {
		sender, err := notify.New(ctx, notify.Config{
			Driver:       config.String("NOTIFY_DRIVER", "noop"),
			WebhookURL:   config.String("SMS_WEBHOOK_URL", ""),
			WebhookToken: config.String("SMS_WEBHOOK_TOKEN", ""),
			AWSRegion:    config.String("AWS_REGION", ""),
			SNSSenderID:  config.String("SMS_SENDER_ID", ""),
		})
		if err != nil {
			logger.Error("notify sender setup failed", "err", err)
			panic(err)
		}
		sweep := jobs.NewReminderSweep(st, assistant, sender, emitter, logger, jobs.SweepConfig{
			Lead:     config.Duration("REMINDER_LEAD", 24*time.Hour),
			Location: loc,
		})
		scheduler, err := jobs.NewScheduler(ctx, sweep, config.Duration("REMINDER_SWEEP_INTERVAL", 5*time.Minute), logger)
		if err != nil {
			logger.Error("reminder scheduler setup failed", "err", err)
			panic(err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		logger.Info("reminder sweep enabled", "provider", sender.ProviderID())
	}

	api := handlers.New(handlers.Deps{
		Store:         st,
		Booking:       flow,
		Sessions:      sessions,
		Tokens:        tokens,
		Profiles:      backend,
		Assistant:     assistant,
		Emitter:       emitter,
		Hub:           hub,
		Logger:        logger,
		PublicBaseURL: config.String("PUBLIC_BASE_URL", ""),
		SecureCookies: config.Bool("SESSION_COOKIE_SECURE", false),
	})

	var checks []runtime.ReadyCheck
	if pool != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool), Optional: true})
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}, Optional: true})
	}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", promhttp.Handler())
	api.Register(mux)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var limiter httpx.Limiter = httpx.NewMemoryLimiter(limitPerMinute, time.Minute)
	if rdb != nil {
		limiter = httpx.NewRedisLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "nexsched:rl"))
	}
	rateLimitMW := httpx.RateLimit(limiter, logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithMetrics(prometheus.DefaultRegisterer, "nexsched", mux),
		httpx.WithCORS(httpx.DefaultCORSPolicy(allowedOrigins)),
		httpx.WithBodyLimit(int64(config.Int("BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second), "/api/v1/admin/live"),
		httpx.Only(rateLimitMW, "/api/v1/public/", "/api/v1/auth/"),
	)
	handler = otelhttp.NewHandler(handler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
