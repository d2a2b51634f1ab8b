package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbook/libs/otel"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/handlers"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/payments"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/query"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

func main() {
	service := config.String("SERVICE_NAME", "salon-service")
	port, err := config.Port("PORT", "5000")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service,
		attribute.String("salon.store.backend", config.String("STORE_BACKEND", "postgres")),
		attribute.String("salon.timezone", config.String("SALON_TIMEZONE", "Local")),
	))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	stripeKey, err := config.RequiredString("STRIPE_SECRET_KEY")
	if err != nil {
		panic(err)
	}
	loc := time.Local
	if tz := config.String("SALON_TIMEZONE", ""); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			panic(err)
		}
	}

	var store storage.Store
	var checks []runtime.ReadyCheck
	switch backend := config.String("STORE_BACKEND", "postgres"); backend {
	case "memory":
		mem := storage.NewMemoryStore()
		if _, err := storage.Seed(ctx, mem); err != nil {
			panic(err)
		}
		store = mem
		logger.Info("using in-memory record store")
	case "postgres":
		pool, err := db.Open(ctx, dbURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		pg := storage.NewPostgresStore(pool, loc)
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("db migration failed", "err", err)
			panic(err)
		}
		seeded, err := storage.Seed(ctx, pg)
		if err != nil {
			panic(err)
		}
		if seeded {
			logger.Info("seeded salon services and staff")
		}
		store = pg
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	default:
		panic("STORE_BACKEND must be postgres or memory, got " + backend)
	}

	var publisher events.Publisher = events.Nop{}
	if brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "")); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:    brokers,
			BufferSize: config.Int("EVENTS_BUFFER_SIZE", 256),
		}, logger)
		go kp.Run(ctx)
		publisher = kp
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("event publishing disabled (no kafka brokers configured)")
	}

	workflow := booking.NewWorkflow(store, publisher, loc, logger)
	reconciler := payments.NewReconciler(store, payments.NewStripeProcessor(stripeKey), publisher, logger, payments.Config{
		Currency:      config.String("PAYMENT_CURRENCY", "usd"),
		VerifyIntents: config.Bool("PAYMENT_VERIFY_INTENTS", false),
	})
	verifier := payments.NewWebhookVerifier(
		config.String("STRIPE_WEBHOOK_SECRET", ""),
		config.Seconds("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300*time.Second),
	)
	if !verifier.Enabled() {
		logger.Warn("stripe webhook disabled (STRIPE_WEBHOOK_SECRET not set)")
	}

	limit, redisCheck := rateLimit(logger)
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.New(workflow, reconciler, query.NewReader(store), verifier, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		limit,
	)
	handler = otelhttp.NewHandler(handler, "salon")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if grpcPort := config.String("GRPC_PORT", ""); grpcPort != "" {
		if err := startGrpcServer(ctx, logger, grpcPort, store); err != nil {
			logger.Error("grpc server failed to start", "err", err)
		}
	}

	if err := runtime.Serve(ctx, logger, srv, 10*time.Second); err != nil {
		panic(err)
	}
}

// rateLimit picks the Redis limiter when REDIS_ADDR is set so every
// instance shares one budget per client.
func rateLimit(logger *slog.Logger) (httpx.Middleware, *runtime.ReadyCheck) {
	perMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return httpx.NewRateLimiter(perMinute, time.Minute).Middleware(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
	logger.Info("rate limiting via redis", "addr", addr, "per_minute", perMinute)
	limiter := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, "salon:rl")
	check := &runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
	return limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)), check
}
