package main

import (
	"context"
	"net/http"
	"time"

	"github.com/lucasvieira/agendou/libs/config"
	"github.com/lucasvieira/agendou/libs/httpx"
	otelx "github.com/lucasvieira/agendou/libs/otel"
	"github.com/lucasvieira/agendou/libs/runtime"
	"github.com/lucasvieira/agendou/services/portal-service/internal/clients"
	"github.com/lucasvieira/agendou/services/portal-service/internal/handlers"
	"github.com/lucasvieira/agendou/services/portal-service/internal/otp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "portal-service")
	port, err := config.Port("PORT", "8087")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	jwtSecret, err := config.RequiredString("PORTAL_JWT_SECRET")
	if err != nil {
		panic(err)
	}
	redisAddr, err := config.RequiredString("REDIS_ADDR")
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := otp.NewStore(rdb,
		time.Duration(config.Int("OTP_TTL_SECONDS", 300))*time.Second,
		config.Int("OTP_MAX_ATTEMPTS", 5),
	)

	catalog := clients.NewCatalog(config.String("CATALOG_URL", "http://catalog-service:8084"))
	booking := clients.NewBooking(config.String("BOOKING_URL", "http://booking-service:8083"))
	relay := clients.NewRelay(config.String("RELAY_URL", "http://relay-service:8085"))

	h := handlers.New(store, catalog, booking, relay, logger, handlers.Config{
		JWTSecret:     jwtSecret,
		TokenTTL:      time.Duration(config.Int("PORTAL_TOKEN_TTL_HOURS", 24)) * time.Hour,
		DefaultRegion: config.String("PHONE_DEFAULT_REGION", "BR"),
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}},
	)
	mux.HandleFunc("/api/v1/portal/organization", h.Organization)
	mux.HandleFunc("/api/v1/portal/otp/request", h.RequestOTP)
	mux.HandleFunc("/api/v1/portal/otp/verify", h.VerifyOTP)
	mux.HandleFunc("/api/v1/portal/appointments", h.Appointments)
	mux.HandleFunc("/api/v1/portal/book", h.Book)
	mux.HandleFunc("/api/v1/portal/availability", h.Availability)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "portal")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
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
