package main

import (
	"context"
	"net/http"
	"time"

	"github.com/lucasvieira/agendou/libs/config"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/libs/httpx"
	otelx "github.com/lucasvieira/agendou/libs/otel"
	"github.com/lucasvieira/agendou/libs/runtime"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/handlers"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "catalog-service")
	port, err := config.Port("PORT", "8084")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	h := handlers.New(repo, logger, config.String("PHONE_DEFAULT_REGION", "BR"))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
	)
	mux.HandleFunc("/api/v1/organization", h.Organization)
	mux.HandleFunc("/api/v1/public/organization", h.PublicOrganization)
	mux.HandleFunc("/api/v1/services", h.Services)
	mux.HandleFunc("/api/v1/services/price", h.EffectivePrice)
	mux.HandleFunc("/api/v1/customers", h.Customers)
	mux.HandleFunc("/api/v1/customers/by-phone", h.CustomerByPhone)
	mux.HandleFunc("/api/v1/employees", h.Employees)
	mux.HandleFunc("/api/v1/promotions", h.Promotions)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "catalog")
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
