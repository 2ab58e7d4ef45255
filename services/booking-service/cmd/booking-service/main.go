package main

import (
	"context"
	"net/http"
	"time"

	"github.com/lucasvieira/agendou/libs/config"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/libs/httpx"
	"github.com/lucasvieira/agendou/libs/kafkax"
	otelx "github.com/lucasvieira/agendou/libs/otel"
	"github.com/lucasvieira/agendou/libs/runtime"
	"github.com/lucasvieira/agendou/services/booking-service/internal/handlers"
	"github.com/lucasvieira/agendou/services/booking-service/internal/outbox"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
	"github.com/lucasvieira/agendou/services/booking-service/internal/worker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	repo := storage.NewBookingRepository(pool)
	waitlistRepo := storage.NewWaitlistRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	followupWorker := worker.NewWaitlistWorker(pool, waitlistRepo, outboxRepo, logger, worker.WaitlistWorkerConfig{
		Interval:  time.Duration(config.Int("WAITLIST_SWEEP_SECONDS", 60)) * time.Second,
		BatchSize: 100,
	})
	go followupWorker.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(repo, outboxRepo, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(repo, logger)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistRepo, logger)
	exportHandler := handlers.NewExportHandler(repo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/availability", availabilityHandler.Check)
	mux.HandleFunc("/api/v1/appointments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			bookingHandler.Create(w, r)
		case http.MethodGet:
			bookingHandler.List(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/appointments/by-customer", bookingHandler.ListByCustomer)
	mux.HandleFunc("/api/v1/appointments/status", bookingHandler.UpdateStatus)
	mux.HandleFunc("/api/v1/appointments/reschedule", bookingHandler.Reschedule)
	mux.HandleFunc("/api/v1/appointments/payment", bookingHandler.UpdatePayment)
	mux.HandleFunc("/api/v1/appointments/review", bookingHandler.AttachReview)
	mux.HandleFunc("/api/v1/appointments/export", exportHandler.AppointmentsCSV)
	mux.HandleFunc("/api/v1/waitlist", waitlistHandler.Collection)
	mux.HandleFunc("/api/v1/waitlist/status", waitlistHandler.UpdateStatus)
	mux.HandleFunc("/api/v1/waitlist/remove", waitlistHandler.Remove)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
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
