package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lucasvieira/agendou/libs/config"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/libs/httpx"
	"github.com/lucasvieira/agendou/libs/kafkax"
	otelx "github.com/lucasvieira/agendou/libs/otel"
	"github.com/lucasvieira/agendou/libs/runtime"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/consumer"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/handlers"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/inbox"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "analytics-service")
	port, err := config.Port("PORT", "8086")
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
	inboxRepo := inbox.NewRepository(pool)

	handleBookingEvent := func(ctx context.Context, msg kafka.Message, kind string) error {
		var payload struct {
			AppointmentID  string `json:"appointment_id"`
			OrganizationID string `json:"organization_id"`
			StartTime      string `json:"start_time"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.OrganizationID == "" || payload.StartTime == "" {
			logger.Error("missing booking fields", "topic", msg.Topic)
			return nil
		}
		startTime, err := time.Parse(time.RFC3339, payload.StartTime)
		if err != nil {
			logger.Error("invalid start_time", "err", err)
			return nil
		}

		bookedInc, cancelledInc := 0, 0
		if kind == "booked" {
			bookedInc = 1
		} else {
			cancelledInc = 1
		}
		if err := repo.BumpDailyStats(ctx, payload.OrganizationID, startTime, bookedInc, cancelledInc); err != nil {
			logger.Error("failed to update daily stats", "err", err)
			return err
		}
		logger.Info("booking metric recorded", "appointment_id", payload.AppointmentID, "organization_id", payload.OrganizationID, "kind", kind)
		return nil
	}

	bookedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "analytics-service"),
		Topic:   "booking.appointment.booked.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		return handleBookingEvent(ctx, msg, "booked")
	})
	go bookedConsumer.Run(ctx)

	cancelledConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "analytics-service"),
		Topic:   "booking.appointment.cancelled.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		return handleBookingEvent(ctx, msg, "cancelled")
	})
	go cancelledConsumer.Run(ctx)

	h := handlers.New(repo, logger)
	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/analytics/dashboard", h.Dashboard)
	mux.HandleFunc("/api/v1/analytics/week-chart", h.WeekChart)
	mux.HandleFunc("/api/v1/analytics/calendar", h.Calendar)
	mux.HandleFunc("/api/v1/analytics/monthly-revenue", h.MonthlyRevenue)
	mux.HandleFunc("/api/v1/analytics/top-services", h.TopServices)
	mux.HandleFunc("/api/v1/analytics/peak-hours", h.PeakHours)
	mux.HandleFunc("/api/v1/analytics/totals", h.Totals)
	mux.HandleFunc("/api/v1/analytics/daily-stats", h.DailyStats)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "analytics")
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
