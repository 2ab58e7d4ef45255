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
	"github.com/lucasvieira/agendou/services/relay-service/internal/consumer"
	"github.com/lucasvieira/agendou/services/relay-service/internal/email"
	"github.com/lucasvieira/agendou/services/relay-service/internal/handlers"
	"github.com/lucasvieira/agendou/services/relay-service/internal/inbox"
	"github.com/lucasvieira/agendou/services/relay-service/internal/storage"
	"github.com/lucasvieira/agendou/services/relay-service/internal/whatsapp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "relay-service")
	port, err := config.Port("PORT", "8085")
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

	var waSender whatsapp.Sender
	if url := config.String("WHATSAPP_WEBHOOK_URL", ""); url != "" {
		waSender = whatsapp.NewWebhookSender(url, config.String("WHATSAPP_WEBHOOK_TOKEN", ""))
	} else {
		logger.Warn("whatsapp webhook not configured; using noop sender")
		waSender = whatsapp.NewNoopSender()
	}

	var mailSender email.Sender
	if host := config.String("SMTP_HOST", ""); host != "" {
		mailSender = email.NewGomailSender(
			host,
			config.Int("SMTP_PORT", 587),
			config.String("SMTP_USERNAME", ""),
			config.String("SMTP_PASSWORD", ""),
			config.String("SMTP_FROM", ""),
		)
	} else {
		logger.Warn("smtp not configured; confirmation emails disabled")
		mailSender = email.NewNoopSender()
	}

	bookedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "relay-service"),
		Topic:   "booking.appointment.booked.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID  string  `json:"appointment_id"`
			OrganizationID string  `json:"organization_id"`
			CustomerName   string  `json:"customer_name"`
			CustomerEmail  string  `json:"customer_email"`
			ServiceName    string  `json:"service_name"`
			ServicePrice   float64 `json:"service_price"`
			StartTime      string  `json:"start_time"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booked payload", "err", err)
			return nil
		}
		if payload.CustomerEmail == "" {
			return nil
		}
		startTime, err := time.Parse(time.RFC3339, payload.StartTime)
		if err != nil {
			logger.Error("invalid start_time", "err", err)
			return nil
		}

		status := "sent"
		if err := mailSender.SendConfirmation(email.Confirmation{
			To:           payload.CustomerEmail,
			CustomerName: payload.CustomerName,
			ServiceName:  payload.ServiceName,
			StartTime:    startTime,
			Price:        payload.ServicePrice,
		}); err != nil {
			status = "failed"
			logger.Error("confirmation email failed", "err", err, "appointment_id", payload.AppointmentID)
		}

		return repo.Insert(ctx, storage.Message{
			OrgID:     payload.OrganizationID,
			Channel:   "email",
			Recipient: payload.CustomerEmail,
			Kind:      "booking_confirmation",
			Payload:   map[string]any{"appointment_id": payload.AppointmentID},
			Status:    status,
		})
	})
	go bookedConsumer.Run(ctx)

	followupConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "relay-service"),
		Topic:   "booking.waitlist.followup.due.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			EntryID        string `json:"entry_id"`
			OrganizationID string `json:"organization_id"`
			CustomerName   string `json:"customer_name"`
			CustomerPhone  string `json:"customer_phone"`
			DesiredDate    string `json:"desired_date"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid followup payload", "err", err)
			return nil
		}
		if payload.CustomerPhone == "" {
			return nil
		}

		// Follow-ups land in the relay log as a work queue for staff;
		// no automated outbound message yet.
		logger.Info("waitlist follow-up due", "entry_id", payload.EntryID, "customer", payload.CustomerName, "desired_date", payload.DesiredDate)
		return repo.Insert(ctx, storage.Message{
			OrgID:     payload.OrganizationID,
			Channel:   "whatsapp",
			Recipient: payload.CustomerPhone,
			Kind:      "waitlist_followup",
			Payload:   map[string]any{"entry_id": payload.EntryID, "desired_date": payload.DesiredDate},
			Status:    "pending",
		})
	})
	go followupConsumer.Run(ctx)

	relayHandler := handlers.NewRelayHandler(waSender, repo, logger)
	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/send-otp", relayHandler.SendOTP)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "relay")
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
