package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bookinghandler "github.com/Onahi7/napps-sub001/internal/booking/handler"
	bookingservice "github.com/Onahi7/napps-sub001/internal/booking/service"
	bookingstore "github.com/Onahi7/napps-sub001/internal/booking/store"
	"github.com/Onahi7/napps-sub001/internal/jwttoken"
	"github.com/Onahi7/napps-sub001/internal/notify"
	"github.com/Onahi7/napps-sub001/internal/payment/gateway"
	paymenthandler "github.com/Onahi7/napps-sub001/internal/payment/handler"
	paymentmetrics "github.com/Onahi7/napps-sub001/internal/payment/metrics"
	paymentservice "github.com/Onahi7/napps-sub001/internal/payment/service"
	"github.com/Onahi7/napps-sub001/internal/platform/config"
	"github.com/Onahi7/napps-sub001/internal/platform/httpserver"
	"github.com/Onahi7/napps-sub001/internal/platform/jobs"
	"github.com/Onahi7/napps-sub001/internal/platform/logger"
	"github.com/Onahi7/napps-sub001/internal/platform/otel"
	"github.com/Onahi7/napps-sub001/internal/platform/postgres"
	platformredis "github.com/Onahi7/napps-sub001/internal/platform/redis"
	registrationhandler "github.com/Onahi7/napps-sub001/internal/registration/handler"
	registrationservice "github.com/Onahi7/napps-sub001/internal/registration/service"
	profilestore "github.com/Onahi7/napps-sub001/internal/registration/store/profile"
	scanhandler "github.com/Onahi7/napps-sub001/internal/scan/handler"
	scanmetrics "github.com/Onahi7/napps-sub001/internal/scan/metrics"
	scanservice "github.com/Onahi7/napps-sub001/internal/scan/service"
	assignmentstore "github.com/Onahi7/napps-sub001/internal/scan/store/assignment"
	mealstore "github.com/Onahi7/napps-sub001/internal/scan/store/mealvalidation"
	scanstore "github.com/Onahi7/napps-sub001/internal/scan/store/scan"
	settingscache "github.com/Onahi7/napps-sub001/internal/settings/cache"
	settingshandler "github.com/Onahi7/napps-sub001/internal/settings/handler"
	settingsmetrics "github.com/Onahi7/napps-sub001/internal/settings/metrics"
	settingsservice "github.com/Onahi7/napps-sub001/internal/settings/service"
	settingsstore "github.com/Onahi7/napps-sub001/internal/settings/store"
	httptransport "github.com/Onahi7/napps-sub001/internal/transport/http"
	"github.com/Onahi7/napps-sub001/pkg/platform/tx"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	otelShutdown, err := otel.Setup(ctx, "napps-summit")
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if cache == nil {
		log.Warn("redis not configured, settings cache disabled")
	} else {
		defer cache.Close()
	}

	var notifier notify.Publisher = notify.LogPublisher{Logger: log}
	var kafkaPublisher *notify.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		notifier = kafkaPublisher
	}

	txRunner := tx.NewPostgresRunner(db)
	profiles := profilestore.NewPostgres(db)
	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer)

	settingsOpts := []settingsservice.Option{
		settingsservice.WithNotifier(notifier),
		settingsservice.WithLogger(log),
		settingsservice.WithMetrics(settingsmetrics.New()),
	}
	if cache != nil {
		settingsOpts = append(settingsOpts, settingsservice.WithCache(settingscache.New(cache.Client)))
	}
	settings := settingsservice.New(settingsstore.NewPostgres(db), settingsOpts...)
	if err := settings.Seed(ctx); err != nil {
		log.Error("settings seed failed", "error", err)
		os.Exit(1)
	}

	paymentOpts := []paymentservice.Option{
		paymentservice.WithNotifier(notifier),
		paymentservice.WithLogger(log),
		paymentservice.WithMetrics(paymentmetrics.New()),
	}
	if cfg.GatewayURL != "" {
		paymentOpts = append(paymentOpts, paymentservice.WithGateway(
			gateway.New(cfg.GatewayURL, cfg.GatewaySecret, cfg.GatewayTimeout),
			cfg.GatewayTimeout,
		))
	}
	payments := paymentservice.New(profiles, txRunner, paymentOpts...)

	scans := scanservice.New(
		profiles,
		scanstore.NewPostgres(db),
		mealstore.NewPostgres(db),
		assignmentstore.NewPostgres(db),
		txRunner,
		scanservice.WithNotifier(notifier),
		scanservice.WithLogger(log),
		scanservice.WithMetrics(scanmetrics.New()),
		scanservice.WithLocation(settings.Location(ctx)),
	)

	registration := registrationservice.New(profiles, registrationservice.WithLogger(log))
	bookings := bookingservice.New(bookingstore.NewPostgres(db))

	scheduler := jobs.New(scans, log, settings.Location(ctx))
	if err := scheduler.Start(); err != nil {
		log.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(log, db, cache,
		registrationhandler.New(registration, log, tokens),
		paymenthandler.New(payments, settings, log, tokens),
		scanhandler.New(scans, log, tokens),
		settingshandler.New(settings, log, tokens),
		bookinghandler.New(bookings, log, tokens),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting napps-summit", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(shutdownCtx); err != nil {
			log.Error("kafka close failed", "error", err)
		}
	}
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", "error", err)
	}
}
