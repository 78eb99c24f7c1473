package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ssavin/vetsystem/internal/api"
	"github.com/ssavin/vetsystem/internal/cache"
	"github.com/ssavin/vetsystem/internal/config"
	"github.com/ssavin/vetsystem/internal/database"
	"github.com/ssavin/vetsystem/internal/events"
	"github.com/ssavin/vetsystem/internal/metrics"
	"github.com/ssavin/vetsystem/internal/reminders"
	"github.com/ssavin/vetsystem/internal/schedule"
	"github.com/ssavin/vetsystem/internal/service"
)

func main() {
	// .env is optional; real deployments set variables in the unit file.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("VETSYSTEM_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	slots := cache.NewSlotCache(rdb, cfg.CacheTTL())

	bus := events.NewEventBus()
	bus.Subscribe(events.TypeBookingCreated, func(e events.Event) {
		logger.Debug().Int64("booking_id", e.BookingID).Msg("event: booking created")
	})
	bus.Subscribe(events.TypeStatusChanged, func(e events.Event) {
		logger.Debug().Int64("booking_id", e.BookingID).
			Interface("payload", e.Payload).Msg("event: status changed")
	})

	calc := schedule.NewCalculator(db, cfg.SlotGranularity())
	expander := schedule.NewExpander(db, cfg.MaxRecurrenceInstances())
	svc := service.New(db, calc, expander, slots, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	if cfg.Reminders.Enabled {
		notifier, err := reminders.NewTelegramNotifier(cfg.Reminders.TelegramToken, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier init failed")
		}
		sweeper := reminders.NewService(reminders.Config{
			SweepInterval: cfg.ReminderSweep(),
			Lead:          cfg.ReminderLead(),
			RatePerSecond: float64(cfg.Reminders.RatePerSecond),
		}, db, notifier, logger)
		go sweeper.Run(ctx)
	}

	server := api.NewHTTPServer(cfg.Server.Addr, svc, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown error")
		}
	}()

	logger.Info().Msg("vetsystem scheduler started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("http server error")
	}
	logger.Info().Msg("vetsystem scheduler stopped")
}

func startMetricsServer(ctx context.Context, port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
