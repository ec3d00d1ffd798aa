package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weather-dashboard/api"
	"weather-dashboard/autocomplete"
	"weather-dashboard/collector"
	"weather-dashboard/config"
	"weather-dashboard/dashboard"
	"weather-dashboard/events"
	"weather-dashboard/prefs"
	"weather-dashboard/providers/openweathermap"
	"weather-dashboard/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	// Parse command line arguments
	port := flag.Int("port", 0, "Port to run the server on (overrides HTTP_PORT)")
	configFile := flag.String("config", "config.json", "Path to configuration file")
	enableRateLimiting := flag.Bool("rate-limit", true, "Enable inbound API rate limiting")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	cfg.RateLimit.Enabled = cfg.RateLimit.Enabled && *enableRateLimiting

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("No .env file loaded", "error", envErr)
	}

	logger.Info("Configuration loaded",
		"port", cfg.HTTP.Port,
		"storage", cfg.Storage.Driver,
		"default_city", cfg.DefaultCity,
		"kafka", cfg.KafkaEnabled(),
		"rate_limit", cfg.RateLimit.Enabled)

	// Preference storage
	store, err := storage.Open(storage.Options{
		Driver:        cfg.Storage.Driver,
		DSN:           cfg.Storage.DSN,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open preference storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close preference storage", "error", err)
		}
	}()

	preferences := prefs.New(store, logger, prefs.WithMaxRecent(cfg.MaxRecentSearches))

	// Weather provider
	client := openweathermap.NewClient(cfg.OpenWeatherMap.APIKey, logger,
		openweathermap.WithBaseURL(cfg.OpenWeatherMap.BaseURL),
		openweathermap.WithTimeout(cfg.HTTP.Timeout.Duration))

	dc := collector.NewDataCollector(client, logger)
	dc.SetFetchTimeout(cfg.HTTP.Timeout.Duration)

	// Lookup events
	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaEnabled() {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("Failed to connect to Kafka, lookup events disabled", "brokers", strings.Join(cfg.Kafka.Brokers, ","), "error", err)
		} else {
			publisher = kp
			logger.Info("Publishing lookup events", "topic", cfg.Kafka.Topic)
		}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	session := dashboard.NewSession(dc, preferences, cfg.DefaultCity, logger, dashboard.WithPublisher(publisher))
	suggester := autocomplete.NewDebouncer(client, logger)

	server := api.NewServer(session, suggester, logger, api.Options{
		Port:           cfg.HTTP.Port,
		RateLimit:      cfg.RateLimit.Enabled,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})
	if p, ok := store.(api.Pinger); ok {
		server.AddHealthCheck("storage", p)
	}

	// Show the default city on start-up, as a fresh page load would
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout.Duration)
		defer cancel()
		if _, err := session.Lookup(ctx, cfg.DefaultCity); err != nil {
			logger.Warn("Initial lookup failed", "city", cfg.DefaultCity, "error", err)
		}
	}()

	// Set up channel for graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	var runErr error
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutting down", "signal", sig.String())
	case runErr = <-serverErr:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to stop server cleanly", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("server stopped: %w", runErr)
	}
	logger.Info("Shutdown complete")
	return nil
}
