package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamgate/internal/config"
	"streamgate/internal/connection"
	"streamgate/internal/endpoint"
	"streamgate/internal/gateway"
	"streamgate/internal/hub"
	"streamgate/internal/recorder"
	"streamgate/internal/sink"
	"streamgate/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gateway.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gateway",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Build the endpoint catalog, applying config overrides
	registry := endpoint.DefaultRegistry().WithOverrides(cfg.Overrides())
	logger.Info("endpoint catalog ready", "endpoints", registry.Len())

	creds := connection.Credentials{
		Key:    cfg.Credentials.Key,
		Secret: cfg.Credentials.Secret,
	}

	mgrCfg := gateway.Config{
		Supervisor: connection.SupervisorConfig{
			Client: connection.ClientConfig{
				ConnectTimeout: cfg.Gateway.ConnectTimeout,
				WriteTimeout:   cfg.Gateway.WriteTimeout,
				PingInterval:   cfg.Gateway.PingInterval,
				BufferSize:     cfg.Gateway.BufferSize,
			},
			Handshake: connection.HandshakeConfig{
				GreetingWait: cfg.Gateway.GreetingWait,
				AuthWait:     cfg.Gateway.AuthWait,
			},
			ReadTimeout: cfg.Gateway.ReadTimeout,
			Restart: connection.RestartPolicy{
				Enabled:   cfg.Gateway.Restart.Enabled,
				BaseDelay: cfg.Gateway.Restart.BaseDelay,
				MaxDelay:  cfg.Gateway.Restart.MaxDelay,
			},
		},
		Hub: hub.Config{SendTimeout: cfg.Gateway.SendTimeout},
	}

	mgr := gateway.NewManager(mgrCfg, registry, creds, logger)

	// Optional Postgres event recorder
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Recorder.Database.Host,
			"port", cfg.Recorder.Database.Port,
			"database", cfg.Recorder.Database.Name,
		)
		pool, err := recorder.Connect(ctx, cfg.Recorder.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(cfg.Recorder, pool, logger)
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		mgr.Register(rec.Sink())
	}

	// Optional NATS publisher
	if cfg.NATS.Enabled {
		pub, err := sink.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		mgr.Register(pub)
	}

	// Probe endpoints and start supervisors
	summary, err := mgr.Initialize(ctx)
	for name, reason := range summary.Unusable {
		logger.Warn("endpoint unusable", "endpoint", name, "reason", reason)
	}
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	logger.Info("gateway running", "usable_endpoints", summary.Usable)

	// Periodic status logging
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := mgr.Status()
				for _, ep := range st.Endpoints {
					if ep.Usable {
						logger.Debug("endpoint status", "endpoint", ep.Name, "state", ep.State)
					}
				}
				logger.Debug("subscriber count", "subscribers", st.Subscribers)
			}
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if rec != nil {
		if err := rec.Stop(shutdownCtx); err != nil {
			logger.Error("recorder stop error", "error", err)
		}
	}

	logger.Info("gateway stopped")
}
