package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/monitor"
)

func main() {
	cli.LoadEnvFile()

	cfg, scoring, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentMonitor, os.Stdout)
	logger.Info("starting fintrack-monitor", log.FieldBackend, cfg.DataBackend, "interval", cfg.MonitorInterval)

	res, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("failed to open backend", log.FieldError, err)
		os.Exit(1)
	}

	var publisher monitor.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, alerts will only be logged", log.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("publishing alerts", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
		}
	} else {
		logger.Info("AMQP disabled, alerts will only be logged")
	}

	m := metrics.New()
	engine := cli.NewEngine(res.Backend, scoring, logger)
	mon := monitor.New(engine, publisher, m, logger, monitor.Config{Interval: cfg.MonitorInterval})

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := mon.Stop(ctx); err != nil {
			logger.Warn("monitor did not stop cleanly", log.FieldError, err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("closing AMQP client", log.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("closing backend", log.FieldError, err)
		}
	})

	if err := mon.Start(ctx); err != nil {
		logger.Error("failed to start monitor", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
