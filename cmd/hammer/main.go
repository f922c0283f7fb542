package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/api"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/config"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/factory"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/logger"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/report"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/stats"
	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/sysutil"
	"github.com/spf13/pflag"
)

// Descriptors kept free for the health server, kubeconfig reads and stdio.
const fdHeadroom = 64

func main() {
	// Load configuration from environment and flags
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Cancelled on SIGINT/SIGTERM; closes every session
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	logger.Init(cfg.Debug)
	logger.Info("Starting tcp-hammer...",
		"target", cfg.Addr(),
		"connections", cfg.Connections,
		"phrase", cfg.Phrase,
		"discovery", cfg.DiscoveryMode,
		"tls_enabled", cfg.TLSEnabled)

	if cfg.RaiseFDLimit && cfg.Connections > 0 {
		limit, err := sysutil.RaiseFileLimit(uint64(cfg.Connections) + fdHeadroom)
		if err != nil {
			logger.Warn("Could not raise open file limit", "limit", limit, "error", err)
		} else {
			logger.Debug("Open file limit", "limit", limit)
		}
	}

	collector := stats.NewCollector()

	// Start health server (optional)
	var healthServer *api.HealthServer
	if cfg.HealthServerPort != "" {
		healthServer = api.NewHealthServer(":"+cfg.HealthServerPort, collector)
		if _, err := healthServer.Start(); err != nil {
			logger.Fatal("Failed to start health server", "port", cfg.HealthServerPort, "error", err)
		}
		logger.Info("Health server started", "port", cfg.HealthServerPort)
	}

	// Create target resolver
	resolverFactory := factory.NewResolverFactory(cfg)
	resolver, clientset, err := resolverFactory.Create(ctx)
	if err != nil {
		logger.Fatal("Failed to create target resolver", "error", err)
	}

	// Create TLS provider (optional)
	var tlsProvider core.TLSProvider
	if cfg.TLSEnabled {
		tlsProvider, err = factory.NewTLSFactory(cfg).Create(ctx, clientset)
		if err != nil {
			logger.Fatal("Failed to create TLS provider", "error", err)
		}
		logger.Info("TLS enabled and configured", "mode", cfg.TLSMode)
	}

	client, err := factory.NewClientFactory(cfg).Create(ctx, resolver, tlsProvider, report.New(os.Stderr), collector)
	if err != nil {
		logger.Fatal("Failed to create client", "error", err)
	}
	if healthServer != nil {
		client.OnLaunched = func() { healthServer.SetReady(true) }
	}

	go collector.Report(ctx, cfg.ReportInterval)

	// Run until interrupted (blocking)
	if err := client.Run(ctx); err != nil {
		logger.Fatal("Client error", "error", err)
	}
	collector.LogFinal()

	if healthServer != nil {
		healthServer.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Warn("Health server shutdown error", "error", err)
		}
	}
	logger.Info("Shutting down...")
}
