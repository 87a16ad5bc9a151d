// Command gamma-mcp serves the Gamma tools over MCP (stdio or streamable
// HTTP).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/Tributary-ai-services/gamma-operator/internal/config"
	"github.com/Tributary-ai-services/gamma-operator/internal/mcpserver"
	"github.com/Tributary-ai-services/gamma-operator/internal/otel"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before reading the environment")
	transport := flag.String("transport", "", "Override GAMMA_MCP_TRANSPORT (stdio or http)")
	httpAddr := flag.String("http-addr", "", "Override GAMMA_MCP_HTTP_ADDR")

	opts := zap.Options{Development: true, DestWriter: os.Stderr}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	if err := run(*envFile, *transport, *httpAddr); err != nil {
		ctrl.Log.WithName("setup").Error(err, "Gamma MCP server stopped")
		os.Exit(1)
	}
}

func run(envFile, transport, httpAddr string) error {
	log := ctrl.Log.WithName("gamma-mcp")

	// A missing file is fine; variables may come from the process environment
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		log.Info("Configuration warning", "warning", w)
	}
	if transport != "" {
		cfg.MCP.Transport = transport
	}
	if httpAddr != "" {
		cfg.MCP.HTTPAddr = httpAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error(err, "Failed to flush traces")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := gamma.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	cfg.Gamma.Metrics = metrics
	cfg.Gamma.Logger = &log

	client, err := gamma.NewClient(cfg.Gamma)
	if err != nil {
		return err
	}

	server, err := mcpserver.New(client, log)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			log.Info("Serving metrics", "addr", cfg.MetricsAddr)
			if err := mcpserver.ServeMetrics(ctx, cfg.MetricsAddr, registry); err != nil {
				log.Error(err, "Metrics server stopped")
			}
		}()
	}

	return server.Run(ctx, cfg.MCP)
}
