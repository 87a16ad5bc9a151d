// Package mcpserver exposes the Gamma client as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tributary-ai-services/gamma-operator/internal/config"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

const (
	serverName      = "gamma-mcp-server"
	shutdownTimeout = 5 * time.Second
)

// Gamma is the part of *gamma.Client the tools use.
type Gamma interface {
	Generate(ctx context.Context, params gamma.GenerateParams) (gamma.Result, error)
	Status(ctx context.Context, generationID string) (gamma.Result, error)
	WaitForURL(ctx context.Context, generationID string, maxAttempts int) (gamma.Result, error)
	Themes(ctx context.Context) []gamma.Theme
}

// Server is the Gamma MCP server.
type Server struct {
	mcpServer *mcp.Server
	log       logr.Logger
}

// New registers every Gamma tool on a fresh MCP server.
func New(client Gamma, log logr.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.New("gamma client is required")
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: gamma.Version}, &mcp.ServerOptions{
		Instructions: "Submit with gamma_generate, then call gamma_wait_for_url with the returned generationId to get the shareable URL.",
	})

	generateTool, err := GenerateTool()
	if err != nil {
		return nil, err
	}
	mcp.AddTool(server, generateTool, GenerateHandler(client, log.WithValues("tool", ToolGenerate)))
	mcp.AddTool(server, GetStatusTool(), GetStatusHandler(client))
	mcp.AddTool(server, WaitForURLTool(), WaitForURLHandler(client, log.WithValues("tool", ToolWaitForURL)))
	mcp.AddTool(server, GetThemesTool(), GetThemesHandler(client))
	mcp.AddTool(server, GetOptionsTool(), GetOptionsHandler())

	return &Server{mcpServer: server, log: log}, nil
}

// Run serves on the configured transport until ctx is cancelled.
func (s *Server) Run(ctx context.Context, cfg config.MCP) error {
	switch cfg.Transport {
	case "", config.TransportStdio:
		s.log.Info("Gamma MCP server running on stdio")
		return s.Serve(ctx, &mcp.StdioTransport{})
	case config.TransportHTTP:
		return s.ServeHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve runs the server on a single transport.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil)
}

// ServeHTTP listens on addr until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", s.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.log.Info("Gamma MCP server listening", "addr", addr, "path", "/mcp")
	return listenAndServe(ctx, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
}

// ServeMetrics exposes the Prometheus registry on addr until ctx is
// cancelled.
func ServeMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return listenAndServe(ctx, &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
}

func listenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown %s: %w", srv.Addr, err)
		}
		return nil
	}
}
