package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/quire/internal/config"
	httpadapter "github.com/aretw0/quire/pkg/adapters/http"
	mcpadapter "github.com/aretw0/quire/pkg/adapters/mcp"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP API until ctx is done. When ready is not nil it
// receives the bound address once the listener is up.
func Serve(ctx context.Context, cfg config.Config, out io.Writer, logger *slog.Logger, ready chan<- string) error {
	svc, err := NewServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithStreams(svc.Streams),
	}
	if svc.Registry != nil {
		opts = append(opts, httpadapter.WithMetricsHandler(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))
	}
	srv := &http.Server{
		Handler:           httpadapter.NewHandler(svc.Manager, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	printSystemMessage(out, "Quire server listening on %s (store: %s)", ln.Addr(), cfg.Store.Kind)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(out, "Quire server stopped gracefully")
		return nil
	}
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the MCP server over the given transport until ctx is done
// (SSE) or stdin closes (stdio).
func ServeMCP(ctx context.Context, cfg config.Config, transport string, logger *slog.Logger) error {
	svc, err := NewServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := mcpadapter.NewServer(svc.Manager, mcpadapter.WithLogger(logger))
	switch transport {
	case TransportStdio:
		logger.Info("Starting Quire MCP Server (Stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		host, port, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			return err
		}
		if host == "" {
			host = "localhost"
		}
		err = srv.ServeSSE(ctx, cfg.Addr, "http://"+net.JoinHostPort(host, port))
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	}
}
