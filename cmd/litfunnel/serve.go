package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litfunnel/internal/funnel"
	"github.com/pdiddy/litfunnel/internal/source"
	"github.com/pdiddy/litfunnel/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the search funnel over HTTP",
	Long: `Serve starts an HTTP server exposing the search funnel. POST a JSON body
with a "query" field to /api/v1/search to run a full collect-and-rank pass;
the response is the complete funnel result.`,
	RunE: runServe,
}

// searchServer carries the shared read-only dependencies for request
// handling. Each request builds its own funnel and working state.
type searchServer struct {
	cfg      types.Config
	sources  []source.Source
	embedder funnel.Embedder
	metrics  funnel.MetricsLookup
}

type searchRequest struct {
	Query        string `json:"query"`
	MaxPerSource int    `json:"maxPerSource,omitempty"`
	Target       int    `json:"target,omitempty"`
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")

	// A server wants operational logs even without --verbose.
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		logger = newLogger(cmd, slog.LevelInfo)
	}

	srv := &searchServer{
		cfg:      cfg,
		sources:  source.Enabled(cfg.Sources, nil),
		embedder: newEmbedder(cfg.Embedding),
		metrics:  openMetricsLookup(cfg.Metrics),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.Info("request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.Error("request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.POST("/api/v1/search", srv.handleSearch)
	e.GET("/healthz", srv.handleHealth)

	go func() {
		logger.Info("starting litfunnel server", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func (s *searchServer) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	ctx := c.Request().Context()

	scfg := s.cfg.Sources
	if req.MaxPerSource > 0 {
		scfg.MaxPerSource = req.MaxPerSource
	}
	fcfg := s.cfg.Funnel
	if req.Target > 0 {
		fcfg.TargetFinalCount = req.Target
		if fcfg.MinAcceptableCount > req.Target {
			fcfg.MinAcceptableCount = req.Target
		}
	}

	groups, warnings, err := source.Collect(ctx, req.Query, s.sources, scfg, logger)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	f, err := funnel.New(fcfg, s.embedder, s.metrics, logger)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	result, err := f.Run(ctx, req.Query, groups)
	if err != nil {
		// Run fails only on context cancellation, meaning the client went away.
		return err
	}
	result.Warnings = append(warnings, result.Warnings...)

	return c.JSON(http.StatusOK, result)
}

func (s *searchServer) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(serveCmd)
}
