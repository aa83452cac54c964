package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillpulse/internal/ai"
	"skillpulse/internal/config"
	"skillpulse/internal/engine"
	"skillpulse/internal/observability"
	"skillpulse/internal/prompts"
	"skillpulse/internal/store"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	if err := s.initializeComponents(om); err != nil {
		return err
	}

	httpServer := s.setupHTTPServer(om)

	s.Logger.Info("SkillPulse assessment engine ready",
		"store_backend", s.AppConfig.Store.Backend,
		"ai_enabled", s.AppConfig.AIEnabled(),
		"prompt_watch", s.AppConfig.Prompts.Watch)

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.ObservabilityConfig{
		ServiceName:    s.AppConfig.Observability.ServiceName,
		ServiceVersion: s.Version,
		Enabled:        s.AppConfig.Observability.Enabled,
		ConsoleOutput:  s.AppConfig.Observability.ConsoleOutput,
		PrettyPrint:    s.AppConfig.Observability.Console.PrettyPrint,
		SampleRate:     s.AppConfig.Observability.SampleRate,
		Prometheus: observability.PrometheusConfig{
			Enabled:  s.AppConfig.Observability.Prometheus.Enabled,
			Endpoint: s.AppConfig.Observability.Prometheus.Endpoint,
			Port:     s.AppConfig.Observability.Prometheus.Port,
		},
	}

	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializeComponents builds the store, prompt registry, and assessment engine
func (s *Server) initializeComponents(om *observability.ObservabilityManager) error {
	st, err := store.New(&s.AppConfig.Store, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	s.store = st

	registry, err := prompts.NewRegistry(s.AppConfig.Prompts.Dir, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize prompt registry: %w", err)
	}
	s.registry = registry

	if s.AppConfig.Prompts.Watch && s.AppConfig.Prompts.Dir != "" {
		watcher, err := prompts.NewWatcher(registry, 0, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to create prompt watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to start prompt watcher: %w", err)
		}
		s.promptWatcher = watcher
	}

	selectCfg := s.AppConfig.GetSelectConfig()
	evolveCfg := s.AppConfig.GetEvolveConfig()
	generateCfg := s.AppConfig.GetGenerateConfig()
	summarizeCfg := s.AppConfig.GetSummarizeConfig()
	feedbackCfg := s.AppConfig.GetFeedbackConfig()

	s.engine = engine.New(engine.Config{
		Store:      st,
		Selector:   engine.NewAISelector(s.buildCompleter("select", selectCfg, om), registry, s.Logger),
		Evolver:    engine.NewEvolver(s.buildCompleter("evolve", evolveCfg, om), registry, s.Logger),
		Generator:  engine.NewGenerator(s.buildCompleter("generate", generateCfg, om), registry, st, nil, s.Logger),
		Summarizer: s.buildCompleter("summarize", summarizeCfg, om),
		Feedback:   s.buildCompleter("feedback", feedbackCfg, om),
		Prompts:    registry,
		Logger:     s.Logger,
	})

	return nil
}

// buildCompleter creates an instrumented completer for one engine operation.
// A nil return disables the model path for that operation; the engine falls
// back to its deterministic behavior.
func (s *Server) buildCompleter(operation string, opCfg config.OperationAIConfig, om *observability.ObservabilityManager) engine.Completer {
	if !s.AppConfig.AIEnabled() {
		return nil
	}

	service, err := ai.NewService(&opCfg, operation, s.Logger)
	if err != nil {
		s.Logger.LogError(err, "AI service unavailable, operation degrades to its fallback",
			"operation", operation)
		return nil
	}

	return &observedCompleter{inner: service, om: om}
}

// observedCompleter instruments model calls with tracing, metrics, and
// token usage accounting
type observedCompleter struct {
	inner *ai.Service
	om    *observability.ObservabilityManager
}

func (c *observedCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	metrics := c.om.GetMetrics()

	var completion *ai.Completion
	err := metrics.TrackAIOperationWithTokens(ctx, req.Operation, func(ctx context.Context) *observability.AIOperationResult {
		out, aiErr := c.inner.Complete(ctx, req)
		completion = out

		var usage *observability.TokenUsage
		if out != nil {
			usage = (*observability.TokenUsage)(out.Usage)
		}
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: usage,
		}
	}, c.om)

	if err != nil {
		return nil, err
	}
	return completion, nil
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", s.TLSConfig.Enabled)

		var err error
		if s.TLSConfig.Enabled {
			err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Wait for either a signal or server error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	// Create a context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the prompt watcher if running
	if s.promptWatcher != nil {
		if err := s.promptWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}

	// Clean up rate limiter if enabled
	s.cleanupRateLimiter()

	// Attempt graceful shutdown of HTTP server
	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	// Close the store last so in-flight requests can still reach it
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close store")
		}
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
