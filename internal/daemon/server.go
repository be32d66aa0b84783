package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mockaj/duvo/internal/agent"
	"github.com/Mockaj/duvo/internal/api"
	"github.com/Mockaj/duvo/internal/config"
	"github.com/Mockaj/duvo/internal/conversation"
	"github.com/Mockaj/duvo/internal/eval"
	"github.com/Mockaj/duvo/internal/llm"
	anthropicprovider "github.com/Mockaj/duvo/internal/llm/anthropic"
	openaiprovider "github.com/Mockaj/duvo/internal/llm/openai"
	"github.com/Mockaj/duvo/internal/observability"
	"github.com/Mockaj/duvo/internal/tools"
)

// Server hosts the chat API, evaluation read path, downloads, and
// health/metrics endpoints.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *observability.Metrics
	agent     *agent.Agent
	history   conversation.Store
	ledger    *eval.Ledger
	scheduler *eval.Scheduler
}

// NewServer constructs a daemon instance.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	metrics := observability.NewMetrics()

	toolReg, err := buildTools(cfg)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	chatAgent := agent.New(registry, toolReg, cfg.Agent, logger, metrics)
	history := conversation.NewMemoryStore()

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		agent:   chatAgent,
		history: history,
	}

	if cfg.Evaluation.Enabled {
		s.ledger = eval.NewLedger(cfg.Evaluation.Dir)
		judge := eval.NewJudge(registry, cfg.Judge.Model,
			time.Duration(cfg.Judge.TimeoutSeconds)*time.Second)
		s.scheduler = eval.NewScheduler(judge, s.ledger,
			eval.NewAllowlist(cfg.Evaluation.Tools), logger, metrics)
	}

	return s, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)

	chat := &api.ChatHandler{
		Runner:  s.agent,
		History: s.history,
		Logger:  s.logger,
		Metrics: s.metrics,
	}
	if s.scheduler != nil {
		chat.Trigger = s.scheduler
	}
	mux.Handle("POST /api/chat", chat)

	if s.ledger != nil {
		mux.Handle("GET /api/evaluations/{session_id}", &api.EvaluationsHandler{
			Ledger:  s.ledger,
			Logger:  s.logger,
			Metrics: s.metrics,
		})
	}

	if s.cfg.Tools.EnableExport {
		mux.Handle("GET /api/downloads/{filename}", &api.DownloadsHandler{
			DataDir: s.cfg.Tools.DataDir,
		})
	}

	handler := http.Handler(mux)
	if s.cfg.Server.CORSEnabled {
		handler = api.CORS(handler)
	}

	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting duvo daemon", zap.String("addr", s.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down duvo daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Best-effort drain of in-flight evaluations; give up when the shutdown
	// window closes and abandon the rest.
	if s.scheduler != nil {
		done := make(chan struct{})
		go func() {
			s.scheduler.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.logger.Warn("abandoning in-flight evaluations at shutdown")
		}
	}

	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// buildRegistry constructs providers and model routes from configuration.
func buildRegistry(cfg *config.Config) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	for name, p := range cfg.Providers {
		switch strings.ToLower(strings.TrimSpace(p.Type)) {
		case "anthropic":
			registry.RegisterProvider(name, anthropicprovider.NewProvider(name, p.BaseURL, p.APIKey, p.Timeout))
		case "openai", "custom":
			registry.RegisterProvider(name, openaiprovider.NewProvider(name, p.BaseURL, p.APIKey, p.Timeout))
		default:
			return nil, fmt.Errorf("provider %q has unsupported type %q", name, p.Type)
		}
	}

	for name, m := range cfg.Models {
		registry.RegisterModel(name, llm.ModelRoute{
			Provider:    m.Provider,
			Model:       m.Model,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		}, m.Default)
	}

	return registry, nil
}

// buildTools assembles the agent tool registry from configuration. The news
// tool is only registered when a subprocess command is configured.
func buildTools(cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	if cfg.Tools.EnableWebSearch {
		registry.Register(tools.NewWebSearch("",
			time.Duration(cfg.Tools.SearchTimeoutSeconds)*time.Second))
	}

	if len(cfg.Tools.NewsCommand) > 0 {
		newsName := "search_hackernews"
		if len(cfg.Evaluation.Tools) > 0 {
			newsName = cfg.Evaluation.Tools[0]
		}
		news, err := tools.NewNewsSearch(newsName, cfg.Tools.NewsCommand,
			time.Duration(cfg.Tools.NewsTimeoutSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		registry.Register(news)
	}

	if cfg.Tools.EnableExport {
		registry.Register(tools.NewCSVExport(cfg.Tools.DataDir))
	}

	return registry, nil
}
