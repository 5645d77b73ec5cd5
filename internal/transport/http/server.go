package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloghttp "github.com/samber/slog-http"

	accountService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/service"
	pollerService "github.com/dmarquezv/tempmail-otp-bot/internal/modules/poller/service"
	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/config"
)

// Server exposes health, stats and metrics over HTTP
type Server struct {
	cfg            *config.Config
	accountService *accountService.Service
	pollerService  *pollerService.Service
	logger         *slog.Logger
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg *config.Config, accountService *accountService.Service, pollerService *pollerService.Service) *Server {
	return &Server{
		cfg:            cfg,
		accountService: accountService,
		pollerService:  pollerService,
		logger:         slog.Default(),
		startedAt:      time.Now(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Status server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	registry, err := s.accountService.All()
	if err != nil {
		s.logger.Error("Failed to load account registry", "error", err)
		http.Error(w, "Failed to collect stats", http.StatusInternalServerError)
		return
	}

	accounts := 0
	for _, list := range registry {
		accounts += len(list)
	}

	stats := map[string]any{
		"chats":          len(registry),
		"accounts":       accounts,
		"poll_cycles":    s.pollerService.Cycles(),
		"seen_messages":  s.pollerService.SeenCount(),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.logger.Error("Failed to encode stats", "error", err)
	}
}
