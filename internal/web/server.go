package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/porticoestate/location-hierarchy/internal/web/handlers"
	"github.com/porticoestate/location-hierarchy/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	store      handlers.Store
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance over an open store
func NewServer(config *Config, store handlers.Store) *Server {
	server := &Server{
		config: config,
		store:  store,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // large sites take a while to analyze
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	analysisHandler := &handlers.AnalysisHandler{Store: s.store, Options: s.config.Analyzer}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/loc1", analysisHandler.ListLoc1).Methods("GET")
	api.HandleFunc("/tables", analysisHandler.ListTables).Methods("GET")
	api.HandleFunc("/analyze", analysisHandler.Analyze).Methods("GET")

	if s.config.Features.ExecuteEnabled {
		api.HandleFunc("/execute", analysisHandler.Execute).Methods("POST")
	}

	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods("GET")

	s.router.Use(middleware.RequestLogging())
	api.Use(middleware.Authentication(s.config.Auth.APIKey))
}

// Start serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}
