// Package server wires the HTTP server together: routes, middleware, and the
// dependency graph from database to handlers. main.go stays minimal — it
// loads config and calls New/Start.
//
// DEPENDENCY CHAIN:
//
//	config.Config → sqlite.DB → services → handlers → chi routes
//
// Everything is constructed here, in one place, from explicit configuration.
// There is no global state: the signing secret, the bcrypt cost, and the
// store handle all live inside the components they were handed to.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/config"
	"github.com/sakif/eventhub/internal/handler"
	"github.com/sakif/eventhub/internal/middleware"
	sqliteRepo "github.com/sakif/eventhub/internal/repository/sqlite"
	"github.com/sakif/eventhub/internal/service"
)

// Server owns the router, the configuration, and the database handle. The
// database is closed during graceful shutdown so the WAL is flushed and the
// file lock released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph and registers all routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the configured router. Tests mount it on httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware, constructs services and handlers, and
// maps the route table:
//
//	POST   /api/auth/register         → register (public)
//	POST   /api/auth/login            → login (public)
//	PUT    /api/auth/profile          → profile update (bearer)
//	GET    /api/auth/me               → current user (bearer)
//	GET    /api/events                → list events (bearer)
//	POST   /api/events/create         → create event (bearer)
//	PUT    /api/events/edit/{id}      → edit event (bearer, creator only)
//	DELETE /api/events/delete/{id}    → delete event (bearer, creator only)
//	POST   /api/events/rsvp/{id}      → RSVP (bearer)
func (s *Server) setupRoutes() error {
	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID) // X-Request-ID for tracing
	s.router.Use(chimiddleware.RealIP)    // client IP from proxy headers
	s.router.Use(chimiddleware.Recoverer) // panics become 500s, not crashes
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	validate := validator.New(validator.WithRequiredStructEnabled())

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	eventService := service.NewEventService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, validate, s.logger)
	eventHandler := handler.NewEventHandler(eventService, validate, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/profile", authHandler.HandleUpdateProfile)
			r.Get("/me", authHandler.HandleMe)
		})
	})

	// Every event route requires a bearer token — including edit and
	// delete, which additionally enforce creator ownership in the service.
	s.router.Route("/api/events", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", eventHandler.HandleList)
		r.Post("/create", eventHandler.HandleCreate)
		r.Put("/edit/{id}", eventHandler.HandleUpdate)
		r.Delete("/delete/{id}", eventHandler.HandleDelete)
		r.Post("/rsvp/{id}", eventHandler.HandleRSVP)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
