// Package server wires the dependency graph and owns the HTTP lifecycle.
//
// New assembles the whole chain in one place (the composition root):
//
//	sqlite.DB → AuthService / MarkerService → handlers → chi routes
//
// Handlers never touch the database; services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/pinmap/internal/auth"
	"github.com/sakif/pinmap/internal/config"
	"github.com/sakif/pinmap/internal/handler"
	"github.com/sakif/pinmap/internal/middleware"
	sqliteRepo "github.com/sakif/pinmap/internal/repository/sqlite"
	"github.com/sakif/pinmap/internal/service"
)

// Server holds the router and the resources it owns. The database
// connection is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates the server and assembles the dependency chain.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware, pages, static files and the API.
//
// ROUTE MAP:
//
//	GET    /                       entry page (HTML)
//	GET    /app                    map page (HTML)
//	GET    /static/*               assets
//	POST   /register               create account, returns token
//	POST   /login                  returns token
//	GET    /map                    auth check, {message, user}     [auth]
//	DELETE /me                     delete account (markers cascade) [auth]
//	GET    /markers                list with owner usernames        [auth]
//	POST   /markers                place a marker                   [auth]
//	PATCH  /markers/{id}/like      vote                             [auth]
//	PATCH  /markers/{id}/dislike   vote                             [auth]
//	DELETE /markers/{id}           delete own marker                [auth]
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	pageHandler, err := handler.NewPageHandler(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	s.router.Get("/", pageHandler.HandleIndex)
	s.router.Get("/app", pageHandler.HandleApp)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, auth.NewPasswordService(), s.logger)
	markerService := service.NewMarkerService(s.db.Markers(), s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	markerHandler := handler.NewMarkerHandler(markerService, s.logger)

	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	// Every marker operation requires auth, reads included — consistent with
	// the rest of the surface instead of a public list next to guarded
	// mutations.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService))

		r.Get("/map", authHandler.HandleMap)
		r.Delete("/me", authHandler.HandleDeleteAccount)

		r.Get("/markers", markerHandler.HandleList)
		r.Post("/markers", markerHandler.HandleCreate)
		r.Patch("/markers/{id}/like", markerHandler.HandleLike)
		r.Patch("/markers/{id}/dislike", markerHandler.HandleDislike)
		r.Delete("/markers/{id}", markerHandler.HandleDelete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// cap), close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
