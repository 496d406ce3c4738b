// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "composition root" — the one place where stores,
// services, handlers, and middleware get wired together. Everything below
// it receives its dependencies through constructors and stays unaware of
// how they were built:
//
//	store (sqlite or memory) → services → handlers → routes
//
// Handlers never touch the store, services never touch HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/handler"
	"github.com/nafis/snipnest/internal/middleware"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
	"github.com/nafis/snipnest/internal/repository/memory"
	"github.com/nafis/snipnest/internal/repository/sqlite"
	"github.com/nafis/snipnest/internal/service"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port int

	// DBPath is the SQLite database file. Empty means "run on the
	// in-memory store" — handy for demos and integration tests, with the
	// obvious caveat that everything is gone on restart.
	DBPath string

	JWTSecret string

	// AdminUsername, if set, is promoted to admin at startup. This is how
	// the FIRST admin comes to exist; later promotions go through the
	// admin API.
	AdminUsername string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RateLimitRPS of 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server owns the router and the store; the store is closed on shutdown.
type Server struct {
	router    *chi.Mux
	config    Config
	logger    *slog.Logger
	store     repository.Store
	ratelimit *middleware.RateLimiter // nil when rate limiting is disabled
}

// New assembles the full dependency chain and registers every route.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret is required")
	}

	var store repository.Store
	if cfg.DBPath == "" {
		logger.Warn("no database path configured, using in-memory store")
		store = memory.New()
	} else {
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		store = db
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	if cfg.AdminUsername != "" {
		if err := s.promoteBootstrapAdmin(cfg.AdminUsername); err != nil {
			store.Close()
			return nil, err
		}
	}

	return s, nil
}

// promoteBootstrapAdmin makes ADMIN_USERNAME an admin if that account
// exists. A missing account is only logged: on a fresh database the human
// registers first and restarts, or an existing admin promotes them later.
func (s *Server) promoteBootstrapAdmin(username string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("bootstrap admin account does not exist yet",
				slog.String("username", username))
			return nil
		}
		return fmt.Errorf("looking up bootstrap admin %q: %w", username, err)
	}

	if user.IsAdmin() {
		return nil
	}
	if err := s.store.SetRank(ctx, user.ID, model.RankAdmin); err != nil {
		return fmt.Errorf("promoting bootstrap admin %q: %w", username, err)
	}
	s.logger.Info("bootstrap admin promoted", slog.String("username", username))
	return nil
}

// setupRoutes wires middleware, services, handlers, and the route tree.
//
// MIDDLEWARE ORDER MATTERS — it executes in registration order:
//  1. RequestID, RealIP — chi built-ins for tracing and proxy IPs
//  2. Recoverer — panics become 500s instead of crashes
//  3. rate limiter — reject abusive clients before doing any work
//  4. request logger
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	if s.config.RateLimitRPS > 0 {
		s.ratelimit = middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)
		s.router.Use(s.ratelimit.Handler)
	}
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Info("GitHub OAuth not configured, password login only")
	}

	// Services. The store satisfies every repository interface, so it is
	// passed wherever one is needed.
	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(s.store, s.store, s.store, s.store, s.logger)
	userService := service.NewUserService(s.store, s.store, s.store, s.store, s.logger)
	notificationService := service.NewNotificationService(s.store, s.logger)
	adminService := service.NewAdminService(s.store, s.store, s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)
	requireAdmin := auth.RequireAdmin(authService)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/github", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleList)
			r.Get("/trending", snippetHandler.HandleTrending)
			r.With(optionalAuth).Get("/{id}", snippetHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", snippetHandler.HandleCreate)
				r.Put("/{id}", snippetHandler.HandleUpdate)
				r.Delete("/{id}", snippetHandler.HandleDelete)
				r.Post("/{id}/like", snippetHandler.HandleLike)
				r.Delete("/{id}/like", snippetHandler.HandleUnlike)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAuth).Put("/me", userHandler.HandleUpdateProfile)
			r.With(optionalAuth).Get("/{username}", userHandler.HandleProfile)
			r.With(optionalAuth).Get("/{username}/snippets", userHandler.HandleUserSnippets)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{id}/follow", userHandler.HandleFollow)
				r.Delete("/{id}/follow", userHandler.HandleUnfollow)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", notificationHandler.HandleList)
			r.Get("/unread-count", notificationHandler.HandleUnreadCount)
			r.Post("/read-all", notificationHandler.HandleMarkAllRead)
			r.Post("/{id}/read", notificationHandler.HandleMarkRead)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Get("/stats", adminHandler.HandleStats)
			r.Get("/users", adminHandler.HandleListUsers)
			r.Delete("/users/{id}", adminHandler.HandleDeleteUser)
			r.Put("/users/{id}/rank", adminHandler.HandleSetRank)
			r.Get("/snippets", adminHandler.HandleListSnippets)
			r.Delete("/snippets/{id}", adminHandler.HandleDeleteSnippet)
		})
	})

	return nil
}

// Handler exposes the assembled router, mainly for tests that want to drive
// the full stack through httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until SIGINT/SIGTERM or a listen
// error, then shuts down gracefully and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()
	if s.ratelimit != nil {
		defer s.ratelimit.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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

		// Give in-flight requests 30 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
