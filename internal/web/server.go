// Package web provides the HTTP server for Sortly: server-rendered pages for
// pasting, sorting and viewing share links, and a JSON API over the same core.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sortly/internal/config"
	"github.com/JonMunkholm/sortly/internal/history"
	"github.com/JonMunkholm/sortly/internal/share"
	"github.com/JonMunkholm/sortly/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server.
type Server struct {
	cfg     *config.Config
	codec   *share.Codec
	limiter *share.Limiter
	history *history.Store

	router *chi.Mux
	server *http.Server

	generalRL *rateLimiter
	shareRL   *rateLimiter
}

// NewServer wires routes and middleware. store holds per-client history.
func NewServer(cfg *config.Config, store *history.Store) *Server {
	compressor := share.NewZlibCompressor(cfg.Share.MaxDecodedBytes)

	s := &Server{
		cfg:     cfg,
		codec:   share.NewCodec(compressor, share.WithMaxPayload(cfg.Share.MaxPayloadBytes)),
		limiter: share.NewLimiter(cfg.Share.MaxConcurrent, cfg.Share.MaxWait),
		history: store,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.generalRL = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.shareRL = newRateLimiter(cfg.Rate.ShareLimit, time.Minute)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.generalRL != nil {
		s.router.Use(s.generalRL.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.clientID)

		r.Get("/", s.handleHome)
		r.Post("/paste", s.handlePaste)
		r.Post("/history/clear", s.handleClearHistoryPage)

		r.Route("/h/{id}", func(r chi.Router) {
			r.Get("/", s.handleDatasetPage)
			r.Post("/toggle", s.handleTogglePage)
			r.Post("/label", s.handleLabelPage)
			r.Post("/rules/add", s.handleAddRulePage)
			r.Post("/rules/{idx}", s.handleUpdateRulePage)
			r.Post("/rules/{idx}/delete", s.handleRemoveRulePage)
			r.Post("/delete", s.handleDeletePage)
			r.With(s.shareLimit).Post("/share", s.handleSharePage)
		})

		r.With(s.shareLimit).Get("/s/{token}", s.handleShareView)
		r.With(s.shareLimit).Post("/import", s.handleImport)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/detect", s.handleDetect)
		r.Post("/sort", s.handleSort)
		r.Post("/rules/toggle", s.handleToggleRule)

		r.Group(func(r chi.Router) {
			r.Use(s.shareLimit)
			r.Post("/share", s.handleCreateShare)
			r.Get("/share/{token}", s.handleDecodeShare)
		})

		r.Route("/history", func(r chi.Router) {
			r.Use(s.clientID)
			r.Get("/", s.handleListHistory)
			r.Post("/", s.handleSaveHistory)
			r.Delete("/", s.handleClearHistory)
			r.Get("/{id}", s.handleGetHistory)
			r.Delete("/{id}", s.handleDeleteHistory)
		})
	})
}

// shareLimit applies the tighter per-IP limit to share endpoints.
func (s *Server) shareLimit(next http.Handler) http.Handler {
	if s.shareRL == nil {
		return next
	}
	return s.shareRL.middleware(next)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown waits for in-flight share work, then stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if status := s.limiter.Status(); status.Active > 0 {
		slog.Info("waiting for share operations to finish", "active", status.Active)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("share operations did not finish in time", "error", err)
		}
	}

	if s.generalRL != nil {
		s.generalRL.stop()
	}
	if s.shareRL != nil {
		s.shareRL.stop()
	}

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			// Share URLs carry the whole dataset; never leak them to other origins.
			h.Set("Referrer-Policy", "no-referrer")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"share":  s.limiter.Status(),
	})
}
