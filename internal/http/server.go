// Package http exposes the fleet management REST API.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"fleetdesk/internal/middleware/ratelimit"
	"fleetdesk/internal/middleware/security"
	"fleetdesk/internal/middleware/trace"
	"fleetdesk/internal/services"
	"fleetdesk/internal/storage"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Repo     *storage.SQLiteRepository
	Ledger   *services.LedgerService
	Earnings *services.EarningsService
	Totals   *services.TotalsService

	MediaDir       string
	MaxUploadBytes int64
	CORSOrigin     string
}

// Server is the fleet API server.
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	deps       Deps
}

func NewServer(port string, deps Deps) *Server {
	s := &Server{
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		deps:    deps,
	}

	r := chi.NewRouter()

	traceMw := trace.NewMiddleware(extractClientIP)
	headersMw := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	r.Use(traceMw.Middleware)
	r.Use(headersMw.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{deps.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimitMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", s.handleListClients)
			r.Post("/", s.handleCreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetClient)
				r.Put("/", s.handleUpdateClient)
				r.Post("/login", s.handleTouchLogin)
				r.Get("/onboarding", s.handleGetOnboarding)
				r.Put("/onboarding", s.handleSaveOnboarding)
				r.Post("/onboarding", s.handleSaveOnboarding)
				r.Get("/banking", s.handleListBanking)
				r.Post("/banking", s.handleAddBanking)
				r.Get("/contracts", s.handleListContracts)
				r.Post("/contracts", s.handleUploadContract)
				r.Get("/charts", s.handleListCharts)
				r.Post("/charts", s.handleUploadChart)
				r.Get("/totals", s.handleClientTotals)
			})
		})

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", s.handleListCars)
			r.Post("/", s.handleCreateCar)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCar)
				r.Put("/", s.handleUpdateCar)
				r.Get("/recurring", s.handleListRecurringCharges)
				r.Post("/recurring", s.handleAddRecurringCharge)
			})
		})

		r.Get("/income-expense/{carID}/{year}", s.handleGetYearLedger)
		r.Put("/income-expense/{carID}/{year}/{month}", s.handleSaveMonth)
		r.Get("/earnings/{carID}/{year}", s.handleGetEarnings)
		r.Get("/reports/earnings/{carID}/{year}", s.handleEarningsReport)

		r.Get("/media/{filename}", s.handleServeMedia)
	})

	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Start blocks serving requests until the listener fails or Shutdown
// is called.
func (s *Server) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractClientIP(r)
		if !s.limiter.Allow(ip) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", ip)
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready means the database answers.
	if _, err := s.deps.Repo.ListClients(r.Context(), "", false); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	respondMessage(w, http.StatusOK, "ready")
}
