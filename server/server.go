// Package server exposes the ledger and the position engine over HTTP.
//
// It owns the live quote cache: a background job refreshes prices for held
// tickers on a schedule, and the valuation endpoints read from the cache.
// A missing cached quote degrades to the position's last trade price, and
// failing that to no market figures at all.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mlanders/tradebook"
	"github.com/mlanders/tradebook/quotes"
	"github.com/mlanders/tradebook/store"
)

// Server is the HTTP surface over the document store and the engine.
type Server struct {
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger
	store  *store.Store
	chain  *quotes.Chain
	rates  *tradebook.RateTable
	cfg    *Config
	sched  *Scheduler

	mu     sync.RWMutex
	prices map[string]*quotes.Quote
}

// New wires a server from its dependencies. Call Start to serve and
// StartJobs to begin background quote refreshes.
func New(cfg *Config, st *store.Store, chain *quotes.Chain, log zerolog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    log.With().Str("component", "server").Logger(),
		store:  st,
		chain:  chain,
		rates:  cfg.Rates(),
		cfg:    cfg,
		sched:  NewScheduler(log),
		prices: make(map[string]*quotes.Quote),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", s.handleLedgerList)
			r.Post("/", s.handleLedgerCreate)
			r.Post("/import", s.handleLedgerImport)
			r.Delete("/{id}", s.handleLedgerDelete)
		})
		r.Get("/positions", s.handlePositions)
		r.Get("/cash", s.handleCash)
		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.handlePricesList)
			r.Post("/refresh", s.handlePricesRefresh)
		})
	})
}

// Start begins serving. It blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.http.ListenAndServe()
}

// StartJobs registers and starts the background quote refresh.
func (s *Server) StartJobs() error {
	if err := s.sched.AddJob(s.cfg.RefreshSchedule, &refreshJob{s: s}); err != nil {
		return err
	}
	s.sched.Start()
	return nil
}

// Shutdown stops jobs and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sched.Stop()
	s.log.Info().Msg("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

// ServeHTTP makes the server usable directly as a handler in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// quote returns the cached quote for a ticker, nil if none.
func (s *Server) quote(ticker string) *quotes.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[ticker]
}

// snapshotPrices copies the cache for read-only handlers.
func (s *Server) snapshotPrices() map[string]*quotes.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*quotes.Quote, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// refreshPrices fetches live quotes for all held tickers and stores the
// resolved ones. Unresolved tickers keep their previous cache entry.
func (s *Server) refreshPrices(ctx context.Context) (refreshed int, symbols []string, err error) {
	records, err := s.store.Trades("")
	if err != nil {
		return 0, nil, err
	}
	events, err := tradebook.NormaliseTrades(records, tradebook.DropInvalid)
	if err != nil {
		return 0, nil, err
	}
	for _, p := range tradebook.ComputePositions(events) {
		symbols = append(symbols, p.Key.Ticker)
	}
	if len(symbols) == 0 {
		return 0, nil, nil
	}

	live := s.chain.Fetch(ctx, symbols)

	s.mu.Lock()
	defer s.mu.Unlock()
	for sym, q := range live {
		if q == nil {
			continue
		}
		s.prices[sym] = q
		refreshed++
	}
	return refreshed, symbols, nil
}

// refreshJob adapts the refresh into a scheduled job.
type refreshJob struct{ s *Server }

func (j *refreshJob) Name() string { return "quote-refresh" }

func (j *refreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	refreshed, symbols, err := j.s.refreshPrices(ctx)
	if err != nil {
		return err
	}
	j.s.log.Info().Int("refreshed", refreshed).Int("held", len(symbols)).Msg("Quote cache refreshed")
	return nil
}
