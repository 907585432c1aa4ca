// Package server exposes engine outputs over HTTP. It only serializes:
// every invariant lives in the analysis and ledger packages below it.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mma-betting-engine/internal/analysis"
	"mma-betting-engine/internal/ledger"
)

// Server holds the handler dependencies plus the latest analysis snapshot.
type Server struct {
	ledger *ledger.Ledger
	sizer  *analysis.Sizer

	mu            sync.RWMutex
	opportunities []analysis.Opportunity
}

// New creates a Server over the given ledger and sizer.
func New(l *ledger.Ledger, s *analysis.Sizer) *Server {
	return &Server{ledger: l, sizer: s}
}

// SetOpportunities swaps in the result of a fresh analysis run. The slice is
// replaced wholesale; readers never see a half-updated set.
func (s *Server) SetOpportunities(opps []analysis.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities = opps
}

// Opportunities returns the latest analysis results.
func (s *Server) Opportunities() []analysis.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opportunities
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/stats", s.handleStats)
		r.Get("/bets", s.handleRecentBets)
		r.Post("/bets", s.handlePlaceBet)
		r.Post("/bets/{id}/settle", s.handleSettleBet)
		r.Post("/bankroll", s.handleUpdateBankroll)
	})

	return r
}

// ListenAndServe runs the API on addr until ctx is cancelled, then drains
// in-flight requests before returning. A nil return means a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	api := &http.Server{Addr: addr, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		errc <- api.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return api.Shutdown(shutdownCtx)
}
