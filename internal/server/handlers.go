package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mma-betting-engine/internal/analysis"
	"mma-betting-engine/internal/ledger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "mma-betting-engine",
	})
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opps := s.Opportunities()
	if opps == nil {
		opps = []analysis.Opportunity{}
	}
	respondJSON(w, http.StatusOK, opps)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("stats: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecentBets(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	bets, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("listing bets: %v", err))
		return
	}
	if bets == nil {
		bets = []ledger.Bet{}
	}
	respondJSON(w, http.StatusOK, bets)
}

// placeBetRequest mirrors the persisted bet fields the caller supplies; id,
// status and timestamps are the ledger's to assign.
type placeBetRequest struct {
	Fighter          string  `json:"fighter"`
	Opponent         string  `json:"opponent"`
	Book             string  `json:"book"`
	Odds             int     `json:"odds"`
	Amount           float64 `json:"bet_amount"`
	Units            float64 `json:"unit_size"`
	EVPercentage     float64 `json:"ev_percentage"`
	ConfidenceScore  float64 `json:"confidence_score"`
	KellyRecommended float64 `json:"kelly_recommended"`
	FightDate        string  `json:"fight_date"`
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	id, err := s.ledger.Place(r.Context(), ledger.Bet{
		Fighter:          req.Fighter,
		Opponent:         req.Opponent,
		Book:             req.Book,
		Odds:             req.Odds,
		Amount:           req.Amount,
		Units:            req.Units,
		EVPercentage:     req.EVPercentage,
		ConfidenceScore:  req.ConfidenceScore,
		KellyRecommended: req.KellyRecommended,
		FightDate:        req.FightDate,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("placing bet: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type settleBetRequest struct {
	Result string `json:"result"`
}

func (s *Server) handleSettleBet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid bet id")
		return
	}

	var req settleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	bet, err := s.ledger.Settle(r.Context(), id, ledger.Status(req.Result))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, ledger.ErrBetSettled):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("settling bet: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, bet)
}

type bankrollRequest struct {
	Bankroll float64 `json:"bankroll"`
}

func (s *Server) handleUpdateBankroll(w http.ResponseWriter, r *http.Request) {
	var req bankrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Bankroll <= 0 {
		respondError(w, http.StatusBadRequest, "bankroll must be positive")
		return
	}

	s.sizer.UpdateBankroll(req.Bankroll)
	respondJSON(w, http.StatusOK, map[string]float64{"bankroll": req.Bankroll})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
