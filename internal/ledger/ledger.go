// Package ledger persists placed wagers through their pending→settled
// lifecycle and derives aggregate performance statistics. Storage sits
// behind a small Repository interface so the engine never touches SQL.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mma-betting-engine/internal/mathutil"
	"mma-betting-engine/internal/odds"
)

// Status is a bet's lifecycle state. Transitions only move forward:
// pending → won | lost | cancelled. Settlement fields are written exactly
// once, at that transition.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNotFound means the bet id does not exist.
	ErrNotFound = errors.New("bet not found")

	// ErrBetSettled means the bet already left the pending state. Settling
	// twice is a hard error, never a silent overwrite: the first
	// settlement's amount and timestamp stand.
	ErrBetSettled = errors.New("bet already settled")
)

// Bet is a persisted wager. The ledger exclusively owns the record's
// lifecycle; callers hold only the id. Timestamps are opaque ISO-8601
// strings. ResultAmount and SettledAt stay nil until settlement.
type Bet struct {
	ID               int64    `json:"id"`
	Fighter          string   `json:"fighter"`
	Opponent         string   `json:"opponent"`
	Book             string   `json:"book"`
	Odds             int      `json:"odds"`
	Amount           float64  `json:"bet_amount"`
	Units            float64  `json:"unit_size"`
	EVPercentage     float64  `json:"ev_percentage"`
	ConfidenceScore  float64  `json:"confidence_score"`
	KellyRecommended float64  `json:"kelly_recommended"`
	PlacedAt         string   `json:"placed_date"`
	FightDate        string   `json:"fight_date"`
	Status           Status   `json:"status"`
	ResultAmount     *float64 `json:"result_amount"`
	SettledAt        *string  `json:"settled_date"`
}

// Stats are derived on demand, never stored. Cancelled bets count toward
// totals but are excluded from win rate, risk and profit.
type Stats struct {
	TotalBets     int     `json:"total_bets"`
	WonBets       int     `json:"won_bets"`
	LostBets      int     `json:"lost_bets"`
	PendingBets   int     `json:"pending_bets"`
	CancelledBets int     `json:"cancelled_bets"`
	WinRate       float64 `json:"win_rate"`      // percent of settled bets won
	TotalWagered  float64 `json:"total_wagered"` // sum of all stakes
	NetProfit     float64 `json:"net_profit"`    // settled returns minus settled stakes
	ROI           float64 `json:"roi"`           // percent of settled stakes
	AvgBetSize    float64 `json:"avg_bet_size"`
}

// Totals are the raw aggregates a Repository reports; Stats math lives in
// the ledger, not in SQL.
type Totals struct {
	TotalBets     int
	WonBets       int
	LostBets      int
	PendingBets   int
	CancelledBets int
	TotalWagered  float64
	TotalReturned float64 // settlement amounts over won+lost
	TotalRisked   float64 // stakes over won+lost
}

// Repository is the storage contract: insert, get-by-id, update-settlement,
// list-recent, aggregate-stats. UpdateSettlement must be transactional per
// id so two concurrent settles cannot both observe pending.
type Repository interface {
	Insert(ctx context.Context, bet Bet) (int64, error)
	GetByID(ctx context.Context, id int64) (Bet, error)
	UpdateSettlement(ctx context.Context, id int64, status Status, resultAmount *float64, settledAt string) error
	Recent(ctx context.Context, limit int) ([]Bet, error)
	Totals(ctx context.Context) (Totals, error)
	Close() error
}

// Ledger is the bet lifecycle service.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// New creates a Ledger on the given repository.
func New(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Place records a new wager. Status and placed timestamp are assigned here;
// whatever the caller set is ignored. Zero odds are rejected up front so a
// won settlement can always compute its payout.
func (l *Ledger) Place(ctx context.Context, bet Bet) (int64, error) {
	if _, err := odds.PayoutMultiplier(bet.Odds); err != nil {
		return 0, err
	}
	if bet.Amount <= 0 {
		return 0, fmt.Errorf("bet amount must be positive, got %.2f", bet.Amount)
	}

	bet.Status = StatusPending
	bet.PlacedAt = l.now().UTC().Format(time.RFC3339)
	bet.ResultAmount = nil
	bet.SettledAt = nil

	id, err := l.repo.Insert(ctx, bet)
	if err != nil {
		return 0, fmt.Errorf("inserting bet: %w", err)
	}
	return id, nil
}

// Settle moves a pending bet to won, lost or cancelled.
//
// won:       settlement = stake + stake × payout multiplier
// lost:      settlement = 0
// cancelled: no settlement amount (the stake was never at risk)
//
// Unknown ids fail with ErrNotFound; non-pending bets with ErrBetSettled.
// No retries: a failed settle surfaces to the caller untouched.
func (l *Ledger) Settle(ctx context.Context, id int64, result Status) (Bet, error) {
	if result != StatusWon && result != StatusLost && result != StatusCancelled {
		return Bet{}, fmt.Errorf("invalid settlement result %q", result)
	}

	bet, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return Bet{}, err
	}
	if bet.Status != StatusPending {
		return Bet{}, fmt.Errorf("bet %d is %s: %w", id, bet.Status, ErrBetSettled)
	}

	var resultAmount *float64
	switch result {
	case StatusWon:
		mult, err := odds.PayoutMultiplier(bet.Odds)
		if err != nil {
			return Bet{}, err
		}
		amount := bet.Amount + bet.Amount*mult
		resultAmount = &amount
	case StatusLost:
		zero := 0.0
		resultAmount = &zero
	}

	settledAt := l.now().UTC().Format(time.RFC3339)
	if err := l.repo.UpdateSettlement(ctx, id, result, resultAmount, settledAt); err != nil {
		return Bet{}, err
	}

	return l.repo.GetByID(ctx, id)
}

// Recent lists the newest bets first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Bet, error) {
	if limit <= 0 {
		limit = 20
	}
	return l.repo.Recent(ctx, limit)
}

// Stats derives the aggregate picture from the repository's raw totals.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	t, err := l.repo.Totals(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregating totals: %w", err)
	}

	stats := Stats{
		TotalBets:     t.TotalBets,
		WonBets:       t.WonBets,
		LostBets:      t.LostBets,
		PendingBets:   t.PendingBets,
		CancelledBets: t.CancelledBets,
		TotalWagered:  mathutil.Round2(t.TotalWagered),
		NetProfit:     mathutil.Round2(t.TotalReturned - t.TotalRisked),
	}

	if settled := t.WonBets + t.LostBets; settled > 0 {
		stats.WinRate = mathutil.Round1(float64(t.WonBets) / float64(settled) * 100)
	}
	if t.TotalRisked > 0 {
		stats.ROI = mathutil.Round1((t.TotalReturned - t.TotalRisked) / t.TotalRisked * 100)
	}
	if t.TotalBets > 0 {
		stats.AvgBetSize = mathutil.Round2(t.TotalWagered / float64(t.TotalBets))
	}

	return stats, nil
}
