package analysis

import (
	"sync"

	"mma-betting-engine/internal/mathutil"
	"mma-betting-engine/internal/odds"
)

// Risk levels and size categories for a stake recommendation.
const (
	RiskSkip    = "SKIP"
	RiskCapped  = "CAPPED"
	RiskHigh    = "HIGH"
	RiskMedium  = "MEDIUM"
	RiskLow     = "LOW"
	RiskMinimal = "MINIMAL"

	CategoryTooSmall = "TOO SMALL"
	CategoryCapped   = "CAPPED"
	CategoryLarge    = "LARGE"
	CategoryMedium   = "MEDIUM"
	CategorySmall    = "SMALL"
	CategoryTiny     = "TINY"
)

// StakeRecommendation is a pure sizing output: a capped fractional-Kelly
// stake expressed as a bankroll percentage, a dollar amount and a unit count.
// It carries no identity and is never persisted on its own.
type StakeRecommendation struct {
	Percentage float64 `json:"percentage"` // % of bankroll, post-bounds
	Dollars    float64 `json:"dollars"`
	Units      float64 `json:"units"`
	RiskLevel  string  `json:"risk_level"`
	Category   string  `json:"category"`
}

// SizerConfig holds the sizing parameters. The min/max bet bounds are
// configuration, not constants: the historical tooling disagreed on them
// (10%/0.1% in one place, 5%/0.5% in another) and the conservative pair is
// the default here.
type SizerConfig struct {
	Bankroll  float64
	UnitSize  float64 // dollars per unit
	Fraction  float64 // Kelly multiplier, 0.5 = half Kelly
	MinBetPct float64 // below this, skip entirely
	MaxBetPct float64 // hard bankroll-safety ceiling
}

// DefaultSizerConfig returns the conservative defaults.
func DefaultSizerConfig() SizerConfig {
	return SizerConfig{
		Bankroll:  1000.0,
		UnitSize:  10.0,
		Fraction:  0.5,
		MinBetPct: 0.5,
		MaxBetPct: 5.0,
	}
}

// Sizer converts probability estimates into capped fractional-Kelly stakes.
// Sizing itself is pure; the only mutable state is the bankroll, changed
// exclusively through UpdateBankroll.
type Sizer struct {
	mu  sync.Mutex
	cfg SizerConfig
}

// NewSizer creates a Sizer with the given configuration.
func NewSizer(cfg SizerConfig) *Sizer {
	return &Sizer{cfg: cfg}
}

// Bankroll returns the current bankroll.
func (s *Sizer) Bankroll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Bankroll
}

// UpdateBankroll replaces the bankroll after wins and losses.
func (s *Sizer) UpdateBankroll(bankroll float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Bankroll = bankroll
}

// Recommend sizes a wager from the estimated win probability (as a
// percentage, 0-100) and the American odds being offered on that side.
//
// Kelly formula: f* = (b*p - q) / b
// where p = win probability, q = 1-p, b = net payout multiplier.
//
// evPct is informational only (it travels with the recommendation trail);
// the sizing is driven entirely by probability and odds. A degenerate or
// zero-payout quote sizes to zero rather than erroring: the caller already
// validated the odds upstream, and a zero stake is the safe answer here.
func (s *Sizer) Recommend(evPct, winProbPct float64, american int) StakeRecommendation {
	_ = evPct

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	b, err := odds.PayoutMultiplier(american)
	fullKelly := 0.0
	if err == nil && b > 0 {
		p := winProbPct / 100.0
		q := 1.0 - p
		fullKelly = (b*p - q) / b
	}

	// Fractional Kelly, as a percentage of bankroll
	kellyPct := fullKelly * cfg.Fraction * 100.0

	var pct float64
	var risk, category string
	switch {
	case kellyPct < cfg.MinBetPct:
		pct = 0
		risk = RiskSkip
		category = CategoryTooSmall
	case kellyPct > cfg.MaxBetPct:
		pct = cfg.MaxBetPct
		risk = RiskCapped
		category = CategoryCapped
	case kellyPct >= 3.0:
		pct = kellyPct
		risk = RiskHigh
		category = CategoryLarge
	case kellyPct >= 2.0:
		pct = kellyPct
		risk = RiskMedium
		category = CategoryMedium
	case kellyPct >= 1.0:
		pct = kellyPct
		risk = RiskLow
		category = CategorySmall
	default:
		pct = kellyPct
		risk = RiskMinimal
		category = CategoryTiny
	}

	dollars := (pct / 100.0) * cfg.Bankroll
	units := 0.0
	if cfg.UnitSize > 0 {
		units = dollars / cfg.UnitSize
	}

	return StakeRecommendation{
		Percentage: mathutil.Round2(pct),
		Dollars:    mathutil.Round2(dollars),
		Units:      mathutil.Round2(units),
		RiskLevel:  risk,
		Category:   category,
	}
}
