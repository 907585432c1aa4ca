package analysis

import (
	"errors"
	"log"
	"sort"

	"mma-betting-engine/internal/market"
	"mma-betting-engine/internal/mathutil"
	"mma-betting-engine/internal/odds"
)

// ErrIncompleteMarket means fewer than two books priced both sides of the
// fight. There is nothing to compare a consensus against, so the market is
// skipped.
var ErrIncompleteMarket = errors.New("fewer than two books with complete quotes")

// Recommendation tiers, strongest first.
const (
	RecommendStrong    = "STRONG BET"
	RecommendGood      = "GOOD BET"
	RecommendDecent    = "DECENT BET"
	RecommendSmallEdge = "SMALL EDGE"
)

// Config holds EV detection configuration. Book sets are injected rather
// than hard-coded so the detector, the consensus builder and the operator
// always agree on which book is which.
type Config struct {
	Threshold   float64  // minimum edge in percentage points
	SharpBooks  []string // consensus sources
	SquareBooks []string // books checked for mispricing
}

// DefaultConfig returns the moderate threshold and the standard book split.
func DefaultConfig() Config {
	return Config{
		Threshold:   1.0,
		SharpBooks:  []string{"Pinnacle", "BetOnline", "Circa Sports"},
		SquareBooks: []string{"DraftKings", "Bet365", "FanDuel"},
	}
}

// Opportunity is one +EV mismatch: a square book pricing a fighter below the
// sharp consensus. Opportunities are immutable; a fresh run produces a fresh
// set. Probabilities are percentages (0-100).
type Opportunity struct {
	Fighter         string              `json:"fighter"`
	Book            string              `json:"book"`
	EVPercentage    float64             `json:"ev_percentage"`
	ConfidenceScore float64             `json:"confidence_score"`
	ConsensusProb   float64             `json:"sharp_consensus_prob"`
	BookProb        float64             `json:"square_prob"`
	Recommendation  string              `json:"recommendation"`
	FightInfo       string              `json:"fight_info"`
	Stake           StakeRecommendation `json:"stake"`
}

// ConfidenceScore scores an edge 0-100 from three components: edge magnitude
// (up to 50), sharp-book agreement (up to 30) and an extremity bonus (up to
// 20 in steps at edges of 1.5, 2.0 and 3.0 points).
func ConfidenceScore(edgePct float64, sharpBooks int) float64 {
	score := 0.0

	if m := edgePct * 15; m < 50 {
		score += m
	} else {
		score += 50
	}

	if a := float64(sharpBooks) * 10; a < 30 {
		score += a
	} else {
		score += 30
	}

	switch {
	case edgePct >= 3.0:
		score += 20
	case edgePct >= 2.0:
		score += 15
	case edgePct >= 1.5:
		score += 10
	}

	return mathutil.Clamp(score, 0, 100)
}

// Recommendation classifies an edge/confidence pair, strongest rule first.
func Recommendation(edgePct, confidence float64) string {
	switch {
	case confidence >= 80 && edgePct >= 2.5:
		return RecommendStrong
	case confidence >= 60 && edgePct >= 1.5:
		return RecommendGood
	case edgePct >= 1.0:
		return RecommendDecent
	default:
		return RecommendSmallEdge
	}
}

// AnalyzeFight finds +EV opportunities in a single fight: build the sharp
// consensus, de-vig each square book's own pair, and flag every side priced
// at least Threshold percentage points below consensus.
//
// Square books are walked in configured order so an unchanged snapshot
// always produces an identical result set.
func AnalyzeFight(f market.Fight, cfg Config, sizer *Sizer) ([]Opportunity, error) {
	books := f.CompleteBooks()
	if len(books) < 2 {
		return nil, ErrIncompleteMarket
	}

	consensus, err := odds.SharpConsensus(books, cfg.SharpBooks)
	if err != nil {
		return nil, err
	}

	var opps []Opportunity
	for _, book := range cfg.SquareBooks {
		line, ok := books[book]
		if !ok {
			continue
		}

		bookProb1, bookProb2, err := odds.RemoveVigFromAmerican(line.Fighter1Odds, line.Fighter2Odds)
		if err != nil {
			// Degenerate quote kills this book's comparison only.
			continue
		}

		edge1 := (consensus.Fighter1Prob - bookProb1) * 100
		edge2 := (consensus.Fighter2Prob - bookProb2) * 100

		if edge1 >= cfg.Threshold {
			opps = append(opps, buildOpportunity(
				f, f.Fighter1, book, edge1,
				consensus.Fighter1Prob, bookProb1, consensus.SharpBooks,
				line.Fighter1Odds, sizer,
			))
		}
		if edge2 >= cfg.Threshold {
			opps = append(opps, buildOpportunity(
				f, f.Fighter2, book, edge2,
				consensus.Fighter2Prob, bookProb2, consensus.SharpBooks,
				line.Fighter2Odds, sizer,
			))
		}
	}

	sortByEdge(opps)
	return opps, nil
}

// AnalyzeAll runs every fight in a snapshot. Per-market failures (missing
// sharp books, incomplete quotes, degenerate odds) are logged and skipped;
// one bad fight never aborts the batch.
func AnalyzeAll(fights []market.Fight, cfg Config, sizer *Sizer) []Opportunity {
	var all []Opportunity
	for _, f := range fights {
		opps, err := AnalyzeFight(f, cfg, sizer)
		if err != nil {
			log.Printf("skipping %s: %v", f.Label(), err)
			continue
		}
		all = append(all, opps...)
	}

	sortByEdge(all)
	return all
}

func buildOpportunity(f market.Fight, fighter, book string, edge, consensusProb, bookProb float64, sharpBooks, american int, sizer *Sizer) Opportunity {
	confidence := ConfidenceScore(edge, sharpBooks)

	return Opportunity{
		Fighter:         fighter,
		Book:            book,
		EVPercentage:    mathutil.Round2(edge),
		ConfidenceScore: mathutil.Round1(confidence),
		ConsensusProb:   mathutil.Round1(consensusProb * 100),
		BookProb:        mathutil.Round1(bookProb * 100),
		Recommendation:  Recommendation(edge, confidence),
		FightInfo:       f.Label(),
		Stake:           sizer.Recommend(edge, consensusProb*100, american),
	}
}

// sortByEdge orders by edge descending; the stable sort preserves the
// square-book walk order on ties.
func sortByEdge(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].EVPercentage > opps[j].EVPercentage
	})
}
