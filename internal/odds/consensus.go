package odds

import (
	"errors"
	"fmt"

	"mma-betting-engine/internal/market"
)

// ErrNoConsensus means no configured sharp book priced the market. The
// market is skipped; a consensus is never fabricated from zero sources.
var ErrNoConsensus = errors.New("no sharp book quotes for market")

// Consensus holds the sharp-book consensus for one fight. The two
// probabilities sum to 1 within 1e-9 whenever the averaged market carried
// vig (see RemoveVig for the pass-through branch).
type Consensus struct {
	Fighter1Prob float64 // vig-free
	Fighter2Prob float64
	Fighter1Odds int // averaged American odds the probabilities came from
	Fighter2Odds int
	SharpBooks   int // number of sharp books in the average
}

// SharpConsensus averages the sharp books' raw American odds per side, then
// de-vigs the averaged pair. The mean is an integer mean, truncated toward
// zero. Book names match the sharp set case-sensitively.
func SharpConsensus(books map[string]market.BookLine, sharpBooks []string) (Consensus, error) {
	sharpSet := make(map[string]bool, len(sharpBooks))
	for _, b := range sharpBooks {
		sharpSet[b] = true
	}

	var sum1, sum2, count int
	for book, line := range books {
		if !sharpSet[book] {
			continue
		}
		sum1 += line.Fighter1Odds
		sum2 += line.Fighter2Odds
		count++
	}

	if count == 0 {
		return Consensus{}, ErrNoConsensus
	}

	avg1 := sum1 / count
	avg2 := sum2 / count

	prob1, prob2, err := RemoveVigFromAmerican(avg1, avg2)
	if err != nil {
		return Consensus{}, fmt.Errorf("averaged sharp odds %d/%d: %w", avg1, avg2, err)
	}

	return Consensus{
		Fighter1Prob: prob1,
		Fighter2Prob: prob2,
		Fighter1Odds: avg1,
		Fighter2Odds: avg2,
		SharpBooks:   count,
	}, nil
}
