package odds

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOdds is returned for American odds with no defined sign or
// magnitude (zero). The failed computation is abandoned; the batch is not.
var ErrInvalidOdds = errors.New("invalid american odds")

// ImpliedProbability converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func ImpliedProbability(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("odds %d: %w", american, ErrInvalidOdds)
	}

	if american > 0 {
		// Underdog: probability = 100 / (odds + 100)
		return 100.0 / (float64(american) + 100.0), nil
	}
	// Favorite: probability = |odds| / (|odds| + 100)
	return math.Abs(float64(american)) / (math.Abs(float64(american)) + 100.0), nil
}

// PayoutMultiplier converts American odds to net winnings per dollar staked
// Example: +150 → 1.5, -200 → 0.5
func PayoutMultiplier(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("odds %d: %w", american, ErrInvalidOdds)
	}

	if american > 0 {
		return float64(american) / 100.0, nil
	}
	return 100.0 / math.Abs(float64(american)), nil
}
