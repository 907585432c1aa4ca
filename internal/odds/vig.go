package odds

// RemoveVig removes the bookmaker margin from a two-way market
// Returns the true probabilities
//
// Method: multiplicative (proportional)
// trueProbA = impliedA / (impliedA + impliedB)
// trueProbB = impliedB / (impliedA + impliedB)
//
// When the implied total is 1.0 or less (no vig, or an arbitrage-shaped
// market) the inputs pass through unchanged. That is a legitimate market
// state, not an error; callers must not assume the returned pair sums to 1
// in that branch.
func RemoveVig(impliedA, impliedB float64) (float64, float64) {
	total := impliedA + impliedB
	if total <= 1.0 {
		return impliedA, impliedB
	}

	return impliedA / total, impliedB / total
}

// RemoveVigFromAmerican converts a pair of American odds to vig-free
// probabilities.
func RemoveVigFromAmerican(oddsA, oddsB int) (float64, float64, error) {
	impliedA, err := ImpliedProbability(oddsA)
	if err != nil {
		return 0, 0, err
	}
	impliedB, err := ImpliedProbability(oddsB)
	if err != nil {
		return 0, 0, err
	}

	trueA, trueB := RemoveVig(impliedA, impliedB)
	return trueA, trueB, nil
}
