package back

import "math"

// transferStep maps a rating difference threshold to the points a winner
// takes from a loser.
type transferStep struct {
	threshold int
	delta     int
}

// Winner rated at or above the loser, first step with d >= threshold wins.
var expectedOutcomeSteps = []transferStep{ // nolint:gochecknoglobals
	{238, 0},
	{188, 1},
	{138, 2},
	{113, 3},
	{88, 4},
	{63, 5},
	{38, 6},
	{13, 7},
	{0, 8},
}

// Winner rated below the loser, first step with d <= threshold wins.
var upsetSteps = []transferStep{ // nolint:gochecknoglobals
	{-238, 50},
	{-213, 45},
	{-188, 40},
	{-163, 35},
	{-138, 30},
	{-113, 25},
	{-88, 20},
	{-63, 16},
	{-38, 13},
	{-13, 10},
}

// upsetFloor is the delta of a narrow upset (-12 <= d <= -1).
const upsetFloor = 8

// TransferDelta returns the number of rating points the winner of a match
// takes from the loser. It is never negative.
func TransferDelta(winnerRating, loserRating int) int {
	d := ratingDiff(winnerRating, loserRating)

	if d >= 0 {
		for _, v := range expectedOutcomeSteps {
			if d >= v.threshold {
				return v.delta
			}
		}
	}

	for _, v := range upsetSteps {
		if d <= v.threshold {
			return v.delta
		}
	}

	return upsetFloor
}

// ratingDiff returns a - b, saturated to the int range instead of wrapping.
func ratingDiff(a, b int) int {
	d := a - b
	if (a >= 0) != (b >= 0) && (d >= 0) != (a >= 0) {
		if a >= 0 {
			return math.MaxInt
		}
		return math.MinInt
	}

	return d
}
