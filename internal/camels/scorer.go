package camels

import (
	"fmt"
	"math"
)

const (
	// WeightSumTolerance bounds how far the weights may sum from 1
	WeightSumTolerance = 1e-6

	// MinScore and MaxScore bound the composite score
	MinScore = 1.0
	MaxScore = 5.0

	scoreEpsilon = 1e-9
)

// WeightVector holds one non-negative weight per variable
type WeightVector [NumVariables]float64

// Sum returns the total weight
func (w WeightVector) Sum() float64 {
	var total float64
	for _, x := range w {
		total += x
	}
	return total
}

// Validate checks sign, finiteness and the unit sum
func (w WeightVector) Validate() error {
	for i, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &ValidationError{Field: Variable(i).Key(), Message: "weight is not finite", Value: x}
		}
		if x < 0 {
			return &ValidationError{Field: Variable(i).Key(), Message: "weight must be non-negative", Value: x}
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > WeightSumTolerance {
		return &ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("weights must sum to 1 (got %.9f)", sum),
			Value:   sum,
		}
	}
	return nil
}

// CompositeScore is the weighted sum of the sub-ratings. Summation drift
// within scoreEpsilon of either end is snapped onto it and the result is
// clamped to [1,5].
func CompositeScore(s SubRatings, w WeightVector) float64 {
	var score float64
	for i := range s {
		score += float64(s[i]) * w[i]
	}
	switch {
	case math.Abs(score-MinScore) < scoreEpsilon:
		return MinScore
	case math.Abs(score-MaxScore) < scoreEpsilon:
		return MaxScore
	}
	return math.Min(MaxScore, math.Max(MinScore, score))
}
