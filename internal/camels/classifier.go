package camels

import (
	"fmt"
	"math"
)

// BinMethod labels how a threshold set was produced
type BinMethod string

const (
	// BinExpert marks thresholds set by expert judgement
	BinExpert BinMethod = "expert"
)

// WorstSubRating is assigned to any ratio that cannot be computed
const WorstSubRating = 5

// Threshold holds the four cutpoints that split a variable into five bins:
// (-inf,t1], (t1,t2], (t2,t3], (t3,t4], (t4,+inf)
type Threshold struct {
	HigherIsBetter bool       `json:"higher_is_better" yaml:"higher_is_better" toml:"higher_is_better"`
	Bounds         [4]float64 `json:"bounds" yaml:"bounds" toml:"bounds"`
	Method         BinMethod  `json:"method,omitempty" yaml:"method,omitempty" toml:"method,omitempty"`
}

// Bin returns the 0-based bin index of x
func (t Threshold) Bin(x float64) int {
	for i, bound := range t.Bounds {
		if x <= bound {
			return i
		}
	}
	return len(t.Bounds)
}

// Classify maps a ratio to its sub-rating. Missing values get the worst
// rank regardless of direction.
func (t Threshold) Classify(v Value) int {
	if !v.Valid {
		return WorstSubRating
	}
	bin := t.Bin(v.Float)
	if t.HigherIsBetter {
		return WorstSubRating - bin
	}
	return bin + 1
}

// Validate checks that the bounds are finite and strictly increasing
func (t Threshold) Validate() error {
	for i, b := range t.Bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("bound t%d is not finite", i+1)
		}
		if i > 0 && b <= t.Bounds[i-1] {
			return fmt.Errorf("bounds must be strictly increasing: t%d=%g <= t%d=%g", i+1, b, i, t.Bounds[i-1])
		}
	}
	return nil
}

// ThresholdSpec holds one threshold per variable
type ThresholdSpec [NumVariables]Threshold

// Classify maps every ratio of a row to its sub-rating
func (ts ThresholdSpec) Classify(r Ratios) SubRatings {
	var out SubRatings
	for i := range r {
		out[i] = ts[i].Classify(r[i])
	}
	return out
}

var subRatingLetters = [...]string{"", "A", "B", "C", "D", "E"}

// SubRatingLetter renders a sub-rating 1..5 as A..E
func SubRatingLetter(rank int) string {
	if rank < 1 || rank > WorstSubRating {
		return ""
	}
	return subRatingLetters[rank]
}
