package camels

import (
	"encoding/json"
	"fmt"
)

// Scheme is the full rating configuration: one threshold and one weight per variable
type Scheme struct {
	Name       string
	Thresholds ThresholdSpec
	Weights    WeightVector
}

// DefaultScheme returns the expert thresholds and weights of the reference model
func DefaultScheme() Scheme {
	return Scheme{
		Name: "default",
		Thresholds: ThresholdSpec{
			Tier1CapitalRatio:       {HigherIsBetter: true, Bounds: [4]float64{0.06, 0.1, 0.14, 0.2}, Method: BinExpert},
			DebtToEquity:            {HigherIsBetter: false, Bounds: [4]float64{6, 8, 10, 12}, Method: BinExpert},
			NPLRatio:                {HigherIsBetter: false, Bounds: [4]float64{0.04, 0.08, 0.12, 0.16}, Method: BinExpert},
			LoanLossProvisionScaled: {HigherIsBetter: false, Bounds: [4]float64{0.02, 0.04, 0.06, 0.08}, Method: BinExpert},
			AssetGrowth3YAvg:        {HigherIsBetter: true, Bounds: [4]float64{-0.03, 0, 0.03, 0.06}, Method: BinExpert},
			EfficiencyRatio:         {HigherIsBetter: false, Bounds: [4]float64{0.5, 0.7, 0.9, 1.1}, Method: BinExpert},
			ReturnOnAssets:          {HigherIsBetter: true, Bounds: [4]float64{-0.002, 0.001, 0.005, 0.01}, Method: BinExpert},
			InterestExpenseToIncome: {HigherIsBetter: false, Bounds: [4]float64{0.07, 0.14, 0.21, 0.28}, Method: BinExpert},
			LiquidityCoverage:       {HigherIsBetter: true, Bounds: [4]float64{1, 1.35, 1.7, 2}, Method: BinExpert},
			CashRatio:               {HigherIsBetter: true, Bounds: [4]float64{0.075, 0.15, 0.225, 0.3}, Method: BinExpert},
			NonInterestIncomeShare:  {HigherIsBetter: true, Bounds: [4]float64{0.1, 0.2, 0.3, 0.4}, Method: BinExpert},
		},
		Weights: WeightVector{
			Tier1CapitalRatio:       0.09,
			DebtToEquity:            0.10,
			NPLRatio:                0.15,
			LoanLossProvisionScaled: 0.11,
			AssetGrowth3YAvg:        0.09,
			EfficiencyRatio:         0.10,
			ReturnOnAssets:          0.10,
			InterestExpenseToIncome: 0.06,
			LiquidityCoverage:       0.01,
			CashRatio:               0.07,
			NonInterestIncomeShare:  0.12,
		},
	}
}

// Validate checks every threshold and the weight vector
func (s Scheme) Validate() error {
	for _, v := range Variables() {
		if err := s.Thresholds[v].Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScheme, &ValidationError{
				Field:   "thresholds." + v.Key(),
				Message: err.Error(),
				Value:   s.Thresholds[v].Bounds,
			})
		}
	}
	if err := s.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScheme, err)
	}
	return nil
}

// Rate classifies, scores and grades one ratio set
func (s Scheme) Rate(r Ratios) (SubRatings, float64, Grade) {
	subs := s.Thresholds.Classify(r)
	score := CompositeScore(subs, s.Weights)
	return subs, score, MapRating(score)
}

// MarshalJSON encodes the scheme in its keyed file form
func (s Scheme) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toFile())
}

// UnmarshalJSON decodes the keyed file form. The result is not validated.
func (s *Scheme) UnmarshalJSON(data []byte) error {
	var f schemeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	parsed, err := f.toScheme()
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
