package camels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden tests pin the full pipeline on fixed inputs. Any change to the
// ratio formulas, thresholds or weights shows up here first.

func TestGoldenTwoBankMarket(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	res, err := engine.Rate(context.Background(), []Observation{
		strongBank("Alpha", fy2023),
		weakBank("Omega", fy2023),
	})
	require.NoError(t, err)

	// market rate (30+200)/(1000+1000)
	assert.InDelta(t, 0.115, res.MarketRates[0].Rate.Float, 1e-12)

	alpha, omega := res.Ratings[0], res.Ratings[1]

	expectedAlpha := allRanks(1)
	expectedAlpha[LoanLossProvisionScaled] = 5 // |0.03 - 0.115| > 0.08
	assert.Equal(t, expectedAlpha, alpha.SubRatings)
	assert.InDelta(t, 1.44, alpha.CompositeScore, 1e-9)
	assert.Equal(t, GradeAMinus, alpha.Grade)

	assert.Equal(t, allRanks(5), omega.SubRatings)
	assert.Equal(t, 5.0, omega.CompositeScore)
	assert.Equal(t, GradeEMinus, omega.Grade)
	assert.Equal(t, BandE, omega.Band)

	ratios := res.Ratios[1].Ratios
	assert.InDelta(t, 0.05, ratios[Tier1CapitalRatio].Float, 1e-12)
	assert.InDelta(t, 15, ratios[DebtToEquity].Float, 1e-12)
	assert.InDelta(t, 0.085, ratios[LoanLossProvisionScaled].Float, 1e-12)
	assert.InDelta(t, (-0.125-100.0/900-0.1)/3, ratios[AssetGrowth3YAvg].Float, 1e-12)
	assert.InDelta(t, -10.0/750, ratios[ReturnOnAssets].Float, 1e-12)
	assert.InDelta(t, 5.0/105, ratios[NonInterestIncomeShare].Float, 1e-12)
}

func TestGoldenSingleBankIsBestInClass(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	res, err := engine.Rate(context.Background(), []Observation{strongBank("Alpha", fy2023)})
	require.NoError(t, err)

	// alone in the market, the provision rate equals the market rate
	assert.Equal(t, 0.0, res.Ratios[0].Ratios[LoanLossProvisionScaled].Float)
	assert.Equal(t, allRanks(1), res.Ratings[0].SubRatings)
	assert.Equal(t, 1.0, res.Ratings[0].CompositeScore)
	assert.Equal(t, GradeAPlus, res.Ratings[0].Grade)
}
