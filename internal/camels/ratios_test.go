package camels

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	t.Run("non-finite becomes missing", func(t *testing.T) {
		assert.False(t, Some(math.NaN()).Valid)
		assert.False(t, Some(math.Inf(1)).Valid)
		assert.False(t, Some(math.Inf(-1)).Valid)
		assert.True(t, Some(0).Valid)
	})

	t.Run("json null round trip", func(t *testing.T) {
		data, err := json.Marshal([]Value{Some(1.5), Missing})
		require.NoError(t, err)
		assert.JSONEq(t, `[1.5, null]`, string(data))

		var decoded []Value
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, []Value{Some(1.5), Missing}, decoded)
	})

	t.Run("json rejects strings", func(t *testing.T) {
		var v Value
		assert.Error(t, json.Unmarshal([]byte(`"abc"`), &v))
	})

	t.Run("OrNaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Missing.OrNaN()))
		assert.Equal(t, 2.0, Some(2).OrNaN())
	})
}

func TestParseVariable(t *testing.T) {
	tests := []struct {
		input   string
		want    Variable
		wantErr bool
	}{
		{"tier1_capital_ratio", Tier1CapitalRatio, false},
		{"Tier 1 Capital Ratio", Tier1CapitalRatio, false},
		{"  ROA ", ReturnOnAssets, false},
		{"Return on Assets (ROA)", ReturnOnAssets, false},
		{"lcr", LiquidityCoverage, false},
		{"leverage", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVariable(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, Variables(), 11)
	assert.Equal(t, "unknown", Variable(42).String())
}

func TestDeriveRatios(t *testing.T) {
	o := strongBank("Alpha", fy2023)
	row := DeriveRatios(o, Some(0.03))

	assert.Equal(t, "Alpha", row.Institution)
	assert.True(t, row.Date.Equal(fy2023))

	expected := map[Variable]float64{
		Tier1CapitalRatio:       0.25,
		DebtToEquity:            5,
		NPLRatio:                0.02,
		LoanLossProvisionScaled: 0,
		AssetGrowth3YAvg:        (0.1 + 100.0/900 + 0.125) / 3,
		EfficiencyRatio:         0.4,
		ReturnOnAssets:          20.0 / 1050,
		InterestExpenseToIncome: 0.05,
		LiquidityCoverage:       2.5,
		CashRatio:               0.4,
		NonInterestIncomeShare:  0.5,
	}
	for v, want := range expected {
		got := row.Ratios[v]
		require.True(t, got.Valid, v.String())
		assert.InDelta(t, want, got.Float, 1e-12, v.String())
	}
	assert.InDelta(t, 0.03, row.LoanLossProvisionRate.Float, 1e-12)
}

func TestDeriveRatiosMissing(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(o *Observation)
		market   Value
		variable Variable
		want     Value
	}{
		{
			name:     "zero divisor",
			mutate:   func(o *Observation) { o.RWA = Some(0) },
			market:   Some(0.03),
			variable: Tier1CapitalRatio,
			want:     Missing,
		},
		{
			name:     "missing numerator",
			mutate:   func(o *Observation) { o.Stage3Exposure = Missing },
			market:   Some(0.03),
			variable: NPLRatio,
			want:     Missing,
		},
		{
			name:     "missing market rate",
			mutate:   func(o *Observation) {},
			market:   Missing,
			variable: LoanLossProvisionScaled,
			want:     Missing,
		},
		{
			name:     "scaled provision rate is absolute",
			mutate:   func(o *Observation) {},
			market:   Some(0.05),
			variable: LoanLossProvisionScaled,
			want:     Some(0.02),
		},
		{
			name:     "growth skips a missing lag",
			mutate:   func(o *Observation) { o.TotalAssetsLag3 = Missing },
			market:   Some(0.03),
			variable: AssetGrowth3YAvg,
			want:     Some((0.1 + 100.0/900) / 2),
		},
		{
			name:     "growth skips a zero lag",
			mutate:   func(o *Observation) { o.TotalAssetsLag1 = Some(0) },
			market:   Some(0.03),
			variable: AssetGrowth3YAvg,
			want:     Some((-1 + 0.125) / 2),
		},
		{
			name: "growth missing when all lags are missing",
			mutate: func(o *Observation) {
				o.TotalAssetsLag1, o.TotalAssetsLag2, o.TotalAssetsLag3 = Missing, Missing, Missing
			},
			market:   Some(0.03),
			variable: AssetGrowth3YAvg,
			want:     Missing,
		},
		{
			name:     "roa needs the prior year",
			mutate:   func(o *Observation) { o.TotalAssetsLag1 = Missing },
			market:   Some(0.03),
			variable: ReturnOnAssets,
			want:     Missing,
		},
		{
			name: "non interest share with zero income",
			mutate: func(o *Observation) {
				o.NonInterestIncome, o.InterestIncome = Some(0), Some(0)
			},
			market:   Some(0.03),
			variable: NonInterestIncomeShare,
			want:     Missing,
		},
		{
			name:     "lcr is passed through",
			mutate:   func(o *Observation) { o.LiquidityCoverageRaw = Missing },
			market:   Some(0.03),
			variable: LiquidityCoverage,
			want:     Missing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := strongBank("Alpha", fy2023)
			tt.mutate(&o)
			got := DeriveRatios(o, tt.market).Ratios[tt.variable]
			require.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.InDelta(t, tt.want.Float, got.Float, 1e-12)
			}
		})
	}
}

func TestMarketLoanLossRate(t *testing.T) {
	a := strongBank("A", fy2023)
	a.TotalProvisions, a.TotalGrossLoans = Some(10), Some(100)
	b := strongBank("B", fy2023)
	b.TotalProvisions, b.TotalGrossLoans = Missing, Some(100)

	t.Run("sums skip missing cells independently", func(t *testing.T) {
		rate := MarketLoanLossRate(fy2023, []Observation{a, b})
		require.True(t, rate.Rate.Valid)
		assert.InDelta(t, 0.05, rate.Rate.Float, 1e-12)
		assert.Equal(t, 2, rate.Institutions)
	})

	t.Run("no loans", func(t *testing.T) {
		x := a
		x.TotalGrossLoans = Missing
		assert.False(t, MarketLoanLossRate(fy2023, []Observation{x}).Rate.Valid)
	})

	t.Run("zero loans", func(t *testing.T) {
		x := a
		x.TotalGrossLoans = Some(0)
		assert.False(t, MarketLoanLossRate(fy2023, []Observation{x}).Rate.Valid)
	})

	t.Run("one rate per date, oldest first", func(t *testing.T) {
		c := strongBank("C", fy2022)
		rates := MarketLoanLossRates([]Observation{a, c, b})
		require.Len(t, rates, 2)
		assert.True(t, rates[0].Date.Equal(fy2022))
		assert.InDelta(t, 0.03, rates[0].Rate.Float, 1e-12)
		assert.InDelta(t, 0.05, rates[1].Rate.Float, 1e-12)
	})
}
