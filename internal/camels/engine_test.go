package camels

import (
	"context"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine, err := NewEngine(DefaultScheme(), opts, logger)
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	t.Run("defaults are filled in", func(t *testing.T) {
		engine, err := NewEngine(DefaultScheme(), Options{}, nil)
		require.NoError(t, err)
		opts := engine.Options()
		assert.Equal(t, DefaultMaxConcurrency, opts.MaxConcurrency)
		assert.Equal(t, DefaultTimeout, opts.Timeout)
		assert.Equal(t, MeanOfRatios, opts.BenchmarkMethod)
	})

	t.Run("inconsistent scheme is refused", func(t *testing.T) {
		scheme := DefaultScheme()
		scheme.Weights[NPLRatio] = 0.5
		_, err := NewEngine(scheme, DefaultOptions(), nil)
		assert.ErrorIs(t, err, ErrInvalidScheme)
	})

	t.Run("non-increasing threshold is refused", func(t *testing.T) {
		scheme := DefaultScheme()
		scheme.Thresholds[CashRatio].Bounds = [4]float64{0.3, 0.225, 0.15, 0.075}
		_, err := NewEngine(scheme, DefaultOptions(), nil)
		assert.ErrorIs(t, err, ErrInvalidScheme)
	})

	t.Run("unknown benchmark method", func(t *testing.T) {
		_, err := NewEngine(DefaultScheme(), Options{BenchmarkMethod: "median"}, nil)
		assert.Error(t, err)
	})

	t.Run("with options keeps the scheme", func(t *testing.T) {
		scheme := DefaultScheme()
		scheme.Name = "custom"
		engine, err := NewEngine(scheme, DefaultOptions(), nil)
		require.NoError(t, err)

		derived, err := engine.WithOptions(Options{BackfillLags: true, BenchmarkMethod: RatioOfMeans})
		require.NoError(t, err)
		assert.Equal(t, "custom", derived.Scheme().Name)
		assert.True(t, derived.Options().BackfillLags)
		assert.Equal(t, RatioOfMeans, derived.Options().BenchmarkMethod)
		assert.False(t, engine.Options().BackfillLags)
	})
}

func TestEngineRate(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())
	obs := []Observation{
		weakBank("Omega", fy2023),
		strongBank("Alpha", fy2022),
		strongBank("Alpha", fy2023),
	}

	res, err := engine.Rate(context.Background(), obs)
	require.NoError(t, err)

	t.Run("rows follow input order", func(t *testing.T) {
		require.Len(t, res.Ratings, 3)
		require.Len(t, res.Ratios, 3)
		for i, o := range obs {
			assert.Equal(t, o.Institution, res.Ratings[i].Institution)
			assert.True(t, res.Ratings[i].Date.Equal(o.Date))
			assert.Equal(t, o.Institution, res.Ratios[i].Institution)
		}
	})

	t.Run("grades", func(t *testing.T) {
		assert.Equal(t, GradeEMinus, res.Ratings[0].Grade)
		assert.Equal(t, GradeAPlus, res.Ratings[1].Grade)
		assert.Equal(t, GradeAMinus, res.Ratings[2].Grade)
		assert.Equal(t, BandA, res.Ratings[2].Band)
	})

	t.Run("market rates per date", func(t *testing.T) {
		require.Len(t, res.MarketRates, 2)
		assert.True(t, res.MarketRates[0].Date.Equal(fy2022))
		assert.InDelta(t, 0.03, res.MarketRates[0].Rate.Float, 1e-12)
		assert.InDelta(t, 0.115, res.MarketRates[1].Rate.Float, 1e-12)
	})

	t.Run("distribution", func(t *testing.T) {
		assert.Equal(t, 1, res.Distribution[GradeAPlus])
		assert.Equal(t, 1, res.Distribution[GradeAMinus])
		assert.Equal(t, 1, res.Distribution[GradeEMinus])
		assert.Equal(t, 0, res.Distribution[GradeCPlus])
		assert.Len(t, res.Distribution, 10)
	})

	t.Run("invariants", func(t *testing.T) {
		for _, r := range res.Ratings {
			assert.GreaterOrEqual(t, r.CompositeScore, MinScore)
			assert.LessOrEqual(t, r.CompositeScore, MaxScore)
			for _, s := range r.SubRatings {
				assert.GreaterOrEqual(t, s, 1)
				assert.LessOrEqual(t, s, 5)
			}
		}
	})
}

func TestEngineRateIdempotent(t *testing.T) {
	engine := newTestEngine(t, Options{MaxConcurrency: 3})
	var obs []Observation
	for year := 2015; year <= 2023; year++ {
		date := fy2023.AddDate(year-2023, 0, 0)
		obs = append(obs, strongBank("Alpha", date), weakBank("Omega", date))
	}

	first, err := engine.Rate(context.Background(), obs)
	require.NoError(t, err)
	second, err := engine.Rate(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngineRateMissingValues(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())

	o := strongBank("Alpha", fy2023)
	o.Stage3Exposure = Missing
	o.TotalEquity = Some(0)

	res, err := engine.Rate(context.Background(), []Observation{o})
	require.NoError(t, err)

	subs := res.Ratings[0].SubRatings
	assert.Equal(t, 5, subs[NPLRatio])
	assert.Equal(t, 5, subs[DebtToEquity])
	assert.Equal(t, 1, subs[Tier1CapitalRatio])
	assert.InDelta(t, 1+4*(0.15+0.10), res.Ratings[0].CompositeScore, 1e-9)
}

func TestEngineRateErrors(t *testing.T) {
	engine := newTestEngine(t, DefaultOptions())

	t.Run("empty batch", func(t *testing.T) {
		_, err := engine.Rate(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoObservations)
	})

	t.Run("schema failure", func(t *testing.T) {
		bad := strongBank("", fy2023)
		_, err := engine.Rate(context.Background(), []Observation{bad})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := engine.Rate(ctx, []Observation{strongBank("Alpha", fy2023)})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackfillLags(t *testing.T) {
	current := strongBank("Alpha", fy2023)
	current.TotalAssetsLag1 = Missing
	current.TotalAssetsLag2 = Missing
	prior := strongBank("Alpha", fy2022)
	prior.TotalAssets = Some(1000)
	other := strongBank("Beta", fy2022)
	other.TotalAssets = Some(5)

	t.Run("fills from the row one year earlier", func(t *testing.T) {
		obs := []Observation{current, prior, other}
		filled := BackfillLags(obs)
		assert.Equal(t, 1, filled)
		assert.Equal(t, Some(1000), obs[0].TotalAssetsLag1)
		assert.False(t, obs[0].TotalAssetsLag2.Valid)
	})

	t.Run("engine option", func(t *testing.T) {
		obs := []Observation{current, prior, other}

		plain := newTestEngine(t, DefaultOptions())
		res, err := plain.Rate(context.Background(), obs)
		require.NoError(t, err)
		assert.False(t, res.Ratios[0].Ratios[ReturnOnAssets].Valid)

		opts := DefaultOptions()
		opts.BackfillLags = true
		backfilling := newTestEngine(t, opts)
		res, err = backfilling.Rate(context.Background(), obs)
		require.NoError(t, err)
		require.True(t, res.Ratios[0].Ratios[ReturnOnAssets].Valid)
		assert.InDelta(t, 20.0/1050, res.Ratios[0].Ratios[ReturnOnAssets].Float, 1e-12)

		assert.False(t, obs[0].TotalAssetsLag1.Valid, "input must not be mutated")
	})
}

func TestBackfillLagsMonthEnd(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		current time.Time
		prior   time.Time
		lag     int
	}{
		{name: "leap day from 28 February", current: day(2024, time.February, 29), prior: day(2023, time.February, 28), lag: 1},
		{name: "28 February from leap day", current: day(2025, time.February, 28), prior: day(2024, time.February, 29), lag: 1},
		{name: "leap day three years back", current: day(2024, time.February, 29), prior: day(2021, time.February, 28), lag: 3},
		{name: "mid month keeps the day", current: day(2024, time.June, 15), prior: day(2022, time.June, 15), lag: 2},
		{name: "year end", current: day(2023, time.December, 31), prior: day(2022, time.December, 31), lag: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := strongBank("Alpha", tt.current)
			current.TotalAssetsLag1, current.TotalAssetsLag2, current.TotalAssetsLag3 = Missing, Missing, Missing
			prior := strongBank("Alpha", tt.prior)
			prior.TotalAssets = Some(777)

			obs := []Observation{current, prior}
			assert.Equal(t, 1, BackfillLags(obs))

			lags := []Value{obs[0].TotalAssetsLag1, obs[0].TotalAssetsLag2, obs[0].TotalAssetsLag3}
			assert.Equal(t, Some(777), lags[tt.lag-1])
		})
	}

	t.Run("1 March is not a month end", func(t *testing.T) {
		assert.Equal(t, day(2023, time.March, 1), yearsBefore(day(2024, time.March, 1), 1))
	})
}

func TestValidateObservations(t *testing.T) {
	withDate := func(o Observation, d time.Time) Observation {
		o.Date = d
		return o
	}
	nonFinite := strongBank("Alpha", fy2023)
	nonFinite.Expenses = Value{Float: math.Inf(1), Valid: true}

	tests := []struct {
		name      string
		obs       []Observation
		wantField string
		wantRow   int
	}{
		{
			name:      "blank institution",
			obs:       []Observation{strongBank("   ", fy2023)},
			wantField: "institution",
			wantRow:   1,
		},
		{
			name:      "empty institution",
			obs:       []Observation{strongBank("Alpha", fy2023), strongBank("", fy2023)},
			wantField: "institution",
			wantRow:   2,
		},
		{
			name:      "zero date",
			obs:       []Observation{withDate(strongBank("Alpha", fy2023), time.Time{})},
			wantField: "date",
			wantRow:   1,
		},
		{
			name:      "non-finite value",
			obs:       []Observation{nonFinite},
			wantField: "Expenses",
			wantRow:   1,
		},
		{
			name:      "duplicate institution and date",
			obs:       []Observation{strongBank("Alpha", fy2023), strongBank("Beta", fy2023), strongBank("Alpha", fy2023)},
			wantField: "institution",
			wantRow:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObservations(tt.obs)
			require.ErrorIs(t, err, ErrInvalidInput)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantRow, ve.Row)
		})
	}

	t.Run("valid batch", func(t *testing.T) {
		obs := []Observation{strongBank("Alpha", fy2023), strongBank("Alpha", fy2022), weakBank("Omega", fy2023)}
		assert.NoError(t, ValidateObservations(obs))
	})

	t.Run("missing values are allowed", func(t *testing.T) {
		var o Observation
		o.Institution, o.Date = "Empty", fy2023
		assert.NoError(t, ValidateObservations([]Observation{o}))
	})

	t.Run("no rows", func(t *testing.T) {
		assert.ErrorIs(t, ValidateObservations(nil), ErrNoObservations)
	})
}
