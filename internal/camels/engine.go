package camels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxConcurrency bounds the number of date groups rated at once
	DefaultMaxConcurrency = 4
	// DefaultTimeout bounds a single rating run
	DefaultTimeout = 30 * time.Second
)

// Options tunes an Engine
type Options struct {
	MaxConcurrency  int
	Timeout         time.Duration
	BenchmarkMethod BenchmarkMethod
	// BackfillLags fills a missing Total Assets (t-k) from the same
	// institution's row dated exactly k years earlier.
	BackfillLags bool
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		MaxConcurrency:  DefaultMaxConcurrency,
		Timeout:         DefaultTimeout,
		BenchmarkMethod: MeanOfRatios,
	}
}

// Engine rates batches of observations under a fixed scheme. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	scheme Scheme
	opts   Options
	logger *slog.Logger
}

// NewEngine validates the scheme and returns an engine
func NewEngine(scheme Scheme, opts Options, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BenchmarkMethod == "" {
		opts.BenchmarkMethod = MeanOfRatios
	}
	if !opts.BenchmarkMethod.IsValid() {
		return nil, fmt.Errorf("unknown benchmark method %q", opts.BenchmarkMethod)
	}

	return &Engine{scheme: scheme, opts: opts, logger: logger}, nil
}

// Scheme returns the scheme the engine rates with
func (e *Engine) Scheme() Scheme {
	return e.scheme
}

// Options returns the effective engine options
func (e *Engine) Options() Options {
	return e.opts
}

// WithOptions returns an engine with the same scheme and logger and
// different options
func (e *Engine) WithOptions(opts Options) (*Engine, error) {
	return NewEngine(e.scheme, opts, e.logger)
}

// Rate derives ratios, sub-ratings, composite scores and grades for every
// observation. Output rows align with the input order.
func (e *Engine) Rate(ctx context.Context, obs []Observation) (*Result, error) {
	start := time.Now()

	e.logger.InfoContext(ctx, "starting CAMELS rating",
		"scheme", e.scheme.Name,
		"observations", len(obs),
		"max_concurrency", e.opts.MaxConcurrency,
	)

	if err := ValidateObservations(obs); err != nil {
		e.logger.ErrorContext(ctx, "input validation failed", "error", err)
		return nil, fmt.Errorf("validate inputs: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	prepared := e.prepare(obs)
	groups := groupByDate(prepared)

	result := &Result{
		Ratios:      make([]RatioRow, len(prepared)),
		Ratings:     make([]RatingRow, len(prepared)),
		MarketRates: make([]MarketRate, len(groups)),
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(e.opts.MaxConcurrency)

	for gi := range groups {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return fmt.Errorf("rating cancelled: %w", gctx.Err())
			default:
			}

			group := groups[gi]
			market := MarketLoanLossRate(group.date, group.rows)
			result.MarketRates[gi] = market

			e.logger.DebugContext(ctx, "rating date group",
				"date", group.date.Format("2006-01-02"),
				"institutions", len(group.rows),
				"market_loan_loss_rate", market.Rate.String(),
			)

			for k, o := range group.rows {
				idx := group.indices[k]
				ratios := DeriveRatios(o, market.Rate)
				subs, score, grade := e.scheme.Rate(ratios.Ratios)

				result.Ratios[idx] = ratios
				result.Ratings[idx] = RatingRow{
					Institution:    o.Institution,
					Date:           group.date,
					SubRatings:     subs,
					CompositeScore: score,
					Grade:          grade,
					Band:           grade.Band(),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "rating failed", "error", err)
		return nil, err
	}

	result.Distribution = GradeCounts(result.Ratings)

	e.logger.InfoContext(ctx, "CAMELS rating completed",
		"duration", time.Since(start),
		"observations", len(result.Ratings),
		"dates", len(groups),
		"missing_ratios", countMissing(result.Ratios),
	)

	return result, nil
}

// Benchmark compares every institution at date with the market benchmark.
// A zero date selects the latest date present.
func (e *Engine) Benchmark(ctx context.Context, obs []Observation, date time.Time) (*BenchmarkResult, error) {
	return e.BenchmarkWith(ctx, obs, date, e.opts.BenchmarkMethod)
}

// BenchmarkWith is Benchmark with an explicit method
func (e *Engine) BenchmarkWith(ctx context.Context, obs []Observation, date time.Time, method BenchmarkMethod) (*BenchmarkResult, error) {
	if method == "" {
		method = e.opts.BenchmarkMethod
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("unknown benchmark method %q", method)
	}
	if err := ValidateObservations(obs); err != nil {
		return nil, fmt.Errorf("validate inputs: %w", err)
	}
	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	if err := runCtx.Err(); err != nil {
		return nil, fmt.Errorf("benchmark cancelled: %w", err)
	}

	prepared := e.prepare(obs)
	if date.IsZero() {
		date, _ = LatestDate(prepared)
	}
	date = dateKey(date)

	var group []Observation
	for _, o := range prepared {
		if dateKey(o.Date).Equal(date) {
			group = append(group, o)
		}
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDateNotFound, date.Format("2006-01-02"))
	}

	e.logger.InfoContext(ctx, "building market benchmark",
		"date", date.Format("2006-01-02"),
		"institutions", len(group),
		"method", string(method),
	)

	market := MarketLoanLossRate(date, group)
	subjects := make([]Subject, len(group))
	for i, o := range group {
		if err := runCtx.Err(); err != nil {
			return nil, fmt.Errorf("benchmark cancelled: %w", err)
		}
		subjects[i] = SubjectOf(o, DeriveRatios(o, market.Rate))
	}

	bench := BuildBenchmark(date, group, subjects, method)
	devs := make([]Deviation, len(subjects))
	for i, s := range subjects {
		devs[i] = Deviate(s, bench)
	}
	SortByMarketShare(devs)

	return &BenchmarkResult{
		Date:       date,
		Method:     method,
		Benchmark:  bench,
		Subjects:   subjects,
		Deviations: devs,
	}, nil
}

// prepare returns a copy of obs with lag backfill applied when enabled
func (e *Engine) prepare(obs []Observation) []Observation {
	out := make([]Observation, len(obs))
	copy(out, obs)
	if e.opts.BackfillLags {
		BackfillLags(out)
	}
	return out
}

// BackfillLags fills missing Total Assets lag columns in place from the
// same institution's Total Assets reported exactly k years earlier.
func BackfillLags(obs []Observation) int {
	type key struct {
		institution string
		date        time.Time
	}
	assets := make(map[key]Value, len(obs))
	for _, o := range obs {
		assets[key{o.Institution, dateKey(o.Date)}] = o.TotalAssets
	}

	filled := 0
	for i := range obs {
		o := &obs[i]
		lags := []*Value{&o.TotalAssetsLag1, &o.TotalAssetsLag2, &o.TotalAssetsLag3}
		for k, lag := range lags {
			if lag.Valid {
				continue
			}
			prior := yearsBefore(dateKey(o.Date), k+1)
			if v, ok := assets[key{o.Institution, prior}]; ok && v.Valid {
				*lag = v
				filled++
			}
		}
	}
	return filled
}

// yearsBefore steps t back n years. Month-end dates stay at month end so
// 29 February maps to 28 February and back.
func yearsBefore(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	last := daysIn(y-n, m)
	if d > last || d == daysIn(y, m) {
		d = last
	}
	return time.Date(y-n, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func countMissing(rows []RatioRow) int {
	n := 0
	for _, r := range rows {
		n += r.Ratios.MissingCount()
	}
	return n
}
