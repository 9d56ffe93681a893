// Package camels implements a CAMELS-style composite rating for financial institutions.
//
// Raw balance sheet and income statement observations, one per institution and
// reporting date, are turned into eleven financial ratios. Each ratio is binned
// into a sub-rating from 1 (best) to 5 (worst), the sub-ratings are combined into
// a weighted composite score on [1,5], and the score is mapped to one of ten
// letter grades from A+ to E-. Separately, every institution can be compared
// against a synthetic market benchmark for a single date.
//
// # Core Components
//
//  1. Market Aggregator: per-date market loan loss rate, sum(provisions) / sum(gross loans)
//  2. Ratio Deriver: the eleven ratios; undefined arithmetic yields a missing value
//  3. Threshold Classifier: four cutpoints per variable, direction-aware ranks
//  4. Composite Scorer: weighted sum of sub-ratings
//  5. Rating Mapper: half-open grade intervals over [1,5]
//  6. Benchmark Differ: benchmark row and relative deviations
//
// Missing values never raise errors. A ratio that cannot be computed is rated 5.
//
// # Architecture
//
//   - types.go: Value, Variable, Observation and result rows
//   - fields.go: raw input columns
//   - market.go: market loan loss rate and date grouping
//   - ratios.go: ratio derivation
//   - classifier.go: thresholds and sub-ratings
//   - scorer.go: weights and composite score
//   - rating.go: grades and bands
//   - benchmark.go: benchmark row and deviations
//   - scheme.go, scheme_file.go: rating schemes and their YAML/TOML/JSON files
//   - engine.go: batch orchestration over date groups
//   - profile.go: descriptive statistics of the input
//   - descriptions.go: variable and band catalogue
//   - persist.go: JSON and summary report output
//   - validate.go: input contract checks
//
// # Usage Example
//
//	engine, err := camels.NewEngine(camels.DefaultScheme(), camels.DefaultOptions(), slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := engine.Rate(ctx, observations)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range result.Ratings {
//	    fmt.Println(r.Institution, r.Date.Format("2006-01-02"), r.Grade)
//	}
//
//	bench, err := engine.Benchmark(ctx, observations, time.Time{}) // latest date
package camels
