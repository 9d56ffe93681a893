package camels

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BenchmarkMethod selects how the benchmark ratios are formed
type BenchmarkMethod string

const (
	// MeanOfRatios averages each institution's ratio
	MeanOfRatios BenchmarkMethod = "mean_of_ratios"
	// RatioOfMeans derives the ratios from the mean of each raw field
	RatioOfMeans BenchmarkMethod = "ratio_of_means"
)

// IsValid reports whether m is a known method
func (m BenchmarkMethod) IsValid() bool {
	return m == MeanOfRatios || m == RatioOfMeans
}

// ParseBenchmarkMethod resolves a method name; empty selects MeanOfRatios
func ParseBenchmarkMethod(s string) (BenchmarkMethod, error) {
	if s == "" {
		return MeanOfRatios, nil
	}
	m := BenchmarkMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown benchmark method %q", s)
	}
	return m, nil
}

// BenchmarkName labels the synthetic benchmark institution
const BenchmarkName = "Benchmark values"

// Subject is anything that can be compared against a benchmark
type Subject struct {
	Name                  string `json:"name"`
	Ratios                Ratios `json:"ratios"`
	LoanLossProvisionRate Value  `json:"loan_loss_provision_rate"`
	TotalAssets           Value  `json:"total_assets"`
	TotalGrossLoans       Value  `json:"total_gross_loans"`
}

// BenchmarkRow is the synthetic market institution for one date. Stocks
// are summed and ratios averaged. The scaled loan loss variable is 0 by
// construction; LoanLossProvisionRate carries the unscaled benchmark rate.
type BenchmarkRow struct {
	Date         time.Time       `json:"date"`
	Method       BenchmarkMethod `json:"method"`
	Institutions int             `json:"institutions"`
	Subject
}

// Deviation is the benchmark-relative view of one institution
type Deviation struct {
	Institution string    `json:"institution"`
	Date        time.Time `json:"date"`
	// Deviations holds (inst - bench) / bench per variable. The loan loss
	// slot holds |inst_rate - bench_rate| / bench_rate on unscaled rates.
	Deviations       Ratios `json:"deviations"`
	TotalAssetsShare Value  `json:"total_assets_share"`
	GrossLoansShare  Value  `json:"gross_loans_share"`
}

// BenchmarkResult is the output of a benchmark run for one date
type BenchmarkResult struct {
	Date       time.Time       `json:"date"`
	Method     BenchmarkMethod `json:"method"`
	Benchmark  BenchmarkRow    `json:"benchmark"`
	Subjects   []Subject       `json:"institutions"`
	Deviations []Deviation     `json:"deviations"`
}

// SubjectOf pairs a derived ratio row with the stocks of its observation
func SubjectOf(o Observation, r RatioRow) Subject {
	return Subject{
		Name:                  o.Institution,
		Ratios:                r.Ratios,
		LoanLossProvisionRate: r.LoanLossProvisionRate,
		TotalAssets:           o.TotalAssets,
		TotalGrossLoans:       o.TotalGrossLoans,
	}
}

// BuildBenchmark forms the benchmark row for one date group
func BuildBenchmark(date time.Time, group []Observation, subjects []Subject, method BenchmarkMethod) BenchmarkRow {
	row := BenchmarkRow{
		Date:         dateKey(date),
		Method:       method,
		Institutions: len(group),
		Subject: Subject{
			Name:            BenchmarkName,
			TotalAssets:     sumDefined(group, func(o Observation) Value { return o.TotalAssets }),
			TotalGrossLoans: sumDefined(group, func(o Observation) Value { return o.TotalGrossLoans }),
		},
	}

	switch method {
	case RatioOfMeans:
		mean := meanObservation(group)
		derived := DeriveRatios(mean, Missing)
		row.Ratios = derived.Ratios
		row.LoanLossProvisionRate = derived.LoanLossProvisionRate
	default:
		for _, v := range Variables() {
			row.Ratios[v] = meanOf(subjects, func(s Subject) Value { return s.Ratios[v] })
		}
		row.LoanLossProvisionRate = meanOf(subjects, func(s Subject) Value { return s.LoanLossProvisionRate })
	}
	row.Ratios[LoanLossProvisionScaled] = Some(0)

	return row
}

// Deviate compares one subject with the benchmark row
func Deviate(s Subject, bench BenchmarkRow) Deviation {
	d := Deviation{
		Institution:      s.Name,
		Date:             bench.Date,
		TotalAssetsShare: div(s.TotalAssets, bench.TotalAssets),
		GrossLoansShare:  div(s.TotalGrossLoans, bench.TotalGrossLoans),
	}
	for _, v := range Variables() {
		if v == LoanLossProvisionScaled {
			d.Deviations[v] = div(absValue(sub(s.LoanLossProvisionRate, bench.LoanLossProvisionRate)), bench.LoanLossProvisionRate)
			continue
		}
		d.Deviations[v] = div(sub(s.Ratios[v], bench.Ratios[v]), bench.Ratios[v])
	}
	return d
}

// SortByMarketShare orders deviations by total assets share, largest
// first. Missing shares sort last, ties by institution name.
func SortByMarketShare(devs []Deviation) {
	sort.SliceStable(devs, func(i, j int) bool {
		a, b := devs[i].TotalAssetsShare, devs[j].TotalAssetsShare
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && a.Float != b.Float {
			return a.Float > b.Float
		}
		return devs[i].Institution < devs[j].Institution
	})
}

func meanOf(subjects []Subject, field func(Subject) Value) Value {
	vals := make([]float64, 0, len(subjects))
	for _, s := range subjects {
		if v := field(s); v.Valid {
			vals = append(vals, v.Float)
		}
	}
	if len(vals) == 0 {
		return Missing
	}
	return Some(stat.Mean(vals, nil))
}

// meanObservation averages every raw field over its defined cells
func meanObservation(group []Observation) Observation {
	var mean Observation
	mean.Institution = BenchmarkName
	for _, f := range Fields() {
		vals := make([]float64, 0, len(group))
		for i := range group {
			if cell := group[i].Field(f); cell.Valid {
				vals = append(vals, cell.Float)
			}
		}
		if len(vals) > 0 {
			*mean.Field(f) = Some(floats.Sum(vals) / float64(len(vals)))
		}
	}
	return mean
}
