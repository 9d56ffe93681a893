package exporter

import (
	"camelsrating/internal/camels"
)

// Table is a named, rectangular export with string cells
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
	// Numeric marks columns whose cells are numbers or empty
	Numeric []bool
}

func newTable(name string, textCols int, headers []string) Table {
	numeric := make([]bool, len(headers))
	for i := textCols; i < len(headers); i++ {
		numeric[i] = true
	}
	return Table{Name: name, Headers: headers, Numeric: numeric}
}

func variableHeaders() []string {
	vars := camels.Variables()
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.String()
	}
	return out
}

func keyHeaders(extra ...string) []string {
	h := []string{camels.ColumnInstitution, camels.ColumnDate}
	return append(h, extra...)
}

// RatioTable lists the derived ratios of every row
func RatioTable(res *camels.Result) Table {
	headers := append(keyHeaders(variableHeaders()...), "Loan Loss Provision Rate", "Market Loan Loss Rate")
	t := newTable("Ratios", 2, headers)
	for _, r := range res.Ratios {
		row := []string{r.Institution, formatDate(r.Date)}
		for _, v := range camels.Variables() {
			row = append(row, formatValue(r.Ratios[v]))
		}
		row = append(row, formatValue(r.LoanLossProvisionRate), formatValue(r.MarketLoanLossRate))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SubRatingTable lists the 1 to 5 sub-rating of every variable followed
// by its A to E letter
func SubRatingTable(res *camels.Result) Table {
	vars := camels.Variables()
	headers := keyHeaders(variableHeaders()...)
	for _, v := range vars {
		headers = append(headers, v.String()+" Letter")
	}
	t := newTable("SubRatings", 2, headers)
	for i := 2 + len(vars); i < len(t.Numeric); i++ {
		t.Numeric[i] = false
	}
	for _, r := range res.Ratings {
		row := []string{r.Institution, formatDate(r.Date)}
		for _, v := range vars {
			row = append(row, formatInt(r.SubRatings[v]))
		}
		for _, v := range vars {
			row = append(row, camels.SubRatingLetter(r.SubRatings[v]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RatingTable lists composite scores and grades
func RatingTable(res *camels.Result) Table {
	t := newTable("Ratings", 2, keyHeaders("Composite Score", "Grade", "Band", "Analysis"))
	for i := 3; i < len(t.Numeric); i++ {
		t.Numeric[i] = false
	}
	for _, r := range res.Ratings {
		t.Rows = append(t.Rows, []string{
			r.Institution,
			formatDate(r.Date),
			formatFloat(r.CompositeScore),
			string(r.Grade),
			string(r.Band),
			r.Band.Analysis(),
		})
	}
	return t
}

// MarketRateTable lists the market loan loss rate per date
func MarketRateTable(res *camels.Result) Table {
	t := newTable("MarketRates", 1, []string{camels.ColumnDate, "Total Provisions", "Total Gross Loans", "Market Loan Loss Rate", "Institutions"})
	for _, m := range res.MarketRates {
		t.Rows = append(t.Rows, []string{
			formatDate(m.Date),
			formatValue(m.TotalProvisions),
			formatValue(m.TotalGrossLoans),
			formatValue(m.Rate),
			formatInt(m.Institutions),
		})
	}
	return t
}

// DistributionTable counts rows per grade, best grade first
func DistributionTable(res *camels.Result) Table {
	t := newTable("Distribution", 1, []string{"Grade", "Count"})
	for _, g := range camels.Grades() {
		t.Rows = append(t.Rows, []string{string(g), formatInt(res.Distribution[g])})
	}
	return t
}

// RatingTables returns every table of a rating run
func RatingTables(res *camels.Result) []Table {
	return []Table{
		RatioTable(res),
		SubRatingTable(res),
		RatingTable(res),
		MarketRateTable(res),
		DistributionTable(res),
	}
}

// BenchmarkTable lists the benchmark row followed by each institution's ratios
func BenchmarkTable(b *camels.BenchmarkResult) Table {
	headers := append([]string{camels.ColumnInstitution}, variableHeaders()...)
	headers = append(headers, "Loan Loss Provision Rate", "Total Assets", "Total Gross Loans")
	t := newTable("Benchmark", 1, headers)

	subjectRow := func(s camels.Subject) []string {
		row := []string{s.Name}
		for _, v := range camels.Variables() {
			row = append(row, formatValue(s.Ratios[v]))
		}
		return append(row, formatValue(s.LoanLossProvisionRate), formatValue(s.TotalAssets), formatValue(s.TotalGrossLoans))
	}

	t.Rows = append(t.Rows, subjectRow(b.Benchmark.Subject))
	for _, s := range b.Subjects {
		t.Rows = append(t.Rows, subjectRow(s))
	}
	return t
}

// DeviationTable lists relative deviations from the benchmark and market shares
func DeviationTable(b *camels.BenchmarkResult) Table {
	headers := append(keyHeaders(variableHeaders()...), "Total Assets Share", "Gross Loans Share")
	t := newTable("Deviations", 2, headers)
	for _, d := range b.Deviations {
		row := []string{d.Institution, formatDate(d.Date)}
		for _, v := range camels.Variables() {
			row = append(row, formatValue(d.Deviations[v]))
		}
		row = append(row, formatValue(d.TotalAssetsShare), formatValue(d.GrossLoansShare))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// BenchmarkTables returns every table of a benchmark comparison
func BenchmarkTables(b *camels.BenchmarkResult) []Table {
	return []Table{BenchmarkTable(b), DeviationTable(b)}
}
