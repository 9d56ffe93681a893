package camels

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SaveToJSON writes a rating result with run metadata
func SaveToJSON(result *Result, scheme Scheme, outputPath string) error {
	if result == nil || len(result.Ratings) == 0 {
		return fmt.Errorf("no ratings to save")
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at":  time.Now().Format(time.RFC3339),
			"total_records": len(result.Ratings),
			"institutions":  countInstitutions(result.Ratings),
			"date_range":    dateRange(result.Ratings),
			"scheme":        scheme.Name,
		},
		"scheme": scheme,
		"result": result,
	}
	return writeJSON(outputPath, output)
}

// SaveBenchmarkJSON writes a benchmark result with run metadata
func SaveBenchmarkJSON(result *BenchmarkResult, outputPath string) error {
	if result == nil {
		return fmt.Errorf("no benchmark to save")
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at": time.Now().Format(time.RFC3339),
			"date":         result.Date.Format("2006-01-02"),
			"method":       result.Method,
			"institutions": len(result.Deviations),
		},
		"benchmark": result,
	}
	return writeJSON(outputPath, output)
}

func writeJSON(outputPath string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// SaveSummaryReport writes a plain-text summary of a rating run
func SaveSummaryReport(result *Result, scheme Scheme, outputPath string) error {
	if result == nil || len(result.Ratings) == 0 {
		return fmt.Errorf("no ratings to save")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	return WriteSummary(file, result, scheme)
}

// WriteSummary renders the summary report to w
func WriteSummary(w io.Writer, result *Result, scheme Scheme) error {
	summary := summarize(result)

	fmt.Fprintf(w, "CAMELS Rating - Summary Report\n")
	fmt.Fprintf(w, "==============================\n\n")
	fmt.Fprintf(w, "Scheme: %s\n\n", scheme.Name)

	fmt.Fprintf(w, "DATASET OVERVIEW\n")
	fmt.Fprintf(w, "----------------\n")
	fmt.Fprintf(w, "Total Records: %d\n", summary.totalRecords)
	fmt.Fprintf(w, "Institutions: %d\n", summary.institutions)
	fmt.Fprintf(w, "Date Range: %s to %s\n\n", summary.dateRange[0], summary.dateRange[1])

	fmt.Fprintf(w, "COMPOSITE SCORE STATISTICS\n")
	fmt.Fprintf(w, "--------------------------\n")
	fmt.Fprintf(w, "Mean: %.4f\n", summary.mean)
	fmt.Fprintf(w, "Median: %.4f\n", summary.median)
	fmt.Fprintf(w, "Std Dev: %.4f\n\n", summary.std)

	fmt.Fprintf(w, "GRADE DISTRIBUTION\n")
	fmt.Fprintf(w, "------------------\n")
	for _, g := range Grades() {
		count := result.Distribution[g]
		pct := float64(count) / float64(summary.totalRecords) * 100
		fmt.Fprintf(w, "%-3s %4d (%5.1f%%)  %s\n", g, count, pct, g.Band().Analysis())
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "MISSING RATIOS (rated %d)\n", WorstSubRating)
	fmt.Fprintf(w, "-------------------------\n")
	for _, v := range Variables() {
		if n := summary.missing[v]; n > 0 {
			fmt.Fprintf(w, "%s: %d\n", v, n)
		}
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "STRONGEST (Lowest Composite Score)\n")
	fmt.Fprintf(w, "----------------------------------\n")
	for i, r := range summary.best {
		fmt.Fprintf(w, "%2d. %s %s: %.4f (%s)\n", i+1, r.Institution, r.Date.Format("2006-01-02"), r.CompositeScore, r.Grade)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "WEAKEST (Highest Composite Score)\n")
	fmt.Fprintf(w, "---------------------------------\n")
	for i, r := range summary.worst {
		if _, err := fmt.Fprintf(w, "%2d. %s %s: %.4f (%s)\n", i+1, r.Institution, r.Date.Format("2006-01-02"), r.CompositeScore, r.Grade); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

type summaryStatistics struct {
	totalRecords int
	institutions int
	dateRange    [2]string
	mean         float64
	median       float64
	std          float64
	missing      [NumVariables]int
	best         []RatingRow
	worst        []RatingRow
}

func summarize(result *Result) summaryStatistics {
	s := summaryStatistics{
		totalRecords: len(result.Ratings),
		institutions: countInstitutions(result.Ratings),
		dateRange:    dateRange(result.Ratings),
	}

	sorted := make([]RatingRow, len(result.Ratings))
	copy(sorted, result.Ratings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompositeScore < sorted[j].CompositeScore
	})

	scores := make([]float64, len(sorted))
	for i, r := range sorted {
		scores[i] = r.CompositeScore
	}
	s.mean = stat.Mean(scores, nil)
	s.median = stat.Quantile(0.5, stat.Empirical, scores, nil)
	if len(scores) > 1 {
		s.std = stat.StdDev(scores, nil)
	}

	for _, row := range result.Ratios {
		for i, v := range row.Ratios {
			if !v.Valid {
				s.missing[i]++
			}
		}
	}

	n := 10
	if len(sorted) < n {
		n = len(sorted)
	}
	s.best = sorted[:n]
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		s.worst = append(s.worst, sorted[i])
	}
	return s
}

func countInstitutions(rows []RatingRow) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Institution] = struct{}{}
	}
	return len(seen)
}

func dateRange(rows []RatingRow) [2]string {
	if len(rows) == 0 {
		return [2]string{"", ""}
	}
	first, last := rows[0].Date, rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return [2]string{first.Format("2006-01-02"), last.Format("2006-01-02")}
}
