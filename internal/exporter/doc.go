// Package exporter writes rating and benchmark results as CSV files and
// Excel workbooks.
//
// Results are first flattened into Tables: RatingTables yields the Ratios,
// SubRatings, Ratings, MarketRates and Distribution tables of a run, and
// BenchmarkTables yields the Benchmark and Deviations tables of a peer
// comparison. Missing values are written as empty cells.
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility. Relative paths resolve
// into the reports directory.
//
// WriteWorkbook: Writes tables as sheets of one workbook, with numeric
// columns stored as numbers and a frozen header row.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths)
//	files, err := writer.WriteTables("run_2024", "camels", exporter.RatingTables(result))
//
//	err = exporter.WriteWorkbook("ratings.xlsx", exporter.RatingTables(result))
package exporter
