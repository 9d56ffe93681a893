package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camelsrating/internal/camels"
	apperrors "camelsrating/internal/errors"
	"camelsrating/internal/exporter"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatXLSX    = "xlsx"
	FormatSummary = "summary"
	FormatAll     = "all"
)

// ParseFormats splits a comma separated format list. "all" expands to
// every format.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(strings.ToLower(s), ",") {
		f = strings.TrimSpace(f)
		switch f {
		case "":
			continue
		case FormatAll:
			return []string{FormatCSV, FormatJSON, FormatXLSX, FormatSummary}, nil
		case FormatCSV, FormatJSON, FormatXLSX, FormatSummary:
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedExport, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no format given", ErrUnsupportedExport)
	}
	return out, nil
}

// ExportRating writes a rating run in the requested formats below dir and
// returns the written files. An empty dir selects the reports directory.
func (s *RatingService) ExportRating(ctx context.Context, run *RatingRun, dir string, formats []string) ([]string, error) {
	if run == nil || run.Result == nil {
		return nil, fmt.Errorf("nothing to export")
	}
	dir, err := s.exportDir(dir)
	if err != nil {
		return nil, err
	}

	stamp := run.StartedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	base := s.reportBase(dir, s.paths.GetRunReportPath("ratings", "", stamp))
	tables := exporter.RatingTables(run.Result)
	scheme := s.engine.Scheme()

	var written []string
	for _, f := range formats {
		switch f {
		case FormatCSV:
			files, err := exporter.NewCSVWriter(s.paths).WriteTables(dir, filepath.Base(base), tables)
			written = append(written, files...)
			if err != nil {
				return written, exportError(base+"_*.csv", err)
			}
		case FormatJSON:
			path := base + ".json"
			if err := camels.SaveToJSON(run.Result, scheme, path); err != nil {
				return written, exportError(path, err)
			}
			written = append(written, path)
		case FormatXLSX:
			path := base + ".xlsx"
			if err := exporter.WriteWorkbook(path, tables); err != nil {
				return written, exportError(path, err)
			}
			written = append(written, path)
		case FormatSummary:
			path := base + "_summary.txt"
			if err := camels.SaveSummaryReport(run.Result, scheme, path); err != nil {
				return written, exportError(path, err)
			}
			written = append(written, path)
		default:
			return written, fmt.Errorf("%w: %q", ErrUnsupportedExport, f)
		}
	}

	s.logger.InfoContext(ctx, "Rating exported",
		slog.String("run_id", run.RunID),
		slog.Int("files", len(written)),
		slog.String("dir", dir))
	return written, nil
}

// ExportBenchmark writes a benchmark run below dir. The summary format does
// not apply to benchmarks and is skipped.
func (s *RatingService) ExportBenchmark(ctx context.Context, run *BenchmarkRun, dir string, formats []string) ([]string, error) {
	if run == nil || run.Result == nil {
		return nil, fmt.Errorf("nothing to export")
	}
	dir, err := s.exportDir(dir)
	if err != nil {
		return nil, err
	}

	base := s.reportBase(dir, s.paths.GetReportPath("camels_benchmark_"+run.Result.Date.Format("20060102")))
	tables := exporter.BenchmarkTables(run.Result)

	var written []string
	for _, f := range formats {
		switch f {
		case FormatCSV:
			files, err := exporter.NewCSVWriter(s.paths).WriteTables(dir, filepath.Base(base), tables)
			written = append(written, files...)
			if err != nil {
				return written, exportError(base+"_*.csv", err)
			}
		case FormatJSON:
			path := base + ".json"
			if err := camels.SaveBenchmarkJSON(run.Result, path); err != nil {
				return written, exportError(path, err)
			}
			written = append(written, path)
		case FormatXLSX:
			path := base + ".xlsx"
			if err := exporter.WriteWorkbook(path, tables); err != nil {
				return written, exportError(path, err)
			}
			written = append(written, path)
		case FormatSummary:
		default:
			return written, fmt.Errorf("%w: %q", ErrUnsupportedExport, f)
		}
	}

	s.logger.InfoContext(ctx, "Benchmark exported",
		slog.String("run_id", run.RunID),
		slog.Int("files", len(written)),
		slog.String("dir", dir))
	return written, nil
}

func (s *RatingService) exportDir(dir string) (string, error) {
	if dir == "" {
		dir = s.paths.ReportsDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create export directory", err)
	}
	return dir, nil
}

// reportBase moves a report path named in the reports directory into dir
func (s *RatingService) reportBase(dir, reportPath string) string {
	if dir == s.paths.ReportsDir {
		return reportPath
	}
	return filepath.Join(dir, filepath.Base(reportPath))
}

func exportError(path string, err error) error {
	return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", filepath.Base(path)), err)
}
