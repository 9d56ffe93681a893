package http

import (
	"context"
	"io"
	"time"

	"camelsrating/internal/camels"
	"camelsrating/internal/services"
)

// RatingServiceInterface defines the rating operations used by the handlers
type RatingServiceInterface interface {
	Scheme() camels.Scheme
	Rate(ctx context.Context, obs []camels.Observation, source string) (*services.RatingRun, error)
	RateWithBackfill(ctx context.Context, obs []camels.Observation, source string) (*services.RatingRun, error)
	Benchmark(ctx context.Context, obs []camels.Observation, date time.Time, method, source string) (*services.BenchmarkRun, error)
	Profile(ctx context.Context, obs []camels.Observation) (camels.InputProfile, error)
	ReadUpload(ctx context.Context, filename string, r io.Reader, sheet string) ([]camels.Observation, error)
	SheetsEnabled() bool
	FetchSheet(ctx context.Context) ([]camels.Observation, error)
	ExportRating(ctx context.Context, run *services.RatingRun, dir string, formats []string) ([]string, error)
	ExportBenchmark(ctx context.Context, run *services.BenchmarkRun, dir string, formats []string) ([]string, error)
}
