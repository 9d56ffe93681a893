package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "camelsrating/internal/errors"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"csv", []string{"csv"}, false},
		{"JSON, xlsx", []string{"json", "xlsx"}, false},
		{"csv,csv", []string{"csv"}, false},
		{"all", []string{"csv", "json", "xlsx", "summary"}, false},
		{"", nil, true},
		{"pdf", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormats(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedExport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportRating(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	run, err := svc.Rate(ctx, sampleObservations(), "json")
	require.NoError(t, err)
	run.StartedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	dir := t.TempDir()
	files, err := svc.ExportRating(ctx, run, dir, []string{FormatJSON, FormatXLSX, FormatSummary, FormatCSV})
	require.NoError(t, err)

	assert.Contains(t, files, filepath.Join(dir, "camels_ratings_20240301_093000.json"))
	assert.Contains(t, files, filepath.Join(dir, "camels_ratings_20240301_093000.xlsx"))
	assert.Contains(t, files, filepath.Join(dir, "camels_ratings_20240301_093000_summary.txt"))
	assert.Greater(t, len(files), 3, "csv export writes one file per table")
	for _, f := range files {
		assert.FileExists(t, f)
	}

	data, err := os.ReadFile(filepath.Join(dir, "camels_ratings_20240301_093000.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestExportRatingDefaultsToReportsDir(t *testing.T) {
	svc := newTestService(t)
	run, err := svc.Rate(context.Background(), sampleObservations(), "json")
	require.NoError(t, err)

	run.StartedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	files, err := svc.ExportRating(context.Background(), run, "", []string{FormatJSON})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, svc.paths.GetRunReportPath("ratings", "json", run.StartedAt), files[0])
}

func TestExportRatingErrors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ExportRating(context.Background(), nil, t.TempDir(), []string{FormatJSON})
	assert.Error(t, err)

	run, err := svc.Rate(context.Background(), sampleObservations(), "json")
	require.NoError(t, err)
	_, err = svc.ExportRating(context.Background(), run, t.TempDir(), []string{"pdf"})
	assert.ErrorIs(t, err, ErrUnsupportedExport)

	t.Run("unwritable directory", func(t *testing.T) {
		blocked := filepath.Join(t.TempDir(), "reports")
		require.NoError(t, os.WriteFile(blocked, []byte("a file, not a directory"), 0644))

		_, err := svc.ExportRating(context.Background(), run, blocked, []string{FormatJSON})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
	})

	t.Run("unwritable file", func(t *testing.T) {
		dir := t.TempDir()
		run.StartedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "camels_ratings_20240301_093000.json"), 0755))

		_, err := svc.ExportRating(context.Background(), run, dir, []string{FormatJSON})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
		assert.Contains(t, appErr.Message, "camels_ratings_20240301_093000.json")
	})
}

func TestExportBenchmark(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	run, err := svc.Benchmark(ctx, sampleObservations(), fy2023, "", "json")
	require.NoError(t, err)

	dir := t.TempDir()
	files, err := svc.ExportBenchmark(ctx, run, dir, []string{FormatJSON, FormatXLSX, FormatSummary})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "camels_benchmark_20231231.json"),
		filepath.Join(dir, "camels_benchmark_20231231.xlsx"),
	}, files)
}
