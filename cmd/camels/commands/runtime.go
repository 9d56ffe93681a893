package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"camelsrating/internal/app"
	"camelsrating/internal/camels"
	"camelsrating/internal/config"
	"camelsrating/internal/dataprocessing"
	"camelsrating/internal/infrastructure"
	"camelsrating/internal/services"
	"camelsrating/internal/validation"
)

// maxParallelLoads bounds how many input files are parsed at once
const maxParallelLoads = 4

// runtime bundles what every rating command needs
type runtime struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	service   *services.RatingService
	validator *validation.FileValidator
}

// loadConfig applies the global flags on top of the loaded configuration
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.schemeFile != "" {
		cfg.Engine.SchemeFile = o.schemeFile
	}
	if o.dataDir != "" {
		abs, err := filepath.Abs(o.dataDir)
		if err != nil {
			return nil, err
		}
		cfg.Paths.DataDir = abs
	}
	return cfg, nil
}

// runtime loads the configuration and builds the rating service
func (o *globalOptions) runtime(cmd *cobra.Command, withSheets bool) (*runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return newRuntime(cmd.Context(), cfg, cmd.ErrOrStderr(), withSheets)
}

// newRuntime builds the rating service for a command. Logs go to stderr so
// stdout carries only command output. The spreadsheet source is connected
// only when withSheets is set.
func newRuntime(ctx context.Context, cfg *config.Config, stderr io.Writer, withSheets bool) (*runtime, error) {
	paths, err := cfg.ValidatePaths()
	if err != nil {
		return nil, err
	}

	logging := cfg.Logging
	logging.FilePath = paths.ResolveLogFile(logging.FilePath)
	logger, err := infrastructure.NewLogger(logging, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	engine, err := app.BuildEngine(cfg.Engine, paths, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rating engine: %w", err)
	}

	var sheets *dataprocessing.SheetsSource
	if withSheets {
		source, err := app.BuildSheetsSource(ctx, cfg.Sheets, paths, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect spreadsheet source: %w", err)
		}
		sheets = source
	}

	service, err := services.NewRatingService(services.RatingServiceConfig{
		Engine: engine,
		Paths:  paths,
		Sheets: sheets,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:       cfg,
		paths:     paths,
		logger:    logger,
		service:   service,
		validator: validation.NewFileValidator(logger),
	}, nil
}

// inputFiles resolves the command arguments to input files. Relative names
// that do not exist are looked up in the input directory; no arguments
// selects every input file in the input directory.
func (rt *runtime) inputFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		files, err := rt.validator.InputFiles(rt.paths.InputDir)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no input files in %s", camels.ErrNoObservations, rt.paths.InputDir)
		}
		return files, nil
	}

	files := make([]string, 0, len(args))
	for _, arg := range args {
		path := arg
		if !filepath.IsAbs(path) && !config.FileExists(path) {
			if candidate := rt.paths.GetInputPath(path); config.FileExists(candidate) {
				path = candidate
			}
		}
		if err := rt.validator.ValidateInputFile(path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// load parses every file concurrently and concatenates the observations in
// argument order
func (rt *runtime) load(ctx context.Context, files []string, sheet string) ([]camels.Observation, error) {
	if sheet == "" {
		sheet = rt.cfg.Engine.Sheet
	}

	batches := make([][]camels.Observation, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, file := range files {
		g.Go(func() error {
			obs, err := rt.service.LoadFile(gctx, file, sheet)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(file), err)
			}
			batches[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []camels.Observation
	for _, batch := range batches {
		all = append(all, batch...)
	}
	return all, nil
}

// observations reads the command input from files or, with fromSheets, the
// configured spreadsheet
func (rt *runtime) observations(ctx context.Context, args []string, sheet string, fromSheets bool) ([]camels.Observation, string, error) {
	if fromSheets {
		if len(args) > 0 {
			return nil, "", fmt.Errorf("--from-sheets does not take input files")
		}
		obs, err := rt.service.FetchSheet(ctx)
		return obs, "sheets", err
	}

	files, err := rt.inputFiles(args)
	if err != nil {
		return nil, "", err
	}
	obs, err := rt.load(ctx, files, sheet)
	return obs, "file", err
}

// outputDir resolves and checks the export directory; empty selects the
// reports directory
func (rt *runtime) outputDir(dir string) (string, error) {
	if dir == "" {
		dir = rt.paths.ReportsDir
	}
	if err := rt.validator.ValidateOutputDirectory(dir); err != nil {
		return "", err
	}
	return dir, nil
}
