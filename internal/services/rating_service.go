package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"camelsrating/internal/camels"
	"camelsrating/internal/config"
	"camelsrating/internal/dataprocessing"
	"camelsrating/internal/infrastructure"
	"camelsrating/pkg/contracts/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const dateLayout = "2006-01-02"

// Publisher receives run events for connected dashboards
type Publisher interface {
	Publish(ctx context.Context, msgType events.MessageType, data interface{}) error
}

// RatingServiceConfig wires the rating service. Only Engine is required.
type RatingServiceConfig struct {
	Engine    *camels.Engine
	Paths     *config.Paths
	CacheSize int
	Publisher Publisher
	Metrics   *infrastructure.BusinessMetrics
	Tracer    trace.Tracer
	Sheets    *dataprocessing.SheetsSource
}

// RatingService runs the CAMELS engine for the HTTP and CLI surfaces. It
// memoizes results by input fingerprint, coalesces identical concurrent
// runs, records run metrics and publishes run events.
type RatingService struct {
	engine    *camels.Engine
	backfill  *camels.Engine
	paths     *config.Paths
	publisher Publisher
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer
	sheets    *dataprocessing.SheetsSource
	logger    *slog.Logger

	cache  *resultCache
	flight singleflight.Group
}

// RatingRun is the outcome of one rating request
type RatingRun struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	Scheme      string         `json:"scheme"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	Cached      bool           `json:"cached"`
	StartedAt   time.Time      `json:"started_at"`
	DurationMS  int64          `json:"duration_ms"`
	Result      *camels.Result `json:"result"`
}

// BenchmarkRun is the outcome of one benchmark request
type BenchmarkRun struct {
	RunID  string                  `json:"run_id"`
	Source string                  `json:"source"`
	Result *camels.BenchmarkResult `json:"result"`
}

// NewRatingService creates a rating service
func NewRatingService(cfg RatingServiceConfig, logger *slog.Logger) (*RatingService, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("rating engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.ServiceName)
	}
	paths := cfg.Paths
	if paths == nil {
		paths = config.NewPaths(".")
	}

	backfill := cfg.Engine
	if !cfg.Engine.Options().BackfillLags {
		opts := cfg.Engine.Options()
		opts.BackfillLags = true
		b, err := cfg.Engine.WithOptions(opts)
		if err != nil {
			return nil, fmt.Errorf("create backfilling engine: %w", err)
		}
		backfill = b
	}

	logger = logger.With(slog.String("service", "rating"))
	logger.Info("RatingService initialized",
		slog.String("scheme", cfg.Engine.Scheme().Name),
		slog.Int("cache_size", cfg.CacheSize),
		slog.Bool("sheets_enabled", cfg.Sheets != nil),
		slog.String("benchmark_method", string(cfg.Engine.Options().BenchmarkMethod)))

	return &RatingService{
		engine:    cfg.Engine,
		backfill:  backfill,
		paths:     paths,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		tracer:    tracer,
		sheets:    cfg.Sheets,
		logger:    logger,
		cache:     newResultCache(cfg.CacheSize),
	}, nil
}

// Engine returns the engine the service rates with
func (s *RatingService) Engine() *camels.Engine {
	return s.engine
}

// Scheme returns the active rating scheme
func (s *RatingService) Scheme() camels.Scheme {
	return s.engine.Scheme()
}

// Rate rates a batch of observations. source labels the run in logs,
// metrics and events (json, upload, file, sheets).
func (s *RatingService) Rate(ctx context.Context, obs []camels.Observation, source string) (*RatingRun, error) {
	return s.rateWith(ctx, s.engine, obs, source)
}

// RateWithBackfill is Rate with missing Total Assets lags filled from
// earlier rows of the same institution, whatever the configured default
func (s *RatingService) RateWithBackfill(ctx context.Context, obs []camels.Observation, source string) (*RatingRun, error) {
	return s.rateWith(ctx, s.backfill, obs, source)
}

func (s *RatingService) rateWith(ctx context.Context, engine *camels.Engine, obs []camels.Observation, source string) (*RatingRun, error) {
	run := &RatingRun{
		RunID:     uuid.NewString(),
		Source:    source,
		Scheme:    engine.Scheme().Name,
		StartedAt: time.Now().UTC(),
	}

	ctx, span := s.tracer.Start(ctx, "rating.rate", trace.WithAttributes(
		attribute.String("run.id", run.RunID),
		attribute.String("run.source", source),
		attribute.String("scheme", run.Scheme),
		attribute.Int("rows", len(obs)),
	))
	defer span.End()

	logger := s.logger.With(slog.String("run_id", run.RunID), slog.String("source", source))

	key, err := Fingerprint(obs, engine.Scheme(), engine.Options())
	if err != nil {
		// Unencodable input cannot be cached; the engine reports why it is invalid
		logger.DebugContext(ctx, "input not fingerprinted", slog.String("error", err.Error()))
		key = ""
	}
	run.Fingerprint = key

	if key != "" {
		cached, hit := s.cache.get(key)
		if s.cache != nil {
			infrastructure.RecordCacheLookup(ctx, s.metrics, hit)
		}
		if hit {
			run.Cached = true
			run.Result = cached
			run.DurationMS = time.Since(run.StartedAt).Milliseconds()
			infrastructure.SetSpanAttributes(ctx, map[string]interface{}{"cached": true})
			logger.InfoContext(ctx, "Rating served from cache",
				slog.String("fingerprint", key[:12]),
				slog.Int("rows", len(cached.Ratings)))
			s.publishCompleted(ctx, run)
			return run, nil
		}
	}

	infrastructure.RecordActiveRunChange(ctx, s.metrics, 1)
	defer infrastructure.RecordActiveRunChange(ctx, s.metrics, -1)

	result, err := s.rate(ctx, engine, key, obs)
	duration := time.Since(run.StartedAt)
	run.DurationMS = duration.Milliseconds()

	stats := infrastructure.RatingRunStats{
		RunID:    run.RunID,
		Source:   source,
		Rows:     len(obs),
		Duration: duration,
		Err:      err,
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrOperationTimeout, err)
			stats.Err = err
		}
		infrastructure.RecordRatingRun(ctx, s.metrics, stats)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "Rating run failed",
			slog.String("code", ErrorCode(err)),
			slog.String("error", err.Error()))
		s.publish(ctx, events.MessageTypeRatingFailed, events.RatingFailed{
			RunID:  run.RunID,
			Source: source,
			Code:   ErrorCode(err),
			Error:  err.Error(),
		})
		return nil, err
	}

	run.Result = result
	stats.MissingRatios = countMissing(result)
	stats.Grades = gradeLabels(result.Distribution)
	infrastructure.RecordRatingRun(ctx, s.metrics, stats)

	infrastructure.AddSpanEvent(ctx, "rating.completed", map[string]interface{}{
		"ratings":        len(result.Ratings),
		"missing_ratios": stats.MissingRatios,
	})
	span.SetStatus(codes.Ok, "")
	logger.InfoContext(ctx, "Rating run completed",
		slog.Int("rows", len(result.Ratings)),
		slog.Int("dates", len(result.MarketRates)),
		slog.Int("missing_ratios", stats.MissingRatios),
		slog.Duration("duration", duration))

	s.publishCompleted(ctx, run)
	return run, nil
}

// rate runs the engine, sharing the work between identical concurrent
// requests when the input has a fingerprint
func (s *RatingService) rate(ctx context.Context, engine *camels.Engine, key string, obs []camels.Observation) (*camels.Result, error) {
	if key == "" {
		return engine.Rate(ctx, obs)
	}

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		result, err := engine.Rate(ctx, obs)
		if err != nil {
			return nil, err
		}
		s.cache.add(key, result)
		return result, nil
	})
	if shared {
		trace.SpanFromContext(ctx).AddEvent("rating.coalesced")
	}
	if err != nil {
		return nil, err
	}
	return v.(*camels.Result), nil
}

// Benchmark compares institutions at date with the market benchmark. A
// zero date selects the latest date; an empty method selects the engine
// default.
func (s *RatingService) Benchmark(ctx context.Context, obs []camels.Observation, date time.Time, method string, source string) (*BenchmarkRun, error) {
	run := &BenchmarkRun{RunID: uuid.NewString(), Source: source}

	ctx, span := s.tracer.Start(ctx, "rating.benchmark", trace.WithAttributes(
		attribute.String("run.id", run.RunID),
		attribute.String("run.source", source),
		attribute.String("method", method),
		attribute.Int("rows", len(obs)),
	))
	defer span.End()

	m := camels.BenchmarkMethod(method)
	if method != "" {
		parsed, err := camels.ParseBenchmarkMethod(method)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
				Field:   "method",
				Message: err.Error(),
				Value:   method,
			})
		}
		m = parsed
	}

	result, err := s.engine.BenchmarkWith(ctx, obs, date, m)
	if err != nil {
		label := method
		if label == "" {
			label = string(s.engine.Options().BenchmarkMethod)
		}
		infrastructure.RecordBenchmarkRun(ctx, s.metrics, label, false)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "Benchmark failed",
			slog.String("run_id", run.RunID),
			slog.String("code", ErrorCode(err)),
			slog.String("error", err.Error()))
		s.publish(ctx, events.MessageTypeRatingFailed, events.RatingFailed{
			RunID:  run.RunID,
			Source: source,
			Code:   ErrorCode(err),
			Error:  err.Error(),
		})
		return nil, err
	}

	run.Result = result
	infrastructure.RecordBenchmarkRun(ctx, s.metrics, string(result.Method), true)
	span.SetAttributes(attribute.String("benchmark.date", result.Date.Format(dateLayout)))

	s.logger.InfoContext(ctx, "Benchmark completed",
		slog.String("run_id", run.RunID),
		slog.String("date", result.Date.Format(dateLayout)),
		slog.String("method", string(result.Method)),
		slog.Int("institutions", len(result.Deviations)))

	s.publish(ctx, events.MessageTypeBenchmarkCompleted, events.BenchmarkCompleted{
		RunID:        run.RunID,
		Date:         result.Date.Format(dateLayout),
		Method:       string(result.Method),
		Institutions: len(result.Deviations),
	})
	return run, nil
}

// Profile summarises the raw input columns
func (s *RatingService) Profile(ctx context.Context, obs []camels.Observation) (camels.InputProfile, error) {
	_, span := s.tracer.Start(ctx, "rating.profile", trace.WithAttributes(attribute.Int("rows", len(obs))))
	defer span.End()

	if len(obs) == 0 {
		return camels.InputProfile{}, camels.ErrNoObservations
	}
	return camels.Profile(obs), nil
}

// LoadFile reads observations from a workbook or CSV file. Relative paths
// that do not exist are looked up in the input directory.
func (s *RatingService) LoadFile(ctx context.Context, path, sheet string) ([]camels.Observation, error) {
	ctx, span := s.tracer.Start(ctx, "rating.load_file", trace.WithAttributes(attribute.String("file", filepath.Base(path))))
	defer span.End()

	if !filepath.IsAbs(path) && !config.FileExists(path) {
		if candidate := s.paths.GetInputPath(path); config.FileExists(candidate) {
			path = candidate
		}
	}

	obs, err := dataprocessing.Load(path, sheet)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	infrastructure.AddSpanEvent(ctx, "rows_loaded", map[string]interface{}{"rows": len(obs)})
	s.logger.InfoContext(ctx, "Loaded institution data",
		slog.String("file", path),
		slog.Int("rows", len(obs)))
	return obs, nil
}

// ReadUpload parses an uploaded workbook or CSV file, chosen by the file
// name's extension
func (s *RatingService) ReadUpload(ctx context.Context, filename string, r io.Reader, sheet string) ([]camels.Observation, error) {
	_, span := s.tracer.Start(ctx, "rating.read_upload", trace.WithAttributes(attribute.String("file", filename)))
	defer span.End()

	var (
		obs []camels.Observation
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		obs, err = dataprocessing.ReadWorkbook(r, sheet)
	case ".csv":
		obs, err = dataprocessing.ParseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedUpload, ext)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrEmptyUpload
	}

	s.logger.InfoContext(ctx, "Parsed upload",
		slog.String("file", filename),
		slog.Int("rows", len(obs)))
	return obs, nil
}

// SheetsEnabled reports whether a spreadsheet source is configured
func (s *RatingService) SheetsEnabled() bool {
	return s.sheets != nil
}

// FetchSheet downloads observations from the configured spreadsheet
func (s *RatingService) FetchSheet(ctx context.Context) ([]camels.Observation, error) {
	if s.sheets == nil {
		return nil, ErrSourceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "rating.fetch_sheet")
	defer span.End()

	obs, err := s.sheets.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return obs, nil
}

// CacheLen returns the number of memoized results
func (s *RatingService) CacheLen() int {
	return s.cache.len()
}

func (s *RatingService) publishCompleted(ctx context.Context, run *RatingRun) {
	res := run.Result
	s.publish(ctx, events.MessageTypeRatingCompleted, events.RatingCompleted{
		RunID:        run.RunID,
		Source:       run.Source,
		Scheme:       run.Scheme,
		Rows:         len(res.Ratings),
		Institutions: countInstitutions(res),
		Dates:        len(res.MarketRates),
		Distribution: gradeLabels(res.Distribution),
		DurationMS:   run.DurationMS,
		Cached:       run.Cached,
	})
}

// publish is best effort: a missing or stopped feed never fails a run
func (s *RatingService) publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msgType, data); err != nil {
		s.logger.DebugContext(ctx, "Run event not published",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
	}
}

// ErrorCode classifies a run error for events and logs
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, camels.ErrNoObservations):
		return "NO_OBSERVATIONS"
	case errors.Is(err, camels.ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, camels.ErrInvalidScheme):
		return "INVALID_SCHEME"
	case errors.Is(err, camels.ErrDateNotFound):
		return "DATE_NOT_FOUND"
	case errors.Is(err, ErrUnsupportedUpload):
		return "UNSUPPORTED_MEDIA_TYPE"
	case errors.Is(err, ErrOperationTimeout), errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	case errors.Is(err, ErrServiceUnavailable):
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

func countMissing(res *camels.Result) int {
	n := 0
	for _, row := range res.Ratios {
		for _, v := range row.Ratios {
			if !v.Valid {
				n++
			}
		}
	}
	return n
}

func countInstitutions(res *camels.Result) int {
	seen := make(map[string]struct{}, len(res.Ratings))
	for _, r := range res.Ratings {
		seen[r.Institution] = struct{}{}
	}
	return len(seen)
}

func gradeLabels(dist map[camels.Grade]int) map[string]int {
	out := make(map[string]int, len(dist))
	for g, n := range dist {
		out[string(g)] = n
	}
	return out
}
