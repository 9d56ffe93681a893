package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"camelsrating/internal/camels"
	apierrors "camelsrating/internal/errors"
	"camelsrating/internal/middleware"
	"camelsrating/internal/services"
	api "camelsrating/pkg/contracts/api/v1"
)

const defaultMaxUpload = 32 << 20

var exportFormats = []string{
	services.FormatCSV,
	services.FormatJSON,
	services.FormatXLSX,
	services.FormatSummary,
	services.FormatAll,
}

// RatingHandler serves the CAMELS rating API
type RatingHandler struct {
	service      RatingServiceInterface
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
}

// RatingResponse is a rating run plus any files exported for it
type RatingResponse struct {
	*services.RatingRun
	Files []string `json:"files,omitempty"`
}

// BenchmarkResponse is a benchmark run plus any files exported for it
type BenchmarkResponse struct {
	*services.BenchmarkRun
	Files []string `json:"files,omitempty"`
}

// GradesResponse describes the rating scale
type GradesResponse struct {
	Grades []camels.GradeBound `json:"grades"`
	Bands  []camels.BandInfo   `json:"bands"`
}

// NewRatingHandler creates a rating handler. maxUpload bounds multipart
// uploads; zero selects 32 MiB.
func NewRatingHandler(service RatingServiceInterface, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUpload int64) *RatingHandler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &RatingHandler{
		service:      service,
		validator:    validator,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "rating_handler")),
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
	}
}

// Routes returns the rating routes
func (h *RatingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Reference data
	r.Get("/scheme", h.GetScheme)
	r.Get("/variables", h.GetVariables)
	r.Get("/grades", h.GetGrades)

	// Runs
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeValidator("application/json"))
		r.Use(h.validator.ValidateRequest)
		r.Post("/ratings", h.Rate)
		r.Post("/benchmark", h.Benchmark)
		r.Post("/profile", h.Profile)
	})
	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/ratings/upload", h.Upload)
	r.Post("/sheets/ratings", h.RateSheet)

	return r
}

// GetScheme handles GET /api/camels/scheme
func (h *RatingHandler) GetScheme(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Scheme())
}

// GetVariables handles GET /api/camels/variables
func (h *RatingHandler) GetVariables(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, camels.Catalogue(h.service.Scheme()))
}

// GetGrades handles GET /api/camels/grades
func (h *RatingHandler) GetGrades(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, GradesResponse{
		Grades: camels.GradeScale(),
		Bands:  camels.BandCatalogue(),
	})
}

// Rate handles POST /api/camels/ratings
func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	formats, ok := h.exportParam(w, r)
	if !ok {
		return
	}

	var req api.RateRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	obs, err := toObservations(req.Observations)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.rate(w, r, obs, "json", req.BackfillLags, formats)
}

// Upload handles POST /api/camels/ratings/upload. The workbook or CSV file
// is sent in the "file" field; "sheet" optionally names the worksheet.
func (h *RatingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	formats, ok := h.exportParam(w, r)
	if !ok {
		return
	}
	backfill, ok := h.query.ValidateBool(w, r, "backfill_lags", false)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	if header.Size == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", services.ErrEmptyUpload.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "Upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size))

	obs, err := h.service.ReadUpload(r.Context(), header.Filename, file, r.FormValue("sheet"))
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedUpload) {
			h.errorHandler.HandleError(w, r, apierrors.UnsupportedUploadError(strings.ToLower(filepath.Ext(header.Filename))))
			return
		}
		h.fail(w, r, err)
		return
	}

	h.rate(w, r, obs, "upload", backfill, formats)
}

// RateSheet handles POST /api/camels/sheets/ratings
func (h *RatingHandler) RateSheet(w http.ResponseWriter, r *http.Request) {
	formats, ok := h.exportParam(w, r)
	if !ok {
		return
	}
	backfill, ok := h.query.ValidateBool(w, r, "backfill_lags", false)
	if !ok {
		return
	}

	obs, err := h.service.FetchSheet(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.rate(w, r, obs, "sheets", backfill, formats)
}

// Benchmark handles POST /api/camels/benchmark
func (h *RatingHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	formats, ok := h.exportParam(w, r)
	if !ok {
		return
	}

	var req api.BenchmarkRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	obs, err := toObservations(req.Observations)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(api.DateLayout, req.Date)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "date must be in the form "+api.DateLayout))
			return
		}
	}

	run, err := h.service.Benchmark(r.Context(), obs, date, req.Method, "json")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := BenchmarkResponse{BenchmarkRun: run}
	if len(formats) > 0 {
		resp.Files, err = h.service.ExportBenchmark(r.Context(), run, "", formats)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}
	render.JSON(w, r, resp)
}

// Profile handles POST /api/camels/profile
func (h *RatingHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	obs, err := toObservations(req.Observations)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	profile, err := h.service.Profile(r.Context(), obs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, profile)
}

func (h *RatingHandler) rate(w http.ResponseWriter, r *http.Request, obs []camels.Observation, source string, backfill bool, formats []string) {
	var (
		run *services.RatingRun
		err error
	)
	if backfill {
		run, err = h.service.RateWithBackfill(r.Context(), obs, source)
	} else {
		run, err = h.service.Rate(r.Context(), obs, source)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := RatingResponse{RatingRun: run}
	if len(formats) > 0 {
		resp.Files, err = h.service.ExportRating(r.Context(), run, "", formats)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}
	render.JSON(w, r, resp)
}

// exportParam reads the optional ?export= format
func (h *RatingHandler) exportParam(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	format, ok := h.query.ValidateEnum(w, r, "export", exportFormats, "")
	if !ok || format == "" {
		return nil, ok
	}
	formats, err := services.ParseFormats(format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("export", err.Error()))
		return nil, false
	}
	return formats, true
}

// fail maps service errors onto API errors. Engine, loader and export
// errors are mapped by the error handler itself.
func (h *RatingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrSourceUnavailable):
		err = apierrors.NotFoundError("spreadsheet source")
	case errors.Is(err, services.ErrUnsupportedExport):
		err = apierrors.ErrValidation("export", err.Error())
	}
	h.errorHandler.HandleError(w, r, err)
}
