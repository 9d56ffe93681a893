package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"camelsrating/internal/camels"
	"camelsrating/internal/config"
	apierrors "camelsrating/internal/errors"
	"camelsrating/internal/middleware"
	"camelsrating/internal/services"
)

// MockRatingService is a mock implementation of RatingServiceInterface
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Scheme() camels.Scheme {
	return m.Called().Get(0).(camels.Scheme)
}

func (m *MockRatingService) Rate(ctx context.Context, obs []camels.Observation, source string) (*services.RatingRun, error) {
	args := m.Called(obs, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RatingRun), args.Error(1)
}

func (m *MockRatingService) RateWithBackfill(ctx context.Context, obs []camels.Observation, source string) (*services.RatingRun, error) {
	args := m.Called(obs, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RatingRun), args.Error(1)
}

func (m *MockRatingService) Benchmark(ctx context.Context, obs []camels.Observation, date time.Time, method, source string) (*services.BenchmarkRun, error) {
	args := m.Called(obs, date, method, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BenchmarkRun), args.Error(1)
}

func (m *MockRatingService) Profile(ctx context.Context, obs []camels.Observation) (camels.InputProfile, error) {
	args := m.Called(obs)
	return args.Get(0).(camels.InputProfile), args.Error(1)
}

func (m *MockRatingService) ReadUpload(ctx context.Context, filename string, r io.Reader, sheet string) ([]camels.Observation, error) {
	args := m.Called(filename, sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]camels.Observation), args.Error(1)
}

func (m *MockRatingService) SheetsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *MockRatingService) FetchSheet(ctx context.Context) ([]camels.Observation, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]camels.Observation), args.Error(1)
}

func (m *MockRatingService) ExportRating(ctx context.Context, run *services.RatingRun, dir string, formats []string) ([]string, error) {
	args := m.Called(run, dir, formats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRatingService) ExportBenchmark(ctx context.Context, run *services.BenchmarkRun, dir string, formats []string) ([]string, error) {
	args := m.Called(run, dir, formats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRealService(t *testing.T) *services.RatingService {
	t.Helper()
	engine, err := camels.NewEngine(camels.DefaultScheme(), camels.DefaultOptions(), quietLogger())
	require.NoError(t, err)
	svc, err := services.NewRatingService(services.RatingServiceConfig{
		Engine:    engine,
		Paths:     config.NewPaths(t.TempDir()),
		CacheSize: 4,
	}, quietLogger())
	require.NoError(t, err)
	return svc
}

func newRouter(svc RatingServiceInterface) http.Handler {
	logger := quietLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidationMiddleware(logger, errorHandler, 0)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/camels", NewRatingHandler(svc, validator, logger, errorHandler, 1<<20).Routes())
	return r
}

// row returns a JSON observation; scale varies the ratios between rows
func row(name, date string, scale float64) map[string]interface{} {
	return map[string]interface{}{
		"institution":          name,
		"date":                 date,
		"total_provisions":     30 * scale,
		"total_gross_loans":    1000,
		"tier1_capital":        150 * scale,
		"rwa":                  1000,
		"total_liabilities":    800 * scale,
		"total_equity":         100,
		"stage3_exposure":      40 * scale,
		"total_assets":         1100,
		"total_assets_t1":      1000,
		"total_assets_t2":      950,
		"total_assets_t3":      900,
		"expenses":             60 * scale,
		"net_operating_income": 100,
		"net_income":           15 / scale,
		"interest_expenses":    30 * scale,
		"interest_income":      100,
		"liquid_assets":        20 / scale,
		"current_liabilities":  100,
		"non_interest_income":  30,
		"lcr":                  1.5 / scale,
	}
}

func sampleRows() []map[string]interface{} {
	return []map[string]interface{}{
		row("Alpha Bank", "2023-12-31", 1),
		row("Beta Bank", "2023-12-31", 1.4),
		row("Gamma Bank", "2023-12-31", 0.7),
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRatingHandler_ReferenceData(t *testing.T) {
	h := newRouter(newRealService(t))

	tests := []struct {
		name  string
		path  string
		check func(t *testing.T, body []byte)
	}{
		{
			name: "scheme",
			path: "/api/camels/scheme",
			check: func(t *testing.T, body []byte) {
				var scheme camels.Scheme
				require.NoError(t, json.Unmarshal(body, &scheme))
				assert.Equal(t, "default", scheme.Name)
				assert.Equal(t, camels.DefaultScheme().Weights, scheme.Weights)
			},
		},
		{
			name: "variables",
			path: "/api/camels/variables",
			check: func(t *testing.T, body []byte) {
				var vars []map[string]interface{}
				require.NoError(t, json.Unmarshal(body, &vars))
				assert.Len(t, vars, camels.NumVariables)
			},
		},
		{
			name: "grades",
			path: "/api/camels/grades",
			check: func(t *testing.T, body []byte) {
				var grades GradesResponse
				require.NoError(t, json.Unmarshal(body, &grades))
				assert.Len(t, grades.Bands, 5)
				assert.NotEmpty(t, grades.Grades)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			tt.check(t, rec.Body.Bytes())
		})
	}
}

func TestRatingHandler_Rate(t *testing.T) {
	h := newRouter(newRealService(t))

	rec := postJSON(t, h, "/api/camels/ratings", map[string]interface{}{"observations": sampleRows()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, "json", body["source"])
	assert.Equal(t, false, body["cached"])
	assert.NotContains(t, body, "files")

	result := body["result"].(map[string]interface{})
	ratings := result["ratings"].([]interface{})
	require.Len(t, ratings, 3)
	assert.Equal(t, "Alpha Bank", ratings[0].(map[string]interface{})["institution"])

	again := decodeBody(t, postJSON(t, h, "/api/camels/ratings", map[string]interface{}{"observations": sampleRows()}))
	assert.Equal(t, true, again["cached"])
}

func TestRatingHandler_RateErrors(t *testing.T) {
	h := newRouter(newRealService(t))

	blank := sampleRows()
	blank[1]["institution"] = "  "
	badDate := sampleRows()
	badDate[2]["date"] = "31/12/2023"
	dup := sampleRows()
	dup[1]["institution"] = "Alpha Bank"

	tests := []struct {
		name     string
		path     string
		body     interface{}
		status   int
		wantType string
	}{
		{"empty observations", "/api/camels/ratings", map[string]interface{}{"observations": []interface{}{}}, http.StatusBadRequest, apierrors.TypeValidation},
		{"blank institution", "/api/camels/ratings", map[string]interface{}{"observations": blank}, http.StatusBadRequest, apierrors.TypeValidation},
		{"bad date", "/api/camels/ratings", map[string]interface{}{"observations": badDate}, http.StatusBadRequest, apierrors.TypeValidation},
		{"duplicate rows", "/api/camels/ratings", map[string]interface{}{"observations": dup}, http.StatusUnprocessableEntity, apierrors.TypeInvalidInput},
		{"unknown export", "/api/camels/ratings?export=pdf", map[string]interface{}{"observations": sampleRows()}, http.StatusBadRequest, apierrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.NotEmpty(t, body["trace_id"])
		})
	}

	t.Run("blank institution reports the row", func(t *testing.T) {
		body := decodeBody(t, postJSON(t, h, "/api/camels/ratings", map[string]interface{}{"observations": blank}))
		details := body["details"].(map[string]interface{})
		errs := details["errors"].([]interface{})
		require.NotEmpty(t, errs)
		assert.EqualValues(t, 2, errs[0].(map[string]interface{})["row"])
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/camels/ratings", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/camels/ratings", strings.NewReader("x"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRatingHandler_RateExport(t *testing.T) {
	h := newRouter(newRealService(t))

	rec := postJSON(t, h, "/api/camels/ratings?export=json", map[string]interface{}{"observations": sampleRows()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	files := decodeBody(t, rec)["files"].([]interface{})
	require.Len(t, files, 1)
	assert.FileExists(t, files[0].(string))
}

func multipartBody(t *testing.T, field, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func csvContent(names ...string) string {
	var b strings.Builder
	b.WriteString(strings.Join(camels.Columns(), ",") + "\n")
	for i, name := range names {
		b.WriteString(name + ",2023-12-31")
		for f := 0; f < camels.NumFields; f++ {
			fmt.Fprintf(&b, ",%d", 50+10*i+f)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestRatingHandler_Upload(t *testing.T) {
	h := newRouter(newRealService(t))

	tests := []struct {
		name     string
		field    string
		filename string
		content  string
		query    string
		status   int
	}{
		{"csv upload", "file", "batch.csv", csvContent("Alpha", "Beta"), "", http.StatusOK},
		{"with backfill", "file", "batch.csv", csvContent("Alpha"), "?backfill_lags=true", http.StatusOK},
		{"bad backfill flag", "file", "batch.csv", csvContent("Alpha"), "?backfill_lags=maybe", http.StatusBadRequest},
		{"unsupported extension", "file", "batch.txt", "hello", "", http.StatusUnsupportedMediaType},
		{"empty file", "file", "batch.csv", "", "", http.StatusBadRequest},
		{"missing file", "", "", "", "", http.StatusBadRequest},
		{"no header row", "file", "batch.csv", "a,b\n1,2\n", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, tt.filename, tt.content, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/camels/ratings/upload"+tt.query, body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, "upload", decodeBody(t, rec)["source"])
			}
		})
	}
}

func TestRatingHandler_UploadSheetField(t *testing.T) {
	svc := new(MockRatingService)
	obs := []camels.Observation{{Institution: "Alpha"}}
	run := &services.RatingRun{RunID: "r1", Source: "upload"}
	svc.On("ReadUpload", "batch.xlsx", "Q4").Return(obs, nil)
	svc.On("Rate", obs, "upload").Return(run, nil)

	body, contentType := multipartBody(t, "file", "batch.xlsx", "not really a workbook", map[string]string{"sheet": "Q4"})
	req := httptest.NewRequest(http.MethodPost, "/api/camels/ratings/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "r1", decodeBody(t, rec)["run_id"])
	svc.AssertExpectations(t)
}

func TestRatingHandler_Benchmark(t *testing.T) {
	h := newRouter(newRealService(t))

	tests := []struct {
		name     string
		body     map[string]interface{}
		status   int
		wantType string
	}{
		{"latest date", map[string]interface{}{"observations": sampleRows()}, http.StatusOK, ""},
		{"explicit date and method", map[string]interface{}{"observations": sampleRows(), "date": "2023-12-31", "method": "ratio_of_means"}, http.StatusOK, ""},
		{"unknown method", map[string]interface{}{"observations": sampleRows(), "method": "median"}, http.StatusBadRequest, apierrors.TypeValidation},
		{"date not present", map[string]interface{}{"observations": sampleRows(), "date": "2019-12-31"}, http.StatusNotFound, apierrors.TypeDateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/camels/benchmark", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
				return
			}
			result := body["result"].(map[string]interface{})
			assert.Len(t, result["deviations"], 3)
		})
	}
}

func TestRatingHandler_Profile(t *testing.T) {
	h := newRouter(newRealService(t))

	rec := postJSON(t, h, "/api/camels/profile", map[string]interface{}{"observations": sampleRows()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["rows"])
	assert.EqualValues(t, 3, body["institutions"])
	assert.Len(t, body["fields"], camels.NumFields)
}

func TestRatingHandler_Sheets(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		rec := postJSON(t, newRouter(newRealService(t)), "/api/camels/sheets/ratings", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})

	t.Run("source failure", func(t *testing.T) {
		svc := new(MockRatingService)
		fetchErr := apierrors.NewNetworkError(`failed to read sheet "Institution_Data"`, errors.New("quota exceeded"))
		svc.On("FetchSheet").Return(nil, fmt.Errorf("%w: %w", services.ErrServiceUnavailable, fetchErr))

		rec := postJSON(t, newRouter(svc), "/api/camels/sheets/ratings", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
		assert.Equal(t, apierrors.TypeSourceFailed, decodeBody(t, rec)["type"])
	})

	t.Run("rates with backfill", func(t *testing.T) {
		svc := new(MockRatingService)
		obs := []camels.Observation{{Institution: "Alpha"}}
		run := &services.RatingRun{RunID: "s1", Source: "sheets"}
		svc.On("FetchSheet").Return(obs, nil)
		svc.On("RateWithBackfill", obs, "sheets").Return(run, nil)
		svc.On("ExportRating", run, "", []string{"csv", "json", "xlsx", "summary"}).Return([]string{"a.csv"}, nil)

		rec := postJSON(t, newRouter(svc), "/api/camels/sheets/ratings?backfill_lags=true&export=all", nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []interface{}{"a.csv"}, decodeBody(t, rec)["files"])
		svc.AssertExpectations(t)
	})
}

func TestRatingHandler_Timeout(t *testing.T) {
	svc := new(MockRatingService)
	svc.On("Rate", mock.Anything, "json").Return(nil, fmt.Errorf("%w: %w", services.ErrOperationTimeout, context.DeadlineExceeded))

	rec := postJSON(t, newRouter(svc), "/api/camels/ratings", map[string]interface{}{"observations": sampleRows()})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, apierrors.TypeTimeout, decodeBody(t, rec)["type"])
}
