package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "camelsrating/internal/errors"
	api "camelsrating/pkg/contracts/api/v1"
)

func newValidation() *ValidationMiddleware {
	logger := discardLogger()
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), 1024)
}

func TestValidateStruct(t *testing.T) {
	m := newValidation()
	assets := 100.0

	tests := []struct {
		name      string
		req       interface{}
		wantField string
		wantRow   int
	}{
		{
			name:      "no observations",
			req:       &api.RateRequest{},
			wantField: "observations",
		},
		{
			name: "bad date in second row",
			req: &api.RateRequest{Observations: []api.ObservationDTO{
				{Institution: "Alpha", Date: "2023-12-31", TotalAssets: &assets},
				{Institution: "Beta", Date: "31/12/2023"},
			}},
			wantField: "date",
			wantRow:   2,
		},
		{
			name: "blank institution",
			req: &api.ProfileRequest{Observations: []api.ObservationDTO{
				{Institution: "   ", Date: "2023-12-31"},
			}},
			wantField: "institution",
			wantRow:   1,
		},
		{
			name: "unknown method",
			req: &api.BenchmarkRequest{
				Observations: []api.ObservationDTO{{Institution: "Alpha", Date: "2023-12-31"}},
				Method:       "median",
			},
			wantField: "method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.req)
			require.Error(t, err)

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
			assert.Equal(t, tt.wantRow, details.Errors[0].Row)
			assert.NotEmpty(t, details.Errors[0].Message)
		})
	}

	t.Run("valid request", func(t *testing.T) {
		req := &api.BenchmarkRequest{
			Observations: []api.ObservationDTO{{Institution: "Alpha", Date: "2023-12-31"}},
			Date:         "2023-12-31",
			Method:       "ratio_of_means",
		}
		assert.NoError(t, m.ValidateStruct(req))
	})
}

func TestDecode(t *testing.T) {
	m := newValidation()

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
			`{"observations":[{"institution":"Alpha","date":"2023-12-31","total_assets":1000,"rwa":null}]}`))
		var req api.RateRequest
		require.NoError(t, m.Decode(r, &req))
		require.Len(t, req.Observations, 1)
		require.NotNil(t, req.Observations[0].TotalAssets)
		assert.Equal(t, 1000.0, *req.Observations[0].TotalAssets)
		assert.Nil(t, req.Observations[0].RWA)
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var req api.RateRequest
		var apiErr *apierrors.APIError
		require.ErrorAs(t, m.Decode(r, &req), &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("wrong type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"observations":"all"}`))
		var req api.RateRequest
		var apiErr *apierrors.APIError
		require.ErrorAs(t, m.Decode(r, &req), &apiErr)
		assert.Equal(t, "INVALID_REQUEST", apiErr.ErrorCode)
	})
}

func TestValidateRequest(t *testing.T) {
	m := newValidation()
	handler := m.ValidateRequest(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusOK},
		{"valid json", http.MethodPost, "application/json", `{"a":1}`, http.StatusOK},
		{"invalid json", http.MethodPost, "application/json", `{"a":`, http.StatusBadRequest},
		{"too large", http.MethodPost, "application/json", `{"a":"` + strings.Repeat("x", 2048) + `"}`, http.StatusRequestEntityTooLarge},
		{"multipart skipped", http.MethodPost, "multipart/form-data; boundary=x", "--x--", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/camels/ratings", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator("application/json", "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{"json", "application/json; charset=utf-8", http.StatusOK},
		{"multipart", "multipart/form-data; boundary=x", http.StatusOK},
		{"missing", "", http.StatusBadRequest},
		{"xml", "application/xml", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger := discardLogger()
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	w := httptest.NewRecorder()
	method, ok := v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?method=ratio_of_means", nil),
		"method", []string{"mean_of_ratios", "ratio_of_means"}, "mean_of_ratios")
	assert.True(t, ok)
	assert.Equal(t, "ratio_of_means", method)

	w = httptest.NewRecorder()
	_, ok = v.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?method=median", nil),
		"method", []string{"mean_of_ratios"}, "mean_of_ratios")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	b, ok := v.ValidateBool(w, httptest.NewRequest(http.MethodGet, "/?backfill_lags=true", nil), "backfill_lags", false)
	assert.True(t, ok)
	assert.True(t, b)

	w = httptest.NewRecorder()
	_, ok = v.ValidateBool(w, httptest.NewRequest(http.MethodGet, "/?backfill_lags=maybe", nil), "backfill_lags", false)
	assert.False(t, ok)
}

func TestRowOf(t *testing.T) {
	assert.Equal(t, 3, rowOf("RateRequest.observations[2].date"))
	assert.Equal(t, 0, rowOf("BenchmarkRequest.method"))
}
