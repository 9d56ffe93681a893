// Package api contains API contract definitions for the CAMELS rating service.
// Version v1 represents the current stable API version.
package api

// DateLayout is the layout of every date carried by the API
const DateLayout = "2006-01-02"

// Observation API Requests

// ObservationDTO is one institution row as submitted over HTTP. Absent or
// null numeric fields are treated as missing.
type ObservationDTO struct {
	Institution string `json:"institution" validate:"required,notblank"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`

	TotalProvisions    *float64 `json:"total_provisions,omitempty"`
	TotalGrossLoans    *float64 `json:"total_gross_loans,omitempty"`
	Tier1Capital       *float64 `json:"tier1_capital,omitempty"`
	RWA                *float64 `json:"rwa,omitempty"`
	TotalLiabilities   *float64 `json:"total_liabilities,omitempty"`
	TotalEquity        *float64 `json:"total_equity,omitempty"`
	Stage3Exposure     *float64 `json:"stage3_exposure,omitempty"`
	TotalAssets        *float64 `json:"total_assets,omitempty"`
	TotalAssetsLag1    *float64 `json:"total_assets_t1,omitempty"`
	TotalAssetsLag2    *float64 `json:"total_assets_t2,omitempty"`
	TotalAssetsLag3    *float64 `json:"total_assets_t3,omitempty"`
	Expenses           *float64 `json:"expenses,omitempty"`
	NetOperatingIncome *float64 `json:"net_operating_income,omitempty"`
	NetIncome          *float64 `json:"net_income,omitempty"`
	InterestExpenses   *float64 `json:"interest_expenses,omitempty"`
	InterestIncome     *float64 `json:"interest_income,omitempty"`
	LiquidAssets       *float64 `json:"liquid_assets,omitempty"`
	CurrentLiabilities *float64 `json:"current_liabilities,omitempty"`
	NonInterestIncome  *float64 `json:"non_interest_income,omitempty"`
	LCR                *float64 `json:"lcr,omitempty"`
}

// Rating API Requests

// RateRequest represents a request to rate a batch of observations
type RateRequest struct {
	Observations []ObservationDTO `json:"observations" validate:"required,min=1,dive"`
	BackfillLags bool             `json:"backfill_lags,omitempty"`
}

// BenchmarkRequest represents a request to compare institutions with the
// market benchmark on one reporting date. An empty date selects the latest.
type BenchmarkRequest struct {
	Observations []ObservationDTO `json:"observations" validate:"required,min=1,dive"`
	Date         string           `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method       string           `json:"method,omitempty" validate:"omitempty,oneof=mean_of_ratios ratio_of_means"`
}

// ProfileRequest represents a request for descriptive statistics of the input
type ProfileRequest struct {
	Observations []ObservationDTO `json:"observations" validate:"required,min=1,dive"`
}

// UploadRequest carries the form fields accompanying a workbook upload
type UploadRequest struct {
	Sheet        string `json:"sheet" form:"sheet"`
	BackfillLags bool   `json:"backfill_lags" form:"backfill_lags"`
}

// Health API Requests

// HealthCheckRequest represents a health check request
type HealthCheckRequest struct {
	Verbose bool     `json:"verbose" query:"verbose"`
	Include []string `json:"include" query:"include" validate:"omitempty,dive,oneof=engine websocket system"`
}
