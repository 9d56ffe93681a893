package camels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is a numeric cell that may be missing
type Value struct {
	Float float64
	Valid bool
}

// Missing is the undefined value
var Missing = Value{}

// Some wraps a float. NaN and infinities become Missing.
func Some(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{Float: f, Valid: true}
}

// Get returns the float and whether it is defined
func (v Value) Get() (float64, bool) {
	return v.Float, v.Valid
}

// OrNaN returns the float, or NaN when missing
func (v Value) OrNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float
}

// String formats the value; missing values render as an empty string
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'g', -1, 64)
}

// MarshalJSON encodes a missing value as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.Float, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Missing
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value must be a number or null: %w", err)
	}
	*v = Some(f)
	return nil
}

// Variable identifies one of the eleven CAMELS ratios
type Variable int

const (
	// Tier1CapitalRatio is Tier 1 Capital / RWA
	Tier1CapitalRatio Variable = iota
	// DebtToEquity is Total Liabilities / Total Equity
	DebtToEquity
	// NPLRatio is Stage 3 Exposure / Total Gross Loans
	NPLRatio
	// LoanLossProvisionScaled is the absolute distance of the provision rate from the market rate
	LoanLossProvisionScaled
	// AssetGrowth3YAvg is the mean of the last three annual asset growth rates
	AssetGrowth3YAvg
	// EfficiencyRatio is Expenses / Net Operating Income
	EfficiencyRatio
	// ReturnOnAssets is Net Income over average Total Assets
	ReturnOnAssets
	// InterestExpenseToIncome is Interest Expenses / Interest Income
	InterestExpenseToIncome
	// LiquidityCoverage is the reported LCR
	LiquidityCoverage
	// CashRatio is Liquid Assets / Current Liabilities
	CashRatio
	// NonInterestIncomeShare is Non Interest Income over total income
	NonInterestIncomeShare

	// NumVariables is the number of CAMELS variables
	NumVariables int = iota
)

var variableNames = [NumVariables]string{
	"Tier 1 Capital Ratio",
	"Debt to Equity Ratio",
	"NPL to Total Gross Loans Ratio",
	"Loan Loss Provision Rate Scaled",
	"Asset Growth Rate 3Y Average",
	"Efficiency Ratio",
	"Return on Assets (ROA)",
	"Interest Expenses to Interest Income Ratio",
	"Liquidity Coverage Ratio (LCR)",
	"Cash Ratio",
	"Non Interest Income Share",
}

var variableKeys = [NumVariables]string{
	"tier1_capital_ratio",
	"debt_to_equity",
	"npl_ratio",
	"loan_loss_provision_scaled",
	"asset_growth_3y_avg",
	"efficiency_ratio",
	"roa",
	"interest_expense_to_income",
	"lcr",
	"cash_ratio",
	"non_interest_income_share",
}

// Variables returns all variables in canonical order
func Variables() []Variable {
	vars := make([]Variable, NumVariables)
	for i := range vars {
		vars[i] = Variable(i)
	}
	return vars
}

// IsValid reports whether v names a known variable
func (v Variable) IsValid() bool {
	return v >= 0 && int(v) < NumVariables
}

// String returns the display name of the variable
func (v Variable) String() string {
	if !v.IsValid() {
		return "unknown"
	}
	return variableNames[v]
}

// Key returns the snake_case identifier used in JSON and config files
func (v Variable) Key() string {
	if !v.IsValid() {
		return "unknown"
	}
	return variableKeys[v]
}

// ParseVariable resolves a key or display name (case-insensitive)
func ParseVariable(s string) (Variable, error) {
	s = strings.TrimSpace(s)
	for i := 0; i < NumVariables; i++ {
		if strings.EqualFold(s, variableKeys[i]) || strings.EqualFold(s, variableNames[i]) {
			return Variable(i), nil
		}
	}
	return -1, fmt.Errorf("unknown variable %q", s)
}

// MarshalText encodes the variable as its key
func (v Variable) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("invalid variable %d", int(v))
	}
	return []byte(v.Key()), nil
}

// UnmarshalText decodes a key or display name
func (v *Variable) UnmarshalText(text []byte) error {
	parsed, err := ParseVariable(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Observation is one row of raw statements for an institution at a reporting date
type Observation struct {
	Institution string    `json:"institution" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`

	TotalProvisions      Value `json:"total_provisions"`
	TotalGrossLoans      Value `json:"total_gross_loans"`
	Tier1Capital         Value `json:"tier1_capital"`
	RWA                  Value `json:"rwa"`
	TotalLiabilities     Value `json:"total_liabilities"`
	TotalEquity          Value `json:"total_equity"`
	Stage3Exposure       Value `json:"stage3_exposure"`
	TotalAssets          Value `json:"total_assets"`
	TotalAssetsLag1      Value `json:"total_assets_t1"` // Total Assets (t-1)
	TotalAssetsLag2      Value `json:"total_assets_t2"`
	TotalAssetsLag3      Value `json:"total_assets_t3"`
	Expenses             Value `json:"expenses"`
	NetOperatingIncome   Value `json:"net_operating_income"`
	NetIncome            Value `json:"net_income"`
	InterestExpenses     Value `json:"interest_expenses"`
	InterestIncome       Value `json:"interest_income"`
	LiquidAssets         Value `json:"liquid_assets"`
	CurrentLiabilities   Value `json:"current_liabilities"`
	NonInterestIncome    Value `json:"non_interest_income"`
	LiquidityCoverageRaw Value `json:"lcr"` // reported, never derived
}

// Ratios holds the eleven CAMELS ratios indexed by Variable
type Ratios [NumVariables]Value

// Get returns the ratio for v
func (r Ratios) Get(v Variable) Value {
	return r[v]
}

// MissingCount returns the number of undefined ratios
func (r Ratios) MissingCount() int {
	n := 0
	for _, v := range r {
		if !v.Valid {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the ratios as an object keyed by variable key
func (r Ratios) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, NumVariables)
	for i, v := range r {
		m[variableKeys[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by variable key or display name
func (r *Ratios) UnmarshalJSON(data []byte) error {
	var m map[string]Value
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Ratios
	for k, v := range m {
		variable, err := ParseVariable(k)
		if err != nil {
			return err
		}
		out[variable] = v
	}
	*r = out
	return nil
}

// SubRatings holds the ordinal sub-rating (1 best, 5 worst) per variable
type SubRatings [NumVariables]int

// MarshalJSON encodes the sub-ratings as an object keyed by variable key
func (s SubRatings) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, NumVariables)
	for i, v := range s {
		m[variableKeys[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by variable key or display name
func (s *SubRatings) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out SubRatings
	for k, v := range m {
		variable, err := ParseVariable(k)
		if err != nil {
			return err
		}
		out[variable] = v
	}
	*s = out
	return nil
}

// RatioRow is the derived ratio set for one observation
type RatioRow struct {
	Institution string    `json:"institution"`
	Date        time.Time `json:"date"`
	Ratios      Ratios    `json:"ratios"`

	// LoanLossProvisionRate is the unscaled provisions/gross loans rate
	LoanLossProvisionRate Value `json:"loan_loss_provision_rate"`
	// MarketLoanLossRate is the market rate for the row's date
	MarketLoanLossRate Value `json:"market_loan_loss_rate"`
}

// RatingRow is the full rating of one observation
type RatingRow struct {
	Institution    string     `json:"institution"`
	Date           time.Time  `json:"date"`
	SubRatings     SubRatings `json:"sub_ratings"`
	CompositeScore float64    `json:"composite_score"`
	Grade          Grade      `json:"grade"`
	Band           Band       `json:"band"`
}

// Result is the output of a rating run. Rows align with the input order.
type Result struct {
	Ratios       []RatioRow    `json:"ratios"`
	Ratings      []RatingRow   `json:"ratings"`
	MarketRates  []MarketRate  `json:"market_rates"`
	Distribution map[Grade]int `json:"grade_distribution"`
}

// GradeCounts recomputes the grade distribution from the rating rows
func GradeCounts(rows []RatingRow) map[Grade]int {
	counts := make(map[Grade]int, len(Grades()))
	for _, g := range Grades() {
		counts[g] = 0
	}
	for _, r := range rows {
		counts[r.Grade]++
	}
	return counts
}
