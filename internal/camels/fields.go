package camels

// Field identifies one raw numeric input column
type Field int

const (
	FieldTotalProvisions Field = iota
	FieldTotalGrossLoans
	FieldTier1Capital
	FieldRWA
	FieldTotalLiabilities
	FieldTotalEquity
	FieldStage3Exposure
	FieldTotalAssets
	FieldTotalAssetsLag1
	FieldTotalAssetsLag2
	FieldTotalAssetsLag3
	FieldExpenses
	FieldNetOperatingIncome
	FieldNetIncome
	FieldInterestExpenses
	FieldInterestIncome
	FieldLiquidAssets
	FieldCurrentLiabilities
	FieldNonInterestIncome
	FieldLCR

	// NumFields is the number of raw numeric columns
	NumFields int = iota
)

// Column names of the input sheet
const (
	ColumnInstitution = "Institution Name"
	ColumnDate        = "Date"
)

var fieldColumns = [NumFields]string{
	"Total Provisions",
	"Total Gross Loans",
	"Tier 1 Capital",
	"RWA",
	"Total Liabilities",
	"Total Equity",
	"Stage 3 Exposure",
	"Total Assets",
	"Total Assets (t-1)",
	"Total Assets (t-2)",
	"Total Assets (t-3)",
	"Expenses",
	"Net Operating Income",
	"Net Income",
	"Interest Expenses",
	"Interest Income",
	"Liquid Assets",
	"Current Liabilities",
	"Non Interest Income",
	"Liquidity Coverage Ratio (LCR)",
}

// Fields returns all raw fields in column order
func Fields() []Field {
	out := make([]Field, NumFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// String returns the input column name of the field
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "unknown"
	}
	return fieldColumns[f]
}

// Columns returns the full input header, key columns first
func Columns() []string {
	cols := make([]string, 0, NumFields+2)
	cols = append(cols, ColumnInstitution, ColumnDate)
	return append(cols, fieldColumns[:]...)
}

// Field returns a pointer to the cell of o holding f
func (o *Observation) Field(f Field) *Value {
	switch f {
	case FieldTotalProvisions:
		return &o.TotalProvisions
	case FieldTotalGrossLoans:
		return &o.TotalGrossLoans
	case FieldTier1Capital:
		return &o.Tier1Capital
	case FieldRWA:
		return &o.RWA
	case FieldTotalLiabilities:
		return &o.TotalLiabilities
	case FieldTotalEquity:
		return &o.TotalEquity
	case FieldStage3Exposure:
		return &o.Stage3Exposure
	case FieldTotalAssets:
		return &o.TotalAssets
	case FieldTotalAssetsLag1:
		return &o.TotalAssetsLag1
	case FieldTotalAssetsLag2:
		return &o.TotalAssetsLag2
	case FieldTotalAssetsLag3:
		return &o.TotalAssetsLag3
	case FieldExpenses:
		return &o.Expenses
	case FieldNetOperatingIncome:
		return &o.NetOperatingIncome
	case FieldNetIncome:
		return &o.NetIncome
	case FieldInterestExpenses:
		return &o.InterestExpenses
	case FieldInterestIncome:
		return &o.InterestIncome
	case FieldLiquidAssets:
		return &o.LiquidAssets
	case FieldCurrentLiabilities:
		return &o.CurrentLiabilities
	case FieldNonInterestIncome:
		return &o.NonInterestIncome
	case FieldLCR:
		return &o.LiquidityCoverageRaw
	default:
		return nil
	}
}
