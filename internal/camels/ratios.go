package camels

import (
	"math"
)

// DeriveRatios computes the eleven ratios for one observation given the
// market loan loss rate of its date. Undefined arithmetic yields Missing.
func DeriveRatios(o Observation, marketRate Value) RatioRow {
	provisionRate := div(o.TotalProvisions, o.TotalGrossLoans)

	var r Ratios
	r[Tier1CapitalRatio] = div(o.Tier1Capital, o.RWA)
	r[DebtToEquity] = div(o.TotalLiabilities, o.TotalEquity)
	r[NPLRatio] = div(o.Stage3Exposure, o.TotalGrossLoans)
	r[LoanLossProvisionScaled] = absValue(sub(provisionRate, marketRate))
	r[AssetGrowth3YAvg] = meanDefined(
		growth(o.TotalAssets, o.TotalAssetsLag1),
		growth(o.TotalAssetsLag1, o.TotalAssetsLag2),
		growth(o.TotalAssetsLag2, o.TotalAssetsLag3),
	)
	r[EfficiencyRatio] = div(o.Expenses, o.NetOperatingIncome)
	r[ReturnOnAssets] = div(o.NetIncome, half(add(o.TotalAssets, o.TotalAssetsLag1)))
	r[InterestExpenseToIncome] = div(o.InterestExpenses, o.InterestIncome)
	r[LiquidityCoverage] = o.LiquidityCoverageRaw
	r[CashRatio] = div(o.LiquidAssets, o.CurrentLiabilities)
	r[NonInterestIncomeShare] = div(o.NonInterestIncome, add(o.NonInterestIncome, o.InterestIncome))

	return RatioRow{
		Institution:           o.Institution,
		Date:                  dateKey(o.Date),
		Ratios:                r,
		LoanLossProvisionRate: provisionRate,
		MarketLoanLossRate:    marketRate,
	}
}

// growth is (cur - prev) / prev
func growth(cur, prev Value) Value {
	return div(sub(cur, prev), prev)
}

func div(num, den Value) Value {
	if !num.Valid || !den.Valid || den.Float == 0 {
		return Missing
	}
	return Some(num.Float / den.Float)
}

func add(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Missing
	}
	return Some(a.Float + b.Float)
}

func sub(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Missing
	}
	return Some(a.Float - b.Float)
}

func half(v Value) Value {
	if !v.Valid {
		return Missing
	}
	return Some(v.Float / 2)
}

func absValue(v Value) Value {
	if !v.Valid {
		return Missing
	}
	return Some(math.Abs(v.Float))
}

// meanDefined averages the defined values; Missing only if none is defined
func meanDefined(vals ...Value) Value {
	var sum float64
	n := 0
	for _, v := range vals {
		if v.Valid {
			sum += v.Float
			n++
		}
	}
	if n == 0 {
		return Missing
	}
	return Some(sum / float64(n))
}
