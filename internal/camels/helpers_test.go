package camels

import (
	"time"
)

var (
	fy2022 = time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)
	fy2023 = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
)

// strongBank rates 1 on every variable except the loan loss slot, which
// depends on the market.
func strongBank(name string, date time.Time) Observation {
	return Observation{
		Institution:          name,
		Date:                 date,
		TotalProvisions:      Some(30),
		TotalGrossLoans:      Some(1000),
		Tier1Capital:         Some(250),
		RWA:                  Some(1000),
		TotalLiabilities:     Some(500),
		TotalEquity:          Some(100),
		Stage3Exposure:       Some(20),
		TotalAssets:          Some(1100),
		TotalAssetsLag1:      Some(1000),
		TotalAssetsLag2:      Some(900),
		TotalAssetsLag3:      Some(800),
		Expenses:             Some(40),
		NetOperatingIncome:   Some(100),
		NetIncome:            Some(20),
		InterestExpenses:     Some(5),
		InterestIncome:       Some(100),
		LiquidAssets:         Some(40),
		CurrentLiabilities:   Some(100),
		NonInterestIncome:    Some(100),
		LiquidityCoverageRaw: Some(2.5),
	}
}

// weakBank rates 5 on every variable
func weakBank(name string, date time.Time) Observation {
	return Observation{
		Institution:          name,
		Date:                 date,
		TotalProvisions:      Some(200),
		TotalGrossLoans:      Some(1000),
		Tier1Capital:         Some(50),
		RWA:                  Some(1000),
		TotalLiabilities:     Some(1500),
		TotalEquity:          Some(100),
		Stage3Exposure:       Some(200),
		TotalAssets:          Some(700),
		TotalAssetsLag1:      Some(800),
		TotalAssetsLag2:      Some(900),
		TotalAssetsLag3:      Some(1000),
		Expenses:             Some(150),
		NetOperatingIncome:   Some(100),
		NetIncome:            Some(-10),
		InterestExpenses:     Some(40),
		InterestIncome:       Some(100),
		LiquidAssets:         Some(5),
		CurrentLiabilities:   Some(100),
		NonInterestIncome:    Some(5),
		LiquidityCoverageRaw: Some(0.5),
	}
}

func allRanks(rank int) SubRatings {
	var s SubRatings
	for i := range s {
		s[i] = rank
	}
	return s
}
