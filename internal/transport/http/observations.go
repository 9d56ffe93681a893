package http

import (
	"fmt"
	"strings"
	"time"

	"camelsrating/internal/camels"
	api "camelsrating/pkg/contracts/api/v1"
)

// toObservations converts request rows to engine observations. Rows have
// already passed struct validation, so a bad date here is a client error
// that slipped past the tags.
func toObservations(rows []api.ObservationDTO) ([]camels.Observation, error) {
	obs := make([]camels.Observation, len(rows))
	for i, row := range rows {
		date, err := time.Parse(api.DateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", camels.ErrInvalidInput, &camels.ValidationError{
				Row:     i + 1,
				Field:   "date",
				Message: fmt.Sprintf("date must be in the form %s", api.DateLayout),
				Value:   row.Date,
			})
		}

		obs[i] = camels.Observation{
			Institution:          strings.TrimSpace(row.Institution),
			Date:                 date,
			TotalProvisions:      value(row.TotalProvisions),
			TotalGrossLoans:      value(row.TotalGrossLoans),
			Tier1Capital:         value(row.Tier1Capital),
			RWA:                  value(row.RWA),
			TotalLiabilities:     value(row.TotalLiabilities),
			TotalEquity:          value(row.TotalEquity),
			Stage3Exposure:       value(row.Stage3Exposure),
			TotalAssets:          value(row.TotalAssets),
			TotalAssetsLag1:      value(row.TotalAssetsLag1),
			TotalAssetsLag2:      value(row.TotalAssetsLag2),
			TotalAssetsLag3:      value(row.TotalAssetsLag3),
			Expenses:             value(row.Expenses),
			NetOperatingIncome:   value(row.NetOperatingIncome),
			NetIncome:            value(row.NetIncome),
			InterestExpenses:     value(row.InterestExpenses),
			InterestIncome:       value(row.InterestIncome),
			LiquidAssets:         value(row.LiquidAssets),
			CurrentLiabilities:   value(row.CurrentLiabilities),
			NonInterestIncome:    value(row.NonInterestIncome),
			LiquidityCoverageRaw: value(row.LCR),
		}
	}
	return obs, nil
}

func value(f *float64) camels.Value {
	if f == nil {
		return camels.Missing
	}
	return camels.Some(*f)
}
