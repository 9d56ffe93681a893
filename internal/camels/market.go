package camels

import (
	"sort"
	"time"
)

// MarketRate is the market-wide loan loss rate for one reporting date
type MarketRate struct {
	Date            time.Time `json:"date"`
	TotalProvisions Value     `json:"total_provisions"`
	TotalGrossLoans Value     `json:"total_gross_loans"`
	Rate            Value     `json:"rate"`
	Institutions    int       `json:"institutions"`
}

// MarketLoanLossRate aggregates one date group. Provisions and gross loans
// are summed independently over the defined cells, so a row missing one of
// them still contributes the other.
func MarketLoanLossRate(date time.Time, group []Observation) MarketRate {
	provisions := sumDefined(group, func(o Observation) Value { return o.TotalProvisions })
	loans := sumDefined(group, func(o Observation) Value { return o.TotalGrossLoans })

	return MarketRate{
		Date:            date,
		TotalProvisions: provisions,
		TotalGrossLoans: loans,
		Rate:            div(provisions, loans),
		Institutions:    len(group),
	}
}

// MarketLoanLossRates computes the market rate for every date present, oldest first
func MarketLoanLossRates(obs []Observation) []MarketRate {
	groups := groupByDate(obs)
	rates := make([]MarketRate, 0, len(groups))
	for _, g := range groups {
		rates = append(rates, MarketLoanLossRate(g.date, g.rows))
	}
	return rates
}

// sumDefined returns Missing when no cell in the group is defined
func sumDefined(group []Observation, field func(Observation) Value) Value {
	var total float64
	found := false
	for _, o := range group {
		if v := field(o); v.Valid {
			total += v.Float
			found = true
		}
	}
	if !found {
		return Missing
	}
	return Some(total)
}

type dateGroup struct {
	date    time.Time
	rows    []Observation
	indices []int // positions in the original input
}

// groupByDate partitions observations by date, sorted ascending
func groupByDate(obs []Observation) []dateGroup {
	byDate := make(map[time.Time]*dateGroup)
	var order []*dateGroup
	for i, o := range obs {
		key := dateKey(o.Date)
		g, ok := byDate[key]
		if !ok {
			g = &dateGroup{date: key}
			byDate[key] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, o)
		g.indices = append(g.indices, i)
	}

	sort.Slice(order, func(i, j int) bool {
		return order[i].date.Before(order[j].date)
	})

	groups := make([]dateGroup, len(order))
	for i, g := range order {
		groups[i] = *g
	}
	return groups
}

// dateKey normalizes a reporting date to midnight UTC
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dates returns the distinct reporting dates, oldest first
func Dates(obs []Observation) []time.Time {
	groups := groupByDate(obs)
	dates := make([]time.Time, len(groups))
	for i, g := range groups {
		dates[i] = g.date
	}
	return dates
}

// LatestDate returns the most recent reporting date
func LatestDate(obs []Observation) (time.Time, bool) {
	dates := Dates(obs)
	if len(dates) == 0 {
		return time.Time{}, false
	}
	return dates[len(dates)-1], true
}
