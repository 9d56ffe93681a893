package camels

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldProfile summarizes one raw input column
type FieldProfile struct {
	Field   string `json:"field"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`
	Mean    Value  `json:"mean"`
	Std     Value  `json:"std"`
	Min     Value  `json:"min"`
	Q1      Value  `json:"q1"`
	Median  Value  `json:"median"`
	Q3      Value  `json:"q3"`
	Max     Value  `json:"max"`
}

// InputProfile describes a batch of observations
type InputProfile struct {
	Rows         int            `json:"rows"`
	Institutions int            `json:"institutions"`
	Dates        []string       `json:"dates"`
	Fields       []FieldProfile `json:"fields"`
}

// Profile computes descriptive statistics for every raw field. The
// standard deviation is the sample deviation and quartiles interpolate
// linearly between order statistics.
func Profile(obs []Observation) InputProfile {
	institutions := make(map[string]struct{})
	for _, o := range obs {
		institutions[o.Institution] = struct{}{}
	}

	p := InputProfile{
		Rows:         len(obs),
		Institutions: len(institutions),
	}
	for _, d := range Dates(obs) {
		p.Dates = append(p.Dates, d.Format("2006-01-02"))
	}

	for _, f := range Fields() {
		vals := make([]float64, 0, len(obs))
		for i := range obs {
			if cell := obs[i].Field(f); cell.Valid {
				vals = append(vals, cell.Float)
			}
		}
		p.Fields = append(p.Fields, describe(f.String(), vals, len(obs)-len(vals)))
	}
	return p
}

func describe(name string, vals []float64, missing int) FieldProfile {
	fp := FieldProfile{Field: name, Count: len(vals), Missing: missing}
	if len(vals) == 0 {
		return fp
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	fp.Mean = Some(mean)
	if len(sorted) > 1 {
		fp.Std = Some(math.Sqrt(stat.Variance(sorted, nil)))
	}
	fp.Min = Some(floats.Min(sorted))
	fp.Max = Some(floats.Max(sorted))
	fp.Q1 = Some(quantile(sorted, 0.25))
	fp.Median = Some(quantile(sorted, 0.5))
	fp.Q3 = Some(quantile(sorted, 0.75))
	return fp
}

// quantile interpolates linearly at position (n-1)p of sorted data
func quantile(sorted []float64, p float64) float64 {
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
