package camels

import (
	"math"
)

// Grade is the final CAMELS letter grade
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeCMinus Grade = "C-"
	GradeDPlus  Grade = "D+"
	GradeDMinus Grade = "D-"
	GradeEPlus  Grade = "E+"
	GradeEMinus Grade = "E-"
)

// GradeBound is the half-open score interval [Lower, Upper) of a grade.
// The last grade is closed at 5.
type GradeBound struct {
	Grade Grade   `json:"grade"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

var gradeScale = []GradeBound{
	{GradeAPlus, 1, 1.25},
	{GradeAMinus, 1.25, 1.5},
	{GradeBPlus, 1.5, 1.95},
	{GradeBMinus, 1.95, 2.4},
	{GradeCPlus, 2.4, 2.9},
	{GradeCMinus, 2.9, 3.4},
	{GradeDPlus, 3.4, 3.9},
	{GradeDMinus, 3.9, 4.5},
	{GradeEPlus, 4.5, 4.75},
	{GradeEMinus, 4.75, 5},
}

// GradeScale returns the grade partition of [1,5], best first
func GradeScale() []GradeBound {
	out := make([]GradeBound, len(gradeScale))
	copy(out, gradeScale)
	return out
}

// Grades returns all grades, best first
func Grades() []Grade {
	out := make([]Grade, len(gradeScale))
	for i, b := range gradeScale {
		out[i] = b.Grade
	}
	return out
}

// MapRating maps a composite score to its grade. Scores below 1.25 are A+,
// scores of 4.75 and above are E-, and NaN is E-.
func MapRating(score float64) Grade {
	if math.IsNaN(score) {
		return GradeEMinus
	}
	for _, b := range gradeScale[:len(gradeScale)-1] {
		if score < b.Upper {
			return b.Grade
		}
	}
	return GradeEMinus
}

// Band returns the letter band of the grade
func (g Grade) Band() Band {
	if g == "" {
		return ""
	}
	return Band(g[:1])
}

// IsValid reports whether g is one of the ten grades
func (g Grade) IsValid() bool {
	for _, b := range gradeScale {
		if b.Grade == g {
			return true
		}
	}
	return false
}

// Band is the coarse rating category A..E
type Band string

const (
	BandA Band = "A"
	BandB Band = "B"
	BandC Band = "C"
	BandD Band = "D"
	BandE Band = "E"
)

// Bands returns the bands, best first
func Bands() []Band {
	return []Band{BandA, BandB, BandC, BandD, BandE}
}

// BandFor maps a composite score to its band
func BandFor(score float64) Band {
	return MapRating(score).Band()
}

// Analysis returns the short supervisory reading of the band
func (b Band) Analysis() string {
	return bandInfo[b].analysis
}

// Description returns the long description of the band
func (b Band) Description() string {
	return bandInfo[b].description
}
