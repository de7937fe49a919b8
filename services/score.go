package services

import "math"

// NormalizeStyleScore maps a model-supplied rating of unknown scale to an
// integer in [0,100]. The model sometimes returns a 0-1 fraction, sometimes a
// 1-10 rating and sometimes an already-scaled percentage, so the branches
// are checked in a fixed order:
//
//  1. nil defaults to 50
//  2. (0,1] is treated as a fraction and multiplied by 100
//  3. [1,10] is treated as a rating and multiplied by 10
//  4. anything else is clamped to [0,100]
//
// A value of exactly 1 is ambiguous between "fraction=1.0" and "rating=1";
// the fraction branch wins because it is checked first.
func NormalizeStyleScore(score *float64) int {
	if score == nil {
		return 50
	}
	s := *score
	if s > 0 && s <= 1 {
		return int(math.Round(s * 100))
	}
	if s >= 1 && s <= 10 {
		return int(math.Round(s * 10))
	}
	rounded := math.Round(s)
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return int(rounded)
}
