// Package validate provides reusable plausibility-check utilities for
// extracted financial facts. These functions can be called from the
// reconciler, tests, or review tooling to verify data integrity.
package validate

import (
	"math"
)

// =============================================================================
// PERCENTAGE SUM CHECK
// =============================================================================

// SumCheck holds the result of validating that a set of percentages adds up
// to an expected total.
type SumCheck struct {
	Sum       float64
	Expected  float64
	Deviation float64 // Absolute deviation from expected
	Tolerance float64
	InBounds  bool
}

// CheckPercentSum validates that the given percentages sum to expected
// within tolerance (in percentage points).
func CheckPercentSum(percents []float64, expected, tolerance float64) *SumCheck {
	sum := 0.0
	for _, p := range percents {
		sum += p
	}
	dev := math.Abs(sum - expected)

	return &SumCheck{
		Sum:       sum,
		Expected:  expected,
		Deviation: dev,
		Tolerance: tolerance,
		InBounds:  dev <= tolerance,
	}
}

// =============================================================================
// ABSOLUTE BAND CHECK
// =============================================================================

// BandCheck holds the result of a soft absolute-range check. A breach flags
// the value for review; it never rejects it.
type BandCheck struct {
	Value    float64
	Min      float64
	Max      float64
	InBounds bool
}

// CheckBand validates min <= value <= max.
func CheckBand(value, min, max float64) *BandCheck {
	return &BandCheck{
		Value:    value,
		Min:      min,
		Max:      max,
		InBounds: value >= min && value <= max,
	}
}

// =============================================================================
// YEAR-OVER-YEAR (YoY) CHECKS
// =============================================================================

// YoYResult holds the result of a YoY calculation.
type YoYResult struct {
	CurrentValue float64
	PriorValue   float64
	ChangeAbs    float64 // Absolute change
	ChangePct    float64 // Percentage change
}

// CalculateYoY calculates year-over-year change between two values.
// Returns percentage change: (current - prior) / prior * 100
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1) // Infinite growth from zero
	}
	return (current - prior) / prior * 100
}

// RelativeCheck holds the result of comparing a value against a prior-year
// reference within a relative band.
type RelativeCheck struct {
	YoY      YoYResult
	BandPct  float64 // Allowed relative move, e.g. 25 = ±25%
	InBounds bool
}

// CheckRelative validates that value moved no more than bandPct percent from
// prior. A zero prior always passes: there is nothing to compare against.
func CheckRelative(value, prior, bandPct float64) *RelativeCheck {
	yoy := YoYResult{
		CurrentValue: value,
		PriorValue:   prior,
		ChangeAbs:    value - prior,
		ChangePct:    CalculateYoY(value, prior),
	}
	inBounds := prior == 0 || math.Abs(yoy.ChangePct) <= bandPct

	return &RelativeCheck{
		YoY:      yoy,
		BandPct:  bandPct,
		InBounds: inBounds,
	}
}
