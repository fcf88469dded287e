package extract

import (
	"math"
	"sort"

	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/validate"
)

// =============================================================================
// RECONCILER - Candidate merge and plausibility validation
// =============================================================================

// lowConfidenceThreshold is the per-field confidence floor below which a
// record is downgraded even when all plausibility checks pass.
const lowConfidenceThreshold = 0.7

// Reconciler merges extractor candidates into one final Record, runs the
// plausibility checks and assigns the terminal status. Every anomaly is
// recorded as a warning naming the offending field; nothing is ever
// silently dropped or fabricated.
type Reconciler struct {
	cfg schema.Schema
}

// NewReconciler creates a reconciler over the given schema.
func NewReconciler(cfg schema.Schema) *Reconciler {
	return &Reconciler{cfg: cfg}
}

// Input bundles everything the reconciler needs for one document.
type Input struct {
	ReportingYear int
	Total         *Candidate                       // nil when extraction failed
	Allocations   map[schema.AssetClass]*Candidate // keyed by canonical class
	Warnings      []string                         // accumulated upstream diagnostics
	// PriorTotal is the known total of the preceding year, zero when
	// unavailable. Used for the relative plausibility band only.
	PriorTotal   float64
	SourceDigest string
}

// Reconcile produces the final record. The status ladder is strict:
// failed beats low-confidence beats ok, and a failed record still carries
// whatever was successfully extracted.
func (r *Reconciler) Reconcile(in Input) Record {
	rec := Record{
		ReportingYear: in.ReportingYear,
		Allocations:   make(map[schema.AssetClass]AllocationField),
		Warnings:      append([]string{}, in.Warnings...),
		SourceDigest:  in.SourceDigest,
	}

	failed := in.ReportingYear == 0
	lowConf := false

	// Total assets.
	rec.TotalAssets = TotalAssetsField{Unit: r.cfg.CurrencyUnit}
	if in.Total == nil {
		rec.Warnings = append(rec.Warnings, Warnf("total assets", "not extracted"))
		failed = true
	} else {
		v := in.Total.Value
		rec.TotalAssets.Value = &v
		rec.TotalAssets.Confidence = in.Total.Confidence
		if in.Total.Confidence < lowConfidenceThreshold {
			lowConf = true
		}

		if band := validate.CheckBand(v, r.cfg.TotalAssetsMin, r.cfg.TotalAssetsMax); !band.InBounds {
			rec.Warnings = append(rec.Warnings, Warnf("total assets",
				"%v outside plausibility band [%v, %v]", v, band.Min, band.Max))
			lowConf = true
		}
		if rel := validate.CheckRelative(v, in.PriorTotal, r.cfg.PriorYearBandPct); !rel.InBounds {
			rec.Warnings = append(rec.Warnings, Warnf("total assets",
				"%.1f%% move from prior year %v exceeds ±%v%% band",
				rel.YoY.ChangePct, in.PriorTotal, r.cfg.PriorYearBandPct))
			lowConf = true
		}
	}

	// Allocations, canonical classes only, deterministic order.
	for _, class := range sortedClasses(in.Allocations) {
		c := in.Allocations[class]
		if !r.cfg.IsCanonical(class) {
			rec.Warnings = append(rec.Warnings, Warnf("allocation", "non-canonical class %s dropped", class))
			continue
		}
		rec.Allocations[class] = AllocationField{
			Percent:    c.Value,
			Confidence: c.Confidence,
		}
		if c.Confidence < lowConfidenceThreshold {
			lowConf = true
		}
	}

	if derived, ok := r.deriveResidualCash(rec.Allocations); ok {
		rec.Allocations[schema.AssetCash] = derived
		rec.Warnings = append(rec.Warnings, Warnf("allocation",
			"%s derived as residual %.1f%%", schema.AssetCash, derived.Percent))
		lowConf = true
	}

	if len(rec.Allocations) == 0 {
		rec.Warnings = append(rec.Warnings, Warnf("allocation", "no classes extracted"))
		failed = true
	} else if sum := r.checkSum(rec.Allocations); sum != "" {
		rec.Warnings = append(rec.Warnings, sum)
		lowConf = true
	}

	switch {
	case failed:
		rec.Status = StatusFailed
	case lowConf:
		rec.Status = StatusLowConfidence
	default:
		rec.Status = StatusOK
	}
	return rec
}

// deriveResidualCash computes Cash as 100 minus the sum of the stated
// percentages when the document omits an explicit liquidity row. Requires
// every core class to be present; a residual outside [0,100] is discarded.
func (r *Reconciler) deriveResidualCash(allocs map[schema.AssetClass]AllocationField) (AllocationField, bool) {
	if _, ok := allocs[schema.AssetCash]; ok {
		return AllocationField{}, false
	}
	for _, core := range r.cfg.CoreClasses() {
		if _, ok := allocs[core]; !ok {
			return AllocationField{}, false
		}
	}

	sum := 0.0
	for _, f := range allocs {
		sum += f.Percent
	}
	residual := 100 - sum
	if residual < 0 || residual > 100 {
		return AllocationField{}, false
	}
	return AllocationField{
		Percent:    math.Round(residual*10) / 10,
		Confidence: 0.6,
		Derived:    true,
	}, true
}

// checkSum validates the allocation percentages against 100 within the
// configured tolerance, returning a warning string or "".
func (r *Reconciler) checkSum(allocs map[schema.AssetClass]AllocationField) string {
	percents := make([]float64, 0, len(allocs))
	for _, f := range allocs {
		percents = append(percents, f.Percent)
	}
	check := validate.CheckPercentSum(percents, 100, r.cfg.PercentTolerance)
	if check.InBounds {
		return ""
	}
	return Warnf("allocation", "percentages sum to %.1f, deviates from 100 by more than %v",
		check.Sum, check.Tolerance)
}

func sortedClasses(m map[schema.AssetClass]*Candidate) []schema.AssetClass {
	classes := make([]schema.AssetClass, 0, len(m))
	for c := range m {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}
