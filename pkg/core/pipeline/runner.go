// Package pipeline wires the extraction stages end to end: reporting-year
// detection, section location, field extraction, reconciliation and
// optional persistence. One Run call per document, one Record out;
// extraction never returns an error to the caller; every failure mode is
// folded into the record's status and warnings.
package pipeline

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/extract"
	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/store"
)

// Runner owns the configured extraction stages for one schema.
type Runner struct {
	cfg        schema.Schema
	locator    *extract.SectionLocator
	totals     *extract.TotalAssetsExtractor
	allocs     *extract.AllocationExtractor
	reconciler *extract.Reconciler

	// repo is optional; when set it supplies prior-year totals and
	// persists finished records.
	repo *store.RecordStore
}

// NewRunner creates a runner. repo may be nil for stateless runs.
func NewRunner(cfg schema.Schema, repo *store.RecordStore) *Runner {
	return &Runner{
		cfg:        cfg,
		locator:    extract.NewSectionLocator(cfg),
		totals:     extract.NewTotalAssetsExtractor(cfg),
		allocs:     extract.NewAllocationExtractor(cfg),
		reconciler: extract.NewReconciler(cfg),
		repo:       repo,
	}
}

// Run extracts one record from a document view. yearHint overrides year
// detection when nonzero. Identical views and schemas always produce an
// identical record.
func (r *Runner) Run(ctx context.Context, view *document.View, yearHint int) extract.Record {
	var warnings []string

	if view == nil || view.Validate() != nil {
		return r.reconciler.Reconcile(extract.Input{
			Warnings: []string{extract.Warnf("document", "view is empty or malformed")},
		})
	}

	year := yearHint
	if year == 0 {
		year = DetectReportingYear(view)
	}
	if year == 0 {
		warnings = append(warnings, extract.Warnf("reporting year", "not determined from document or hint"))
	}

	bsRegion := r.locator.Locate(view, r.cfg.BalanceSheetKeywords)
	if bsRegion == nil {
		warnings = append(warnings, extract.Warnf("balance sheet", "section not located"))
	}
	total, totalWarns := r.totals.Extract(view, bsRegion, year)
	warnings = append(warnings, totalWarns...)

	compRegion := r.locator.Locate(view, r.cfg.CompositionKeywords)
	if compRegion == nil {
		warnings = append(warnings, extract.Warnf("composition", "section not located"))
	}
	allocCands, allocWarns := r.allocs.Extract(view, compRegion)
	warnings = append(warnings, allocWarns...)

	var priorTotal float64
	if r.repo != nil {
		priorTotal = r.repo.PriorTotal(ctx, year)
	}

	rec := r.reconciler.Reconcile(extract.Input{
		ReportingYear: year,
		Total:         total,
		Allocations:   allocCands,
		Warnings:      warnings,
		PriorTotal:    priorTotal,
		SourceDigest:  view.Fingerprint(),
	})

	if r.repo != nil && rec.Status != extract.StatusFailed {
		if err := r.repo.Save(ctx, rec); err != nil {
			log.Printf("[Pipeline] persist failed for %d: %v", rec.ReportingYear, err)
		}
	}

	log.Printf("[Pipeline] year=%d status=%s warnings=%d digest=%s",
		rec.ReportingYear, rec.Status, len(rec.Warnings), rec.SourceDigest)
	return rec
}

var annualReportYear = regexp.MustCompile(`(?i)annual report\s+((?:19|20)\d{2})`)

// DetectReportingYear finds the reporting year from a cover line such as
// "Annual Report 2024". Returns 0 when no such line exists.
func DetectReportingYear(view *document.View) int {
	for _, line := range view.Lines {
		if m := annualReportYear.FindStringSubmatch(line.Text); m != nil {
			y, _ := strconv.Atoi(m[1])
			return y
		}
	}
	return 0
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// BatchItem is one document queued for batch extraction.
type BatchItem struct {
	Name     string
	View     *document.View
	YearHint int
}

// BatchResult collects the records of one batch run. Records come back in
// input order regardless of worker scheduling; only the RunID varies
// between otherwise identical runs.
type BatchResult struct {
	RunID   string
	Records []extract.Record
	Names   []string
}

// RunBatch extracts every item with the given number of worker goroutines.
func (r *Runner) RunBatch(ctx context.Context, items []BatchItem, workers int) BatchResult {
	if workers < 1 {
		workers = 1
	}

	result := BatchResult{
		RunID:   uuid.NewString(),
		Records: make([]extract.Record, len(items)),
		Names:   make([]string, len(items)),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result.Names[i] = items[i].Name
				result.Records[i] = r.Run(ctx, items[i].View, items[i].YearHint)
			}
		}()
	}

feed:
	for i := range items {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	// Items skipped by a cancellation still get a well-formed failed record.
	for i := range result.Records {
		if result.Records[i].Status == "" {
			result.Names[i] = items[i].Name
			result.Records[i] = r.reconciler.Reconcile(extract.Input{
				Warnings: []string{extract.Warnf("batch", "run cancelled before extraction")},
			})
		}
	}

	log.Printf("[Pipeline] batch %s complete: %d documents, %d workers",
		result.RunID, len(items), workers)
	return result
}
