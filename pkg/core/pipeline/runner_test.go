// Package pipeline - End-to-end extraction tests against synthetic reports
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/extract"
	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/store"
)

// spaced renders an integer with space thousands separators, the way the
// report family under test prints amounts.
func spaced(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + " " + s[len(s)-3:]
}

// annualReport builds a synthetic report view for one year: cover, table of
// contents, narrative filler, balance sheet and composition note.
func annualReport(year, total, prior int) *document.View {
	lines := []document.Line{
		{Text: fmt.Sprintf("Annual Report %d", year), Page: 1},
		{Text: "Pension Fund of the Company", Page: 1},
		{Text: "Contents", Page: 2},
		{Text: "Balance sheet ........ 30", Page: 2},
		{Text: "Notes to the financial statements ........ 38", Page: 2},
	}
	narrative := []string{
		"Management report",
		"The board of trustees reviewed the investment strategy during the year.",
		"The funding situation developed favourably.",
		"Governance and organisation",
		"The investment committee met quarterly.",
		"Actuarial assumptions were reviewed by the accredited expert.",
		"Risk management remains embedded in all investment decisions.",
		"Sustainability considerations are integrated in the selection process.",
		"Membership development was stable.",
		"Administration costs were kept low.",
		"The full financial statements follow.",
		"Outlook remains cautious given market conditions.",
	}
	for _, text := range narrative {
		lines = append(lines, document.Line{Text: text, Page: 3})
	}
	lines = append(lines,
		document.Line{Text: "Balance sheet", Page: 30},
		document.Line{Text: fmt.Sprintf("Assets (CHF millions) 31.12.%d 31.12.%d", year, year-1), Page: 30},
		document.Line{Text: fmt.Sprintf("Investments %s %s", spaced(total-300), spaced(prior-300)), Page: 30},
		document.Line{Text: fmt.Sprintf("Total assets %s %s", spaced(total), spaced(prior)), Page: 30},
		document.Line{Text: fmt.Sprintf("Total liabilities %s %s", spaced(total), spaced(prior)), Page: 30},
		document.Line{Text: "Notes to the financial statements", Page: 38},
		document.Line{Text: "The composition of assets breaks down as follows:", Page: 44},
		document.Line{Text: "Bonds 24.0% Shares 31.0%", Page: 44},
		document.Line{Text: "Real estate investments 19.0% Hedge funds and private equity 14.0%", Page: 44},
		document.Line{Text: "Infrastructure investments 4.0% Liquidity 8.0%", Page: 44},
	)
	return &document.View{Lines: lines}
}

func TestRunGoldenYears(t *testing.T) {
	tests := []struct {
		year  int
		total int
		prior int
	}{
		{2024, 13432, 13083},
		{2023, 13083, 13149},
		{2022, 13149, 14572},
		{2021, 14572, 14116},
		{2020, 14116, 13500},
	}

	runner := NewRunner(schema.Default(), nil)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.year), func(t *testing.T) {
			rec := runner.Run(ctx, annualReport(tt.year, tt.total, tt.prior), 0)

			if rec.Status != extract.StatusOK {
				t.Fatalf("Status = %s, want ok; warnings: %v", rec.Status, rec.Warnings)
			}
			if rec.ReportingYear != tt.year {
				t.Errorf("ReportingYear = %d, want %d (detected from cover)", rec.ReportingYear, tt.year)
			}
			if rec.TotalAssets.Value == nil || *rec.TotalAssets.Value != float64(tt.total) {
				t.Errorf("TotalAssets = %v, want %d", rec.TotalAssets.Value, tt.total)
			}
			if len(rec.Allocations) != 6 {
				t.Errorf("Allocations = %d classes, want 6", len(rec.Allocations))
			}
			sum := 0.0
			for _, f := range rec.Allocations {
				sum += f.Percent
			}
			if sum != 100.0 {
				t.Errorf("allocation sum = %v, want 100", sum)
			}
			if rec.SourceDigest == "" {
				t.Error("SourceDigest empty")
			}
		})
	}
}

func TestRunIdempotent(t *testing.T) {
	runner := NewRunner(schema.Default(), nil)
	ctx := context.Background()

	encode := func() []byte {
		rec := runner.Run(ctx, annualReport(2024, 13432, 13083), 0)
		data, err := json.Marshal(rec)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first, second := encode(), encode()
	if !bytes.Equal(first, second) {
		t.Errorf("identical inputs produced differing records:\n%s\n%s", first, second)
	}
}

func TestRunYearHintOverride(t *testing.T) {
	// A 2024 report read with a 2023 hint must return the prior-year column.
	runner := NewRunner(schema.Default(), nil)
	rec := runner.Run(context.Background(), annualReport(2024, 13432, 13083), 2023)

	if rec.ReportingYear != 2023 {
		t.Errorf("ReportingYear = %d, want hint 2023", rec.ReportingYear)
	}
	if rec.TotalAssets.Value == nil || *rec.TotalAssets.Value != 13083 {
		t.Errorf("TotalAssets = %v, want 13083 from the prior-year column", rec.TotalAssets.Value)
	}
}

func TestRunMissingBalanceSheet(t *testing.T) {
	view := annualReport(2024, 13432, 13083)
	var lines []document.Line
	for _, l := range view.Lines {
		if strings.Contains(strings.ToLower(l.Text), "balance sheet") {
			continue
		}
		lines = append(lines, l)
	}
	view.Lines = lines

	runner := NewRunner(schema.Default(), nil)
	rec := runner.Run(context.Background(), view, 0)

	if rec.Status != extract.StatusFailed {
		t.Fatalf("Status = %s, want failed", rec.Status)
	}
	if rec.TotalAssets.Value != nil {
		t.Errorf("TotalAssets = %v, want nil, never fabricate", *rec.TotalAssets.Value)
	}
	if !hasWarning(rec.Warnings, "balance sheet: section not located") {
		t.Errorf("Warnings = %v, want location diagnostic naming the section", rec.Warnings)
	}
	// The composition section is unaffected and still extracted.
	if len(rec.Allocations) != 6 {
		t.Errorf("Allocations = %d classes, want 6 despite failed total", len(rec.Allocations))
	}
}

func TestRunMissingComposition(t *testing.T) {
	view := annualReport(2024, 13432, 13083)
	var lines []document.Line
	for _, l := range view.Lines {
		if strings.Contains(strings.ToLower(l.Text), "composition") || strings.Contains(l.Text, "%") {
			continue
		}
		lines = append(lines, l)
	}
	view.Lines = lines

	runner := NewRunner(schema.Default(), nil)
	rec := runner.Run(context.Background(), view, 0)

	if rec.Status != extract.StatusFailed {
		t.Fatalf("Status = %s, want failed without allocations", rec.Status)
	}
	if !hasWarning(rec.Warnings, "composition: section not located") {
		t.Errorf("Warnings = %v, want location diagnostic", rec.Warnings)
	}
	if rec.TotalAssets.Value == nil || *rec.TotalAssets.Value != 13432 {
		t.Errorf("TotalAssets = %v, want 13432 kept on the failed record", rec.TotalAssets.Value)
	}
}

func TestRunEmptyView(t *testing.T) {
	runner := NewRunner(schema.Default(), nil)
	rec := runner.Run(context.Background(), &document.View{}, 0)
	if rec.Status != extract.StatusFailed {
		t.Errorf("Status = %s, want failed for empty view", rec.Status)
	}
	rec = runner.Run(context.Background(), nil, 0)
	if rec.Status != extract.StatusFailed {
		t.Errorf("Status = %s, want failed for nil view", rec.Status)
	}
}

func TestDetectReportingYear(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"Cover line", "Annual Report 2024", 2024},
		{"Lowercase", "annual report 2021", 2021},
		{"Embedded", "Pension Fund — Annual Report 2020 (audited)", 2020},
		{"No year", "Annual Report", 0},
		{"Unrelated", "Balance sheet", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &document.View{Lines: []document.Line{{Text: tt.text, Page: 1}}}
			if got := DetectReportingYear(view); got != tt.want {
				t.Errorf("DetectReportingYear(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestRunWithStorePriorYear(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRecordStore(nil, t.TempDir())
	runner := NewRunner(schema.Default(), repo)

	rec2023 := runner.Run(ctx, annualReport(2023, 13083, 13149), 0)
	if rec2023.Status != extract.StatusOK {
		t.Fatalf("2023 status = %s, want ok; warnings: %v", rec2023.Status, rec2023.Warnings)
	}

	// The 2024 run reads the persisted 2023 total for its relative band.
	rec2024 := runner.Run(ctx, annualReport(2024, 13432, 13083), 0)
	if rec2024.Status != extract.StatusOK {
		t.Fatalf("2024 status = %s, want ok; warnings: %v", rec2024.Status, rec2024.Warnings)
	}

	stored, err := repo.Load(ctx, 2024)
	if err != nil || stored == nil {
		t.Fatalf("Load(2024) = %v, %v, want persisted record", stored, err)
	}
	if *stored.TotalAssets.Value != 13432 {
		t.Errorf("persisted total = %v, want 13432", *stored.TotalAssets.Value)
	}
}

func TestRunBatch(t *testing.T) {
	runner := NewRunner(schema.Default(), nil)
	items := []BatchItem{
		{Name: "report_2022", View: annualReport(2022, 13149, 14572)},
		{Name: "report_2023", View: annualReport(2023, 13083, 13149)},
		{Name: "report_2024", View: annualReport(2024, 13432, 13083)},
	}

	result := runner.RunBatch(context.Background(), items, 2)
	if result.RunID == "" {
		t.Error("RunID empty")
	}
	if len(result.Records) != len(items) {
		t.Fatalf("Records = %d, want %d", len(result.Records), len(items))
	}
	// Input order is preserved regardless of worker scheduling.
	for i, wantYear := range []int{2022, 2023, 2024} {
		if result.Names[i] != items[i].Name {
			t.Errorf("Names[%d] = %q, want %q", i, result.Names[i], items[i].Name)
		}
		if result.Records[i].ReportingYear != wantYear {
			t.Errorf("Records[%d].ReportingYear = %d, want %d", i, result.Records[i].ReportingYear, wantYear)
		}
	}
}

func TestRunBatchCancelled(t *testing.T) {
	runner := NewRunner(schema.Default(), nil)
	items := []BatchItem{
		{Name: "report_2022", View: annualReport(2022, 13149, 14572)},
		{Name: "report_2023", View: annualReport(2023, 13083, 13149)},
		{Name: "report_2024", View: annualReport(2024, 13432, 13083)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := runner.RunBatch(ctx, items, 1)
	if len(result.Records) != len(items) {
		t.Fatalf("Records = %d, want %d", len(result.Records), len(items))
	}
	// Every slot carries a terminal status, processed or not.
	valid := map[extract.Status]bool{
		extract.StatusOK:            true,
		extract.StatusLowConfidence: true,
		extract.StatusFailed:        true,
	}
	for i, rec := range result.Records {
		if !valid[rec.Status] {
			t.Errorf("Records[%d].Status = %q, want a terminal status", i, rec.Status)
		}
		if result.Names[i] != items[i].Name {
			t.Errorf("Names[%d] = %q, want %q", i, result.Names[i], items[i].Name)
		}
		if rec.Status == extract.StatusFailed && rec.ReportingYear == 0 {
			if !hasWarning(rec.Warnings, "cancelled") {
				t.Errorf("Records[%d].Warnings = %v, want cancellation diagnostic", i, rec.Warnings)
			}
		}
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
