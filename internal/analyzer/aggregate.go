package analyzer

import (
	"time"

	"github.com/google/uuid"

	"finlint/internal/cost"
	"finlint/internal/models"
)

// BuildReport aggregates per-file results into a batch report.
func BuildReport(results []models.ScanResult, elapsed time.Duration) *models.BatchReport {
	report := &models.BatchReport{
		RunID:        uuid.NewString(),
		Results:      results,
		FilesScanned: len(results),
		Duration:     elapsed,
		DurationText: elapsed.Round(time.Millisecond).String(),
	}
	for _, r := range results {
		if r.Err != nil {
			report.ErrorCount++
		}
		if len(r.Findings) > 0 {
			report.FilesWithFindings++
		}
		report.TotalFindings += len(r.Findings)
	}
	report.Summary = cost.SummarizeFindings(report.Findings())
	return report
}

// Summarize is the per-result summary.
func Summarize(result models.ScanResult) models.Summary {
	return cost.SummarizeFindings(result.Findings)
}
