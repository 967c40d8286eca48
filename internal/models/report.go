package models

import "time"

// BatchReport rolls up the results of one multi-unit scan.
type BatchReport struct {
	RunID             string        `json:"run_id"`
	Results           []ScanResult  `json:"results"`
	FilesScanned      int           `json:"files_scanned"`
	FilesWithFindings int           `json:"files_with_findings"`
	TotalFindings     int           `json:"total_findings"`
	ErrorCount        int           `json:"error_count"`
	Summary           Summary       `json:"summary"`
	Duration          time.Duration `json:"-"`
	DurationText      string        `json:"duration"`
}

// Findings flattens findings across results, preserving result order.
func (b *BatchReport) Findings() []Finding {
	out := make([]Finding, 0, b.TotalFindings)
	for _, r := range b.Results {
		out = append(out, r.Findings...)
	}
	return out
}
