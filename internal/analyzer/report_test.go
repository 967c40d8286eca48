package analyzer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finlint/internal/config"
	"finlint/internal/models"
)

func sampleReport(t *testing.T) *models.BatchReport {
	t.Helper()
	e := NewEngine()
	results := []models.ScanResult{
		e.ScanSource(loopSource, models.LanguageUnknown, "jobs/sync.py"),
		e.ScanSource("hello world", models.LanguageUnknown, "notes"),
	}
	return BuildReport(results, 15*time.Millisecond)
}

func plainConfig(format string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.Format = format
	cfg.Output.Colors = false
	return cfg
}

func TestBuildReport(t *testing.T) {
	report := sampleReport(t)
	assert.Equal(t, 2, report.FilesScanned)
	assert.Equal(t, 1, report.FilesWithFindings)
	assert.Equal(t, 2, report.TotalFindings)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, "15ms", report.DurationText)
	assert.InDelta(t, 0.2+0.01, report.Summary.TotalPerExecutionCost, 1e-9)
	assert.InDelta(t, 6.3, report.Summary.TotalMonthlyCost, 1e-9)
	assert.Equal(t, 2, report.Summary.SeverityCounts.Low)
}

func TestConsoleReportPlain(t *testing.T) {
	out := NewReportGeneratorWithConfig(plainConfig("console")).Generate(sampleReport(t))

	assert.Contains(t, out, "finlint Cost Risk Report")
	assert.Contains(t, out, "jobs/sync.py (python")
	assert.Contains(t, out, "Financial Bug Detected - HIGH PY001 Database Call in Loop")
	assert.Contains(t, out, `Line 5: item = table.get_item(Key={"id": item_id})`)
	assert.Contains(t, out, "Estimated cost: ₹0.2000 per execution -> ₹6.00/month (100 iterations assumed)")
	assert.Contains(t, out, "Suggestion: Use JOIN or IN query")
	assert.Contains(t, out, "Error [detection_failure]: Could not detect programming language")
	assert.Contains(t, out, "Findings: 2")
	assert.Contains(t, out, "Note: Approximate estimate for awareness, not exact billing.")
	assert.NotContains(t, out, "\x1b[")
}

func TestConsoleReportHidesCostAndSuggestions(t *testing.T) {
	cfg := plainConfig("console")
	cfg.Output.ShowCost = false
	cfg.Output.ShowSuggestions = false
	out := NewReportGeneratorWithConfig(cfg).Generate(sampleReport(t))
	assert.NotContains(t, out, "Estimated cost:")
	assert.NotContains(t, out, "Suggestion:")
}

func TestConsoleReportNoFindings(t *testing.T) {
	report := BuildReport([]models.ScanResult{
		NewEngine().ScanSource("x = 1\n", models.LanguagePython, "a.py"),
	}, time.Millisecond)
	out := NewReportGeneratorWithConfig(plainConfig("console")).Generate(report)
	assert.Contains(t, out, "No cost risks detected!")
	assert.NotContains(t, out, "a.py")
}

func TestJSONReport(t *testing.T) {
	out := NewReportGeneratorWithConfig(plainConfig("json")).Generate(sampleReport(t))

	var doc struct {
		Results []struct {
			FilePath string `json:"file_path"`
			Findings []struct {
				RuleID        string `json:"rule_id"`
				Severity      string `json:"severity"`
				EstimatedCost struct {
					MonthlyCost float64 `json:"monthly_cost"`
					Severity    string  `json:"severity"`
				} `json:"estimated_cost"`
			} `json:"findings"`
			Error     *string `json:"error"`
			ErrorKind string  `json:"error_kind"`
		} `json:"results"`
		Summary struct {
			FindingsCount int `json:"findings_count"`
		} `json:"summary"`
		Totals struct {
			TotalFindings int `json:"total_findings"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "jobs/sync.py", doc.Results[0].FilePath)
	assert.Nil(t, doc.Results[0].Error)
	require.Len(t, doc.Results[0].Findings, 2)
	assert.Equal(t, "high", doc.Results[0].Findings[0].Severity)
	assert.Equal(t, "low", doc.Results[0].Findings[0].EstimatedCost.Severity)
	assert.InDelta(t, 6.0, doc.Results[0].Findings[0].EstimatedCost.MonthlyCost, 1e-9)
	require.NotNil(t, doc.Results[1].Error)
	assert.Equal(t, "detection_failure", doc.Results[1].ErrorKind)
	assert.Empty(t, doc.Results[1].Findings)
	assert.Equal(t, 2, doc.Summary.FindingsCount)
	assert.Equal(t, 2, doc.Totals.TotalFindings)
}

func TestSARIFReport(t *testing.T) {
	out := NewReportGeneratorWithConfig(plainConfig("sarif")).Generate(sampleReport(t))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID string `json:"ruleId"`
				Level  string `json:"level"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	assert.Equal(t, ToolName, doc.Runs[0].Tool.Driver.Name)
	assert.Equal(t, ToolVersion, doc.Runs[0].Tool.Driver.Version)
	require.Len(t, doc.Runs[0].Results, 2)
	assert.Equal(t, "PY001", doc.Runs[0].Results[0].RuleID)
	assert.Equal(t, "error", doc.Runs[0].Results[0].Level)
	assert.Equal(t, "warning", doc.Runs[0].Results[1].Level)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	long := strings.Repeat("a", 100)
	got := truncate(long, 80)
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))
}
