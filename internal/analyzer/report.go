package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"finlint/internal/config"
	"finlint/internal/cost"
	"finlint/internal/models"
	"finlint/internal/sarif"

	"github.com/fatih/color"
)

// ToolName identifies finlint in machine-readable reports.
const ToolName = "finlint"

// ToolVersion is the one release version every surface reports. Release
// builds set it with -ldflags "-X finlint/internal/analyzer.ToolVersion=...".
var ToolVersion = "1.0.0"

const maxSnippetWidth = 80

// ReportGenerator handles formatting and displaying scan results
type ReportGenerator struct {
	format string
	config *config.Config
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(format string) *ReportGenerator {
	return &ReportGenerator{
		format: format,
		config: config.DefaultConfig(),
	}
}

func NewReportGeneratorWithConfig(cfg *config.Config) *ReportGenerator {
	return &ReportGenerator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from a batch report
func (r *ReportGenerator) Generate(report *models.BatchReport) string {
	switch r.format {
	case "json":
		return r.generateJSON(report)
	case "sarif":
		return r.generateSARIF(report)
	default:
		return r.generateConsole(report)
	}
}

type jsonTotals struct {
	RunID             string `json:"run_id"`
	FilesScanned      int    `json:"files_scanned"`
	FilesWithFindings int    `json:"files_with_findings"`
	TotalFindings     int    `json:"total_findings"`
	ErrorCount        int    `json:"error_count"`
	Duration          string `json:"duration"`
}

type jsonReport struct {
	Results []models.ScanResult `json:"results"`
	Summary models.Summary      `json:"summary"`
	Totals  jsonTotals          `json:"totals"`
}

// generateJSON passes findings and summaries through unchanged
func (r *ReportGenerator) generateJSON(report *models.BatchReport) string {
	out := jsonReport{
		Results: report.Results,
		Summary: report.Summary,
		Totals: jsonTotals{
			RunID:             report.RunID,
			FilesScanned:      report.FilesScanned,
			FilesWithFindings: report.FilesWithFindings,
			TotalFindings:     report.TotalFindings,
			ErrorCount:        report.ErrorCount,
			Duration:          report.DurationText,
		},
	}
	if out.Results == nil {
		out.Results = []models.ScanResult{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON report: %v", err)
	}
	return string(data) + "\n"
}

func (r *ReportGenerator) generateSARIF(report *models.BatchReport) string {
	data, err := sarif.Marshal(sarif.Build(report, ToolName, ToolVersion))
	if err != nil {
		return fmt.Sprintf("Error generating SARIF report: %v", err)
	}
	return string(data) + "\n"
}

// generateConsole creates a colorized console report
func (r *ReportGenerator) generateConsole(report *models.BatchReport) string {
	var out strings.Builder

	useColors := true
	verbose := false
	showSuggestions := true
	showCost := true

	if r.config != nil {
		useColors = r.config.Output.Colors
		verbose = r.config.Output.Verbose
		showSuggestions = r.config.Output.ShowSuggestions
		showCost = r.config.Output.ShowCost
	}

	prev := color.NoColor
	if !useColors {
		color.NoColor = true
		defer func() { color.NoColor = prev }()
	}

	// Header
	if useColors {
		out.WriteString(color.CyanString("💸 finlint Cost Risk Report\n"))
		out.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		out.WriteString("finlint Cost Risk Report\n")
		out.WriteString("=======================================\n\n")
	}

	if verbose && r.config != nil {
		r.writeConfigInfo(&out, useColors)
	}

	for _, result := range report.Results {
		if len(result.Findings) == 0 && result.Err == nil && !verbose {
			continue
		}
		r.writeResult(&out, result, useColors, showSuggestions, showCost)
	}

	if report.TotalFindings == 0 {
		if useColors {
			out.WriteString(color.GreenString("🎉 No cost risks detected!\n\n"))
		} else {
			out.WriteString("No cost risks detected!\n\n")
		}
	}

	r.writeSummaryWithColors(&out, report, useColors)

	if useColors {
		out.WriteString(color.WhiteString("Scan completed in %s\n", report.DurationText))
	} else {
		out.WriteString(fmt.Sprintf("Scan completed in %s\n", report.DurationText))
	}

	return out.String()
}

// getSeverityDisplay returns emoji and color function for a severity level
func (r *ReportGenerator) getSeverityDisplay(severity models.Severity) (string, func(a ...interface{}) string) {
	switch severity {
	case models.SeverityHigh:
		return "🚨", color.New(color.FgRed, color.Bold).SprintFunc()
	case models.SeverityMedium:
		return "⚠️", color.New(color.FgYellow).SprintFunc()
	case models.SeverityLow:
		return "ℹ️", color.New(color.FgBlue).SprintFunc()
	default:
		return "❓", color.New(color.FgWhite).SprintFunc()
	}
}

// CONFIG HELPERS
func (r *ReportGenerator) writeConfigInfo(out *strings.Builder, useColors bool) {
	languages := strings.Join(r.config.Analysis.Languages, ", ")
	iterations := fmt.Sprintf("%d", r.config.Cost.Iterations)
	if useColors {
		out.WriteString(color.WhiteString("📋 Configuration:\n"))
		out.WriteString(fmt.Sprintf("   Languages: %s\n", color.CyanString(languages)))
		out.WriteString(fmt.Sprintf("   Assumed iterations: %s\n", color.CyanString(iterations)))
	} else {
		out.WriteString("Configuration:\n")
		out.WriteString(fmt.Sprintf("   Languages: %s\n", languages))
		out.WriteString(fmt.Sprintf("   Assumed iterations: %s\n", iterations))
	}
	if len(r.config.Rules.DisabledRules) > 0 {
		out.WriteString(fmt.Sprintf("   Disabled rules: %s\n", strings.Join(r.config.Rules.DisabledRules, ", ")))
	}
	out.WriteString("\n")
}

func (r *ReportGenerator) writeResult(out *strings.Builder, result models.ScanResult, useColors, showSuggestions, showCost bool) {
	elapsed := fmt.Sprintf("%.2fms", float64(result.ScanDuration.Microseconds())/1000)
	if useColors {
		out.WriteString(color.New(color.Bold).Sprintf("📄 %s", result.FilePath))
		out.WriteString(color.WhiteString(" (%s, %s)\n", result.Language, elapsed))
	} else {
		out.WriteString(fmt.Sprintf("%s (%s, %s)\n", result.FilePath, result.Language, elapsed))
	}

	if result.Err != nil {
		msg := fmt.Sprintf("   Error [%s]: %s\n", result.Err.Kind, result.Err.Error())
		if useColors {
			out.WriteString(color.RedString(msg))
		} else {
			out.WriteString(msg)
		}
	}

	findings := make([]models.Finding, len(result.Findings))
	copy(findings, result.Findings)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity > findings[j].Severity
	})

	for _, f := range findings {
		r.writeFindingDetail(out, f, useColors, showSuggestions, showCost)
	}
	out.WriteString("\n")
}

func (r *ReportGenerator) writeFindingDetail(out *strings.Builder, f models.Finding, useColors, showSuggestions, showCost bool) {
	snippet := truncate(f.LineContent, maxSnippetWidth)
	if useColors {
		emoji, severityColor := r.getSeverityDisplay(f.Severity)
		out.WriteString(fmt.Sprintf("\n%s Financial Bug Detected - %s %s\n",
			emoji, severityColor(f.Severity.String()), color.WhiteString("%s %s", f.RuleID, f.RuleName)))
		out.WriteString(color.CyanString("   📍 Line %d: ", f.LineNumber))
		out.WriteString(color.HiBlackString("%s\n", snippet))
		out.WriteString(color.WhiteString("   💭 %s\n", f.Description))
		if showCost && f.CostEstimate != nil {
			out.WriteString(color.YellowString("   💰 Estimated cost: %s per execution → %s/month (%d iterations assumed)\n",
				cost.FormatCost(f.CostEstimate.PerExecutionCost),
				cost.FormatCost(f.CostEstimate.MonthlyCost),
				f.CostEstimate.Iterations))
		}
		if showSuggestions && f.Suggestion != "" {
			out.WriteString(color.GreenString("   💡 Suggestion: %s\n", f.Suggestion))
		}
		return
	}

	out.WriteString(fmt.Sprintf("\nFinancial Bug Detected - %s %s %s\n", f.Severity, f.RuleID, f.RuleName))
	out.WriteString(fmt.Sprintf("   Line %d: %s\n", f.LineNumber, snippet))
	out.WriteString(fmt.Sprintf("   %s\n", f.Description))
	if showCost && f.CostEstimate != nil {
		out.WriteString(fmt.Sprintf("   Estimated cost: %s per execution -> %s/month (%d iterations assumed)\n",
			cost.FormatCost(f.CostEstimate.PerExecutionCost),
			cost.FormatCost(f.CostEstimate.MonthlyCost),
			f.CostEstimate.Iterations))
	}
	if showSuggestions && f.Suggestion != "" {
		out.WriteString(fmt.Sprintf("   Suggestion: %s\n", f.Suggestion))
	}
}

func (r *ReportGenerator) writeSummaryWithColors(out *strings.Builder, report *models.BatchReport, useColors bool) {
	if useColors {
		out.WriteString(color.WhiteString("📊 Summary:\n"))
	} else {
		out.WriteString("Summary:\n")
	}
	out.WriteString(fmt.Sprintf("   Files scanned: %d\n", report.FilesScanned))
	out.WriteString(fmt.Sprintf("   Files with findings: %d\n", report.FilesWithFindings))
	out.WriteString(fmt.Sprintf("   Findings: %d\n", report.TotalFindings))
	if report.ErrorCount > 0 {
		out.WriteString(fmt.Sprintf("   Errors: %d\n", report.ErrorCount))
	}

	s := report.Summary
	if s.FindingsCount > 0 {
		severities := []models.Severity{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}
		counts := map[models.Severity]int{
			models.SeverityHigh:   s.SeverityCounts.High,
			models.SeverityMedium: s.SeverityCounts.Medium,
			models.SeverityLow:    s.SeverityCounts.Low,
		}
		out.WriteString("   Cost severity:\n")
		for _, severity := range severities {
			count := counts[severity]
			if count == 0 {
				continue
			}
			if useColors {
				emoji, colorFunc := r.getSeverityDisplay(severity)
				out.WriteString(fmt.Sprintf("      %s %s: %s\n", emoji, severity, colorFunc(fmt.Sprintf("%d", count))))
			} else {
				out.WriteString(fmt.Sprintf("      %s: %d\n", severity, count))
			}
		}
		out.WriteString(fmt.Sprintf("   Total per execution: %s\n", cost.FormatCost(s.TotalPerExecutionCost)))
		out.WriteString(fmt.Sprintf("   Total monthly: %s\n", cost.FormatCost(s.TotalMonthlyCost)))
	}
	out.WriteString(fmt.Sprintf("   Note: %s\n\n", s.Disclaimer))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
