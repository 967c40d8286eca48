// Package sarif renders findings as a SARIF 2.1.0 log for code scanning
// integrations.
package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"finlint/internal/cost"
	"finlint/internal/models"
)

const (
	Version = "2.1.0"
	Schema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool              Tool               `json:"tool"`
	AutomationDetails *AutomationDetails `json:"automationDetails,omitempty"`
	Results           []Result           `json:"results"`
	Invocations       []Invocation       `json:"invocations,omitempty"`
}

type AutomationDetails struct {
	ID string `json:"id"`
}

type Invocation struct {
	ExecutionSuccessful        bool           `json:"executionSuccessful"`
	ToolExecutionNotifications []Notification `json:"toolExecutionNotifications,omitempty"`
}

type Notification struct {
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules,omitempty"`
}

type Rule struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ShortDescription Message `json:"shortDescription"`
	Help             Message `json:"help"`
}

type Result struct {
	RuleID     string         `json:"ruleId"`
	Message    Message        `json:"message"`
	Level      string         `json:"level"` // error, warning, note
	Locations  []Location     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int      `json:"startLine"`
	Snippet   *Message `json:"snippet,omitempty"`
}

// Build converts a batch report into a SARIF log. Scan errors are reported
// as tool execution notifications.
func Build(report *models.BatchReport, toolName, toolVersion string) Log {
	findings := report.Findings()
	SortFindings(findings)

	results := make([]Result, 0, len(findings))
	var rules []Rule
	seenRules := make(map[string]bool)
	for _, f := range findings {
		if !seenRules[f.RuleID] {
			seenRules[f.RuleID] = true
			rules = append(rules, Rule{
				ID:               f.RuleID,
				Name:             f.RuleName,
				ShortDescription: Message{Text: f.RuleName},
				Help:             Message{Text: f.Suggestion},
			})
		}
		results = append(results, toResult(f))
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	invocation := Invocation{ExecutionSuccessful: report.ErrorCount == 0}
	for _, r := range report.Results {
		if r.Err == nil {
			continue
		}
		invocation.ToolExecutionNotifications = append(invocation.ToolExecutionNotifications, Notification{
			Level:     "error",
			Message:   Message{Text: fmt.Sprintf("%s: %s", r.Err.Kind, r.Err.Error())},
			Locations: []Location{location(r.FilePath, 1, "")},
		})
	}

	run := Run{
		Tool: Tool{Driver: Driver{
			Name:    toolName,
			Version: toolVersion,
			Rules:   rules,
		}},
		Results:     results,
		Invocations: []Invocation{invocation},
	}
	if report.RunID != "" {
		run.AutomationDetails = &AutomationDetails{ID: toolName + "/" + report.RunID}
	}
	return Log{Version: Version, Schema: Schema, Runs: []Run{run}}
}

// Marshal renders the log as indented JSON.
func Marshal(log Log) ([]byte, error) {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sarif: %w", err)
	}
	return data, nil
}

func toResult(f models.Finding) Result {
	text := strings.TrimSpace(f.Description)
	props := map[string]any{"category": string(f.Category)}
	if f.CostEstimate != nil {
		text = fmt.Sprintf("%s Estimated cost: %s per execution, %s per month.",
			text, cost.FormatCost(f.CostEstimate.PerExecutionCost), cost.FormatCost(f.CostEstimate.MonthlyCost))
		props["monthly_cost"] = f.CostEstimate.MonthlyCost
		props["per_execution_cost"] = f.CostEstimate.PerExecutionCost
	}
	return Result{
		RuleID:     f.RuleID,
		Level:      sevToLevel(f.Severity),
		Message:    Message{Text: text},
		Locations:  []Location{location(f.FilePath, f.LineNumber, f.LineContent)},
		Properties: props,
	}
}

func location(path string, line int, snippet string) Location {
	uri := toURI(path)
	if uri == "" {
		uri = "UNKNOWN"
	}
	if line <= 0 {
		line = 1
	}
	region := Region{StartLine: line}
	if snippet != "" {
		region.Snippet = &Message{Text: snippet}
	}
	return Location{PhysicalLocation: PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: uri},
		Region:           region,
	}}
}

func SortFindings(fs []models.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].FilePath == fs[j].FilePath {
			if fs[i].LineNumber == fs[j].LineNumber {
				return fs[i].RuleID < fs[j].RuleID
			}
			return fs[i].LineNumber < fs[j].LineNumber
		}
		return fs[i].FilePath < fs[j].FilePath
	})
}

func sevToLevel(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}
