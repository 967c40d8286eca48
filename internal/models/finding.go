package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts the lower or upper case severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", name)
	}
}

// Escalate raises medium to high. Low and high are returned unchanged.
func (s Severity) Escalate() Severity {
	if s == SeverityMedium {
		return SeverityHigh
	}
	return s
}

// Category classifies the resource impact of a call site.
type Category string

const (
	CategoryDataRead      Category = "data_read"
	CategoryDataWrite     Category = "data_write"
	CategoryOutboundCall  Category = "outbound_call"
	CategorySerialization Category = "serialization"
)

// Categories lists every cost category in display order.
var Categories = []Category{
	CategoryDataRead,
	CategoryDataWrite,
	CategoryOutboundCall,
	CategorySerialization,
}

type CostEstimate struct {
	Category         Category `json:"category"`
	UnitCost         float64  `json:"unit_cost"`
	Iterations       int      `json:"iterations"`
	PerExecutionCost float64  `json:"per_execution_cost"`
	MonthlyCost      float64  `json:"monthly_cost"`
	Severity         Severity `json:"severity"`
}

// Finding is one cost-risk pattern at a source location.
// Severity and CostEstimate.Severity are computed independently and may differ.
type Finding struct {
	FilePath     string        `json:"file_path"`
	LineNumber   int           `json:"line_number"`
	LineContent  string        `json:"line_content"`
	RuleID       string        `json:"rule_id"`
	RuleName     string        `json:"rule_name"`
	Description  string        `json:"description"`
	Severity     Severity      `json:"severity"`
	Category     Category      `json:"category"`
	Suggestion   string        `json:"suggestion"`
	CostEstimate *CostEstimate `json:"estimated_cost"`
}

// ScanResult is the outcome of scanning one source unit. Err and an empty
// Findings slice are not mutually exclusive.
type ScanResult struct {
	FilePath     string
	Language     Language
	Findings     []Finding
	ScanDuration time.Duration
	Err          *ScanError
}

type scanResultJSON struct {
	FilePath      string    `json:"file_path"`
	Language      Language  `json:"language"`
	Findings      []Finding `json:"findings"`
	FindingsCount int       `json:"findings_count"`
	ScanTimeMS    float64   `json:"scan_time_ms"`
	Error         *string   `json:"error"`
	ErrorKind     *string   `json:"error_kind,omitempty"`
}

func (r ScanResult) MarshalJSON() ([]byte, error) {
	out := scanResultJSON{
		FilePath:      r.FilePath,
		Language:      r.Language,
		Findings:      r.Findings,
		FindingsCount: len(r.Findings),
		ScanTimeMS:    float64(r.ScanDuration.Microseconds()) / 1000,
	}
	if out.Findings == nil {
		out.Findings = []Finding{}
	}
	if r.Err != nil {
		msg := r.Err.Error()
		kind := string(r.Err.Kind)
		out.Error = &msg
		out.ErrorKind = &kind
	}
	return json.Marshal(out)
}

func (r *ScanResult) UnmarshalJSON(data []byte) error {
	var in scanResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = ScanResult{
		FilePath:     in.FilePath,
		Language:     in.Language,
		Findings:     in.Findings,
		ScanDuration: time.Duration(in.ScanTimeMS * float64(time.Millisecond)),
	}
	if in.Error != nil {
		kind := ErrorKind("")
		if in.ErrorKind != nil {
			kind = ErrorKind(*in.ErrorKind)
		}
		r.Err = &ScanError{Kind: kind, Message: *in.Error}
	}
	return nil
}

// HasFindingAtOrAbove reports whether any finding reaches the given severity.
func (r *ScanResult) HasFindingAtOrAbove(min Severity) bool {
	for _, f := range r.Findings {
		if f.Severity >= min {
			return true
		}
	}
	return false
}

// SeverityCounts always carries the three buckets, even when zero.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	default:
		c.Low++
	}
}

// Summary is derived from a sequence of cost estimates and never stored.
type Summary struct {
	TotalPerExecutionCost float64        `json:"total_per_execution_cost"`
	TotalMonthlyCost      float64        `json:"total_monthly_cost"`
	SeverityCounts        SeverityCounts `json:"severity_counts"`
	FindingsCount         int            `json:"findings_count"`
	Disclaimer            string         `json:"disclaimer"`
}
