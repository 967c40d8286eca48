// Package detectors implements the per-language cost-risk scanners: loop
// scope, call-site matching, hot-path escalation and unbounded queries.
package detectors

import (
	"strings"

	"finlint/internal/cost"
	"finlint/internal/models"
	"finlint/internal/rules"
)

// Scanner finds cost-risk patterns in one already loaded source unit.
type Scanner interface {
	Scan(source, filePath string) ([]models.Finding, error)
}

// findingSink accumulates findings for one scan, keeping at most one loop
// finding per line and concern.
type findingSink struct {
	filePath  string
	lines     []string
	estimator *cost.Estimator
	seen      map[lineConcern]bool
	findings  []models.Finding
}

type lineConcern struct {
	line    int
	concern rules.Concern
}

func newFindingSink(filePath string, lines []string, estimator *cost.Estimator) *findingSink {
	return &findingSink{
		filePath:  filePath,
		lines:     lines,
		estimator: estimator,
		seen:      make(map[lineConcern]bool),
	}
}

// matchLoopConcerns checks one in-loop call against every loop concern.
func (s *findingSink) matchLoopConcerns(tables *rules.Tables, call CallSite, line int, hot func() bool) {
	for _, concern := range rules.LoopConcerns {
		key := lineConcern{line, concern}
		if s.seen[key] {
			continue
		}
		rule, ok := rules.FirstMatch(tables.Table(concern), call.Receiver, call.Method)
		if !ok {
			continue
		}
		s.seen[key] = true
		s.add(rule, line, hot())
	}
}

// matchUnbounded checks one call against the unbounded-query rules. Only the
// first matching pattern is considered, whether or not it reports.
func (s *findingSink) matchUnbounded(tables *rules.Tables, call CallSite, line int, hot func() bool) {
	rule, ok := rules.FirstMatch(tables.UnboundedQuery, call.Receiver, call.Method)
	if !ok || !call.HasQuery || rules.HasPagination(call.Query) {
		return
	}
	s.add(rule, line, hot())
}

func (s *findingSink) add(rule rules.PatternRule, line int, hot bool) {
	severity := rule.BaseSeverity
	if hot {
		severity = severity.Escalate()
	}
	var content string
	if line >= 0 && line < len(s.lines) {
		content = strings.TrimSpace(s.lines[line])
	}
	s.findings = append(s.findings, models.Finding{
		FilePath:     s.filePath,
		LineNumber:   line + 1,
		LineContent:  content,
		RuleID:       rule.RuleID,
		RuleName:     rule.RuleName,
		Description:  rule.Description(),
		Severity:     severity,
		Category:     rule.Category,
		Suggestion:   rule.Suggestion,
		CostEstimate: s.estimator.Estimate(rule.Category),
	})
}

// memoHot evaluates a hot-path check at most once.
func memoHot(check func() bool) func() bool {
	var done, hot bool
	return func() bool {
		if !done {
			hot, done = check(), true
		}
		return hot
	}
}
