// Package rules holds the static pattern tables used to recognise
// cost-bearing call sites, together with the matching policy.
package rules

import (
	"fmt"
	"strings"

	"finlint/internal/models"
)

// Concern groups rules that are matched independently of each other.
type Concern string

const (
	ConcernDataAccess     Concern = "data_access"
	ConcernOutboundCall   Concern = "outbound_call"
	ConcernSerialization  Concern = "serialization"
	ConcernUnboundedQuery Concern = "unbounded_query"
)

// LoopConcerns are the concerns that only apply inside iteration bodies.
var LoopConcerns = []Concern{ConcernDataAccess, ConcernOutboundCall, ConcernSerialization}

// PatternRule binds a (receiver, method) pattern to the finding it produces.
// An empty Receiver matches any receiver.
type PatternRule struct {
	Receiver     string
	Method       string
	Label        string
	RuleID       string
	RuleName     string
	Category     models.Category
	BaseSeverity models.Severity
	Template     string
	Suggestion   string
}

// Description renders the rule template with the pattern label.
func (r PatternRule) Description() string {
	return fmt.Sprintf(r.Template, r.Label)
}

// Constructor is the receiver recorded for `new X(...)` expressions.
const Constructor = "new"

// Matches applies the bidirectional containment policy. Both sides are
// expected to be lower case already. Constructor calls only match rules
// written for constructors.
func (r PatternRule) Matches(receiver, method string) bool {
	if receiver == Constructor && r.Receiver != Constructor {
		return false
	}
	return Match(r.Receiver, r.Method, receiver, method)
}

// Match reports whether a call signature matches a pattern: the method
// pattern and the method contain one another, and the receiver pattern is
// empty or the receiver pattern and the receiver contain one another.
func Match(receiverPattern, methodPattern, receiver, method string) bool {
	if !(strings.Contains(method, methodPattern) || strings.Contains(methodPattern, method)) {
		return false
	}
	return receiverPattern == "" ||
		strings.Contains(receiver, receiverPattern) ||
		strings.Contains(receiverPattern, receiver)
}

// FirstMatch returns the first rule in table order matching the signature.
func FirstMatch(table []PatternRule, receiver, method string) (PatternRule, bool) {
	for _, r := range table {
		if r.Matches(receiver, method) {
			return r, true
		}
	}
	return PatternRule{}, false
}

type ruleMeta struct {
	id         string
	name       string
	category   models.Category
	severity   models.Severity
	template   string
	suggestion string
}

type pattern struct {
	receiver, method, label string
}

// expand binds a list of patterns to shared rule metadata.
func expand(meta ruleMeta, patterns ...pattern) []PatternRule {
	out := make([]PatternRule, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, PatternRule{
			Receiver:     p.receiver,
			Method:       p.method,
			Label:        p.label,
			RuleID:       meta.id,
			RuleName:     meta.name,
			Category:     meta.category,
			BaseSeverity: meta.severity,
			Template:     meta.template,
			Suggestion:   meta.suggestion,
		})
	}
	return out
}

// onReceivers repeats each method pattern for every receiver, method first.
func onReceivers(receivers []string, methods ...pattern) []pattern {
	out := make([]pattern, 0, len(receivers)*len(methods))
	for _, m := range methods {
		for _, r := range receivers {
			out = append(out, pattern{r, m.method, m.label})
		}
	}
	return out
}

// withCategory returns a copy of meta with a different category.
func (m ruleMeta) withCategory(c models.Category) ruleMeta {
	m.category = c
	return m
}

func concat(tables ...[]PatternRule) []PatternRule {
	var n int
	for _, t := range tables {
		n += len(t)
	}
	out := make([]PatternRule, 0, n)
	for _, t := range tables {
		out = append(out, t...)
	}
	return out
}
