package rules

import (
	"regexp"
	"slices"
	"strings"

	"finlint/internal/models"
)

// Tables is the complete rule set for one language. Values returned by For
// are shared and must not be modified; use Without to derive a filtered copy.
type Tables struct {
	Language       models.Language
	DataAccess     []PatternRule
	OutboundCall   []PatternRule
	Serialization  []PatternRule
	UnboundedQuery []PatternRule
	HotPath        HotPathMarkers
}

// HotPathMarkers describes the signals that put a call site on a hot path.
type HotPathMarkers struct {
	// Window is how many preceding lines are inspected.
	Window int
	// Annotations match route, handler or scheduling markers on a line.
	Annotations []*regexp.Regexp
	// Definitions match a function definition and capture its name in group 1.
	Definitions []*regexp.Regexp
	// Keywords are matched as case-insensitive substrings of a function name.
	Keywords []string
	// Names match a function name directly.
	Names []*regexp.Regexp
}

// HotName reports whether a function name marks a hot path.
func (m HotPathMarkers) HotName(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, kw := range m.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, re := range m.Names {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Table returns the rules for a concern.
func (t *Tables) Table(c Concern) []PatternRule {
	switch c {
	case ConcernDataAccess:
		return t.DataAccess
	case ConcernOutboundCall:
		return t.OutboundCall
	case ConcernSerialization:
		return t.Serialization
	case ConcernUnboundedQuery:
		return t.UnboundedQuery
	}
	return nil
}

// Without returns a copy of t with the given concerns emptied and the given
// rule ids removed. t itself is left untouched.
func (t *Tables) Without(concerns []Concern, ruleIDs []string) *Tables {
	keep := func(c Concern, table []PatternRule) []PatternRule {
		if slices.Contains(concerns, c) {
			return nil
		}
		out := make([]PatternRule, 0, len(table))
		for _, r := range table {
			if !slices.Contains(ruleIDs, r.RuleID) {
				out = append(out, r)
			}
		}
		return out
	}
	return &Tables{
		Language:       t.Language,
		DataAccess:     keep(ConcernDataAccess, t.DataAccess),
		OutboundCall:   keep(ConcernOutboundCall, t.OutboundCall),
		Serialization:  keep(ConcernSerialization, t.Serialization),
		UnboundedQuery: keep(ConcernUnboundedQuery, t.UnboundedQuery),
		HotPath:        t.HotPath,
	}
}

// RuleIDs lists the distinct rule ids in the tables, in table order.
func (t *Tables) RuleIDs() []string {
	var ids []string
	for _, table := range [][]PatternRule{t.DataAccess, t.OutboundCall, t.Serialization, t.UnboundedQuery} {
		for _, r := range table {
			if !slices.Contains(ids, r.RuleID) {
				ids = append(ids, r.RuleID)
			}
		}
	}
	return ids
}

// For returns the shared tables of a language, or nil if unsupported.
func For(lang models.Language) *Tables {
	switch lang {
	case models.LanguagePython:
		return pythonTables
	case models.LanguageJavaScript:
		return javascriptTables
	case models.LanguageJava:
		return javaTables
	}
	return nil
}

// PaginationKeywords mark a query string as bounded.
var PaginationKeywords = []string{
	"limit", "offset", "top", "fetch", "first", "take",
	"page", "paginate", "pagination", "slice", "[:",
}

// HasPagination reports whether a lower-cased query mentions pagination.
func HasPagination(query string) bool {
	for _, kw := range PaginationKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

var baseHotKeywords = []string{
	"handle", "handler", "process", "controller", "endpoint",
	"route", "view", "api", "webhook", "lambda_handler",
	"main", "run", "execute", "dispatch", "serve",
}

func hotKeywords(extra ...string) []string {
	return append(slices.Clone(baseHotKeywords), extra...)
}

func mustCompile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
