package detectors

import (
	"finlint/internal/cost"
	"finlint/internal/models"
	"finlint/internal/rules"
)

// LexicalScanner analyzes brace-delimited languages as plain text.
type LexicalScanner struct {
	tables    *rules.Tables
	loops     LoopScopeDetector
	hot       HotPathDetector
	estimator *cost.Estimator
}

func NewLexicalScanner(tables *rules.Tables, loops LoopScopeDetector, estimator *cost.Estimator) *LexicalScanner {
	return &LexicalScanner{
		tables:    tables,
		loops:     loops,
		hot:       NewHotPathDetector(tables.HotPath),
		estimator: estimator,
	}
}

func NewJavaScriptScanner(tables *rules.Tables, estimator *cost.Estimator) *LexicalScanner {
	return NewLexicalScanner(tables, LoopScopeFor(models.LanguageJavaScript), estimator)
}

func NewJavaScanner(tables *rules.Tables, estimator *cost.Estimator) *LexicalScanner {
	return NewLexicalScanner(tables, LoopScopeFor(models.LanguageJava), estimator)
}

func (s *LexicalScanner) Scan(source, filePath string) ([]models.Finding, error) {
	inLoop, err := s.loops.LinesInLoop(source)
	if err != nil {
		return nil, err
	}
	lines := splitLines(source)
	sink := newFindingSink(filePath, lines, s.estimator)

	for i, line := range lines {
		calls := ExtractCalls(line)
		if len(calls) == 0 {
			continue
		}
		idx := i
		hot := memoHot(func() bool { return s.hot.IsHot(lines, idx) })
		for _, call := range calls {
			sink.matchUnbounded(s.tables, call, i, hot)
			if inLoop.Has(i) {
				sink.matchLoopConcerns(s.tables, call, i, hot)
			}
		}
	}
	return sink.findings, nil
}
