package detectors

import (
	"regexp"
	"sort"
	"strings"

	"finlint/internal/models"
)

// LineSet holds zero-based line indices.
type LineSet map[int]struct{}

func (s LineSet) Has(line int) bool {
	_, ok := s[line]
	return ok
}

func (s LineSet) add(line int) {
	s[line] = struct{}{}
}

// Sorted returns the indices in ascending order.
func (s LineSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// LoopScopeDetector reports which lines of a source lie inside an
// iteration body.
type LoopScopeDetector interface {
	LinesInLoop(source string) (LineSet, error)
}

// LoopScopeFor selects the detector variant for a language.
func LoopScopeFor(lang models.Language) LoopScopeDetector {
	switch lang {
	case models.LanguagePython:
		return PythonLoopScope{}
	case models.LanguageJavaScript:
		return NewBraceDepthDetector(JavaScriptLoopStarts)
	case models.LanguageJava:
		return NewBraceDepthDetector(JavaLoopStarts)
	}
	return nil
}

type loopKind int

const (
	// keywordLoop has a parenthesised header, e.g. for (...) or while (...).
	keywordLoop loopKind = iota
	// callLoop iterates through a higher-order call such as .map(...).
	callLoop
	// blockLoop opens a body without a header, e.g. do { ... }.
	blockLoop
)

// LoopStart is a lexical pattern that opens an iteration construct.
type LoopStart struct {
	Pattern *regexp.Regexp
	Kind    loopKind
}

// Call loops are listed first so the inline check sees the call's parens.
var JavaScriptLoopStarts = []LoopStart{
	{regexp.MustCompile(`\.(forEach|map|flatMap|filter|reduce|reduceRight|some|every|findIndex)\s*\(`), callLoop},
	{regexp.MustCompile(`\bfor\s*(await\s*)?\(`), keywordLoop},
	{regexp.MustCompile(`\bwhile\s*\(`), keywordLoop},
	{regexp.MustCompile(`\bdo\s*(\{|$)`), blockLoop},
}

var JavaLoopStarts = []LoopStart{
	{regexp.MustCompile(`\.forEach\s*\(`), callLoop},
	{regexp.MustCompile(`\.(parallelStream|stream)\s*\(\s*\)\s*\.\s*\w+\s*\(`), callLoop},
	{regexp.MustCompile(`\bfor\s*\(`), keywordLoop},
	{regexp.MustCompile(`\bwhile\s*\(`), keywordLoop},
	{regexp.MustCompile(`\bdo\s*(\{|$)`), blockLoop},
}

// BraceDepthDetector is the lexical loop-scope variant. It tracks brace
// depth line by line and treats a loop as closed once the depth drops below
// the depth of the loop body. A call loop also closes with its argument
// list, so a callback without braces can span lines. Braces inside strings
// and comments are counted like any other brace.
type BraceDepthDetector struct {
	starts []LoopStart
}

func NewBraceDepthDetector(starts []LoopStart) *BraceDepthDetector {
	return &BraceDepthDetector{starts: starts}
}

func (d *BraceDepthDetector) LinesInLoop(source string) (LineSet, error) {
	return d.scan(splitLines(source)), nil
}

// openLoop is an entry on the scope stack. parenFloor is zero unless the
// loop is a call.
type openLoop struct {
	braceFloor int
	parenFloor int
}

func (d *BraceDepthDetector) scan(lines []string) LineSet {
	inLoop := make(LineSet)
	var open []openLoop
	depth, parens := 0, 0

	for i, line := range lines {
		startDepth := depth
		pushedAt := -1
		inline := false

		code := maskLine(line)
		if start, loc, ok := d.loopStart(code); ok {
			loop := openLoop{braceFloor: startDepth + 1}
			if start.Kind == callLoop {
				call := strings.LastIndexByte(code[:loc[1]], '(')
				loop.parenFloor = parens + parenBalance(code[:call]) + 1
			}
			open = append(open, loop)
			pushedAt = len(open)
			inline = closesOnLine(code, start.Kind, loc)
		}

		if len(open) > 0 {
			inLoop.add(i)
		}

		for j := 0; j < len(line); j++ {
			switch line[j] {
			case '{':
				depth++
			case '}':
				depth--
				for len(open) > 0 && depth < open[len(open)-1].braceFloor {
					open = open[:len(open)-1]
				}
			}
			switch code[j] {
			case '(':
				parens++
			case ')':
				parens--
				for len(open) > 0 && open[len(open)-1].parenFloor > 0 && parens < open[len(open)-1].parenFloor {
					open = open[:len(open)-1]
				}
			}
		}

		// A loop whose whole body sits on its own line ends with that line.
		if inline && depth <= startDepth && len(open) == pushedAt {
			open = open[:len(open)-1]
		}
	}
	return inLoop
}

func (d *BraceDepthDetector) loopStart(code string) (LoopStart, []int, bool) {
	for _, s := range d.starts {
		if loc := s.Pattern.FindStringIndex(code); loc != nil {
			return s, loc, true
		}
	}
	return LoopStart{}, nil, false
}

// closesOnLine reports whether the loop opened at loc has no body beyond
// the current line.
func closesOnLine(code string, kind loopKind, loc []int) bool {
	switch kind {
	case callLoop:
		open := strings.LastIndexByte(code[:loc[1]], '(')
		return open >= 0 && matchParen(code, open) >= 0
	case keywordLoop:
		open := strings.IndexByte(code[loc[0]:], '(')
		if open < 0 {
			return false
		}
		end := matchParen(code, loc[0]+open)
		if end < 0 {
			return false
		}
		rest := strings.TrimSpace(code[end+1:])
		return rest != "" && !strings.HasPrefix(rest, "{")
	}
	return false
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1 if it is not closed on the line.
func matchParen(code string, open int) int {
	depth := 0
	for i := open; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parenBalance(code string) int {
	n := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '(':
			n++
		case ')':
			n--
		}
	}
	return n
}

func splitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(source, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
