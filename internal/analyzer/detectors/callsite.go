package detectors

import (
	"regexp"
	"strings"
)

// CallSite is the normalized signature of one call expression.
type CallSite struct {
	Receiver string
	Method   string
	// Query is the lower-cased first positional string argument, when it
	// could be read statically.
	Query    string
	HasQuery bool
}

var callPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*\s*\(`)

// notCalls are keywords that take a parenthesised operand.
var notCalls = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "synchronized": true,
	"super": true, "this": true, "with": true, "do": true, "else": true,
	"try": true, "throw": true, "assert": true, "await": true, "yield": true,
	"void": true, "delete": true, "in": true, "of": true, "instanceof": true,
}

// callPrefixes may directly precede a call without making it a declaration.
var callPrefixes = map[string]bool{
	"return": true, "await": true, "yield": true, "throw": true, "typeof": true,
	"else": true, "case": true, "in": true, "of": true,
	"do": true, "delete": true, "instanceof": true,
}

// ExtractCalls finds the call sites on one line of brace-delimited source.
// String contents and comments are ignored.
func ExtractCalls(line string) []CallSite {
	if isCommentLine(line) {
		return nil
	}
	code := maskLine(line)

	var calls []CallSite
	for _, loc := range callPattern.FindAllStringIndex(code, -1) {
		nameEnd := loc[0]
		for nameEnd < len(code) && isIdentByte(code[nameEnd]) {
			nameEnd++
		}
		name := code[loc[0]:nameEnd]
		if notCalls[name] {
			continue
		}
		receiver, ok := receiverBefore(code, loc[0])
		if !ok {
			continue
		}
		call := CallSite{Receiver: receiver, Method: strings.ToLower(name)}
		call.Query, call.HasQuery = stringArgument(line, loc[1])
		calls = append(calls, call)
	}
	return calls
}

// receiverBefore resolves the receiver of a call whose name starts at pos.
// It returns false when the text is not a call, such as a declaration, or
// when the receiver cannot be named, such as an indexed expression.
func receiverBefore(code string, pos int) (string, bool) {
	j := skipSpaceBack(code, pos-1)
	if j < 0 {
		return "", true
	}
	if code[j] == '.' {
		j--
		if j >= 0 && code[j] == '?' {
			j--
		}
		j = skipSpaceBack(code, j)
		if j < 0 {
			return "", false
		}
		switch {
		case isIdentByte(code[j]):
			return strings.ToLower(identBefore(code, j+1)), true
		case code[j] == ')':
			open := matchParenBack(code, j)
			if open < 0 {
				return "", false
			}
			k := skipSpaceBack(code, open-1)
			if k < 0 || !isIdentByte(code[k]) {
				return "", false
			}
			return strings.ToLower(identBefore(code, k+1)), true
		default:
			return "", false
		}
	}
	if isIdentByte(code[j]) {
		word := identBefore(code, j+1)
		if word == "new" {
			return "new", true
		}
		if callPrefixes[word] {
			return "", true
		}
		// Type or modifier before a name: a declaration, not a call.
		return "", false
	}
	return "", true
}

func identBefore(code string, end int) string {
	start := end
	for start > 0 && isIdentByte(code[start-1]) {
		start--
	}
	return code[start:end]
}

func skipSpaceBack(code string, i int) int {
	for i >= 0 && (code[i] == ' ' || code[i] == '\t') {
		i--
	}
	return i
}

func matchParenBack(code string, closeIdx int) int {
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch code[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// stringArgument reads a literal first argument starting after the opening
// parenthesis at pos. Template interpolations are dropped. An argument that
// is concatenated with something else is not static.
func stringArgument(line string, pos int) (string, bool) {
	i := pos
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) {
		return "", false
	}
	quote := line[i]
	if quote != '"' && quote != '\'' && quote != '`' {
		return "", false
	}

	var b strings.Builder
	closed := -1
	for k := i + 1; k < len(line); k++ {
		c := line[k]
		if c == '\\' && k+1 < len(line) {
			b.WriteByte(line[k+1])
			k++
			continue
		}
		if quote == '`' && c == '$' && k+1 < len(line) && line[k+1] == '{' {
			end := skipInterpolation(line, k+1)
			if end < 0 {
				return "", false
			}
			k = end
			continue
		}
		if c == quote {
			closed = k
			break
		}
		b.WriteByte(c)
	}
	if closed < 0 {
		return "", false
	}

	rest := strings.TrimLeft(line[closed+1:], " \t")
	if strings.HasPrefix(rest, "+") {
		return "", false
	}
	text := strings.ToLower(b.String())
	return text, text != ""
}

func skipInterpolation(line string, open int) int {
	depth := 0
	for k := open; k < len(line); k++ {
		switch line[k] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func isCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*")
}

// maskLine blanks string contents and comments while keeping byte offsets.
func maskLine(line string) string {
	b := []byte(line)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		if quote != 0 {
			switch {
			case c == '\\':
				b[i] = ' '
				if i+1 < len(b) {
					i++
					b[i] = ' '
				}
			case c == quote:
				quote = 0
			default:
				b[i] = ' '
			}
			continue
		}
		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for k := i; k < len(b); k++ {
				b[k] = ' '
			}
			return string(b)
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			k := i
			for ; k < len(b); k++ {
				if b[k] == '*' && k+1 < len(b) && b[k+1] == '/' {
					b[k], b[k+1] = ' ', ' '
					break
				}
				b[k] = ' '
			}
			i = k + 1
		}
	}
	return string(b)
}
