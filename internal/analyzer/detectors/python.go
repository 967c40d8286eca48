package detectors

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	"go.uber.org/zap"

	"finlint/internal/cost"
	"finlint/internal/logging"
	"finlint/internal/models"
	"finlint/internal/rules"
)

// pythonLoopKinds are the syntax nodes whose body iterates.
var pythonLoopKinds = map[string]bool{
	"for_statement":            true,
	"while_statement":          true,
	"list_comprehension":       true,
	"dictionary_comprehension": true,
	"set_comprehension":        true,
	"generator_expression":     true,
}

// parsePython returns nil when the source does not parse cleanly.
func parsePython(source []byte) (*tree_sitter.Tree, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		return nil, fmt.Errorf("loading python grammar: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, nil
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, nil
	}
	return tree, nil
}

// PythonLoopScope is the structural loop-scope variant.
type PythonLoopScope struct{}

func (PythonLoopScope) LinesInLoop(source string) (LineSet, error) {
	tree, err := parsePython([]byte(source))
	if err != nil || tree == nil {
		return LineSet{}, err
	}
	defer tree.Close()
	return pythonLoopLines(tree.RootNode()), nil
}

func (PythonLoopScope) linesInTree(root *tree_sitter.Node) LineSet {
	return pythonLoopLines(root)
}

// treeLoopScope is a loop-scope detector that can reuse a tree the caller
// already parsed.
type treeLoopScope interface {
	linesInTree(root *tree_sitter.Node) LineSet
}

func pythonLoopLines(root *tree_sitter.Node) LineSet {
	lines := make(LineSet)
	walk(root, func(n *tree_sitter.Node) {
		if !pythonLoopKinds[n.Kind()] {
			return
		}
		start, end := n.StartPosition(), n.EndPosition()
		last := end.Row
		if end.Column == 0 && last > start.Row {
			last--
		}
		for row := start.Row; row <= last; row++ {
			lines.add(int(row))
		}
	})
	return lines
}

// walk visits n and its descendants in source order.
func walk(n *tree_sitter.Node, visit func(*tree_sitter.Node)) {
	visit(n)
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			walk(child, visit)
		}
	}
}

// PythonScanner analyzes Python through its syntax tree.
type PythonScanner struct {
	tables    *rules.Tables
	loops     LoopScopeDetector
	hot       HotPathDetector
	estimator *cost.Estimator
	logger    *zap.Logger
}

func NewPythonScanner(tables *rules.Tables, estimator *cost.Estimator, logger *zap.Logger) *PythonScanner {
	if logger == nil {
		logger = logging.L()
	}
	return &PythonScanner{
		tables:    tables,
		loops:     LoopScopeFor(models.LanguagePython),
		hot:       NewHotPathDetector(tables.HotPath),
		estimator: estimator,
		logger:    logger,
	}
}

// Scan returns no findings and no error for source that does not parse.
func (s *PythonScanner) Scan(source, filePath string) ([]models.Finding, error) {
	src := []byte(source)
	tree, err := parsePython(src)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		s.logger.Debug("python source not parseable, skipping", zap.String("file", filePath))
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	lines := splitLines(source)
	inLoop, err := s.loopLines(source, root)
	if err != nil {
		return nil, err
	}
	sink := newFindingSink(filePath, lines, s.estimator)

	walk(root, func(n *tree_sitter.Node) {
		if n.Kind() != "call" {
			return
		}
		call, ok := pythonCallSite(n, src)
		if !ok {
			return
		}
		line := int(n.StartPosition().Row)
		hot := memoHot(func() bool { return s.isHot(n, src, lines, line) })
		sink.matchUnbounded(s.tables, call, line, hot)
		if inLoop.Has(line) {
			sink.matchLoopConcerns(s.tables, call, line, hot)
		}
	})
	return sink.findings, nil
}

func (s *PythonScanner) loopLines(source string, root *tree_sitter.Node) (LineSet, error) {
	if t, ok := s.loops.(treeLoopScope); ok {
		return t.linesInTree(root), nil
	}
	return s.loops.LinesInLoop(source)
}

// isHot checks the innermost enclosing function and its decorators, then
// falls back to annotations in the preceding window.
func (s *PythonScanner) isHot(call *tree_sitter.Node, src []byte, lines []string, line int) bool {
	if fn := enclosingFunction(call); fn != nil {
		if name := fn.ChildByFieldName("name"); name != nil && s.hot.HotName(nodeText(name, src)) {
			return true
		}
		if parent := fn.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
			for i := uint(0); i < parent.NamedChildCount(); i++ {
				child := parent.NamedChild(i)
				if child != nil && child.Kind() == "decorator" && s.hot.MarksLine(nodeText(child, src)) {
					return true
				}
			}
		}
	}
	return s.hot.Annotated(lines, line)
}

func enclosingFunction(n *tree_sitter.Node) *tree_sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "function_definition" {
			return p
		}
	}
	return nil
}

// pythonCallSite extracts the (receiver, method) signature of a call node.
// A call chained off another call uses the inner call's attribute name as
// receiver.
func pythonCallSite(call *tree_sitter.Node, src []byte) (CallSite, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return CallSite{}, false
	}

	var site CallSite
	switch fn.Kind() {
	case "identifier":
		site.Method = strings.ToLower(nodeText(fn, src))
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil || obj == nil {
			return CallSite{}, false
		}
		receiver, ok := pythonReceiver(obj, src)
		if !ok {
			return CallSite{}, false
		}
		site.Receiver = strings.ToLower(receiver)
		site.Method = strings.ToLower(nodeText(attr, src))
	default:
		return CallSite{}, false
	}

	if args := call.ChildByFieldName("arguments"); args != nil && args.Kind() == "argument_list" {
		site.Query, site.HasQuery = pythonQueryArgument(args, src)
	}
	return site, true
}

func pythonReceiver(obj *tree_sitter.Node, src []byte) (string, bool) {
	switch obj.Kind() {
	case "identifier":
		return nodeText(obj, src), true
	case "attribute":
		if attr := obj.ChildByFieldName("attribute"); attr != nil {
			return nodeText(attr, src), true
		}
	case "call":
		inner := obj.ChildByFieldName("function")
		if inner != nil && inner.Kind() == "attribute" {
			if attr := inner.ChildByFieldName("attribute"); attr != nil {
				return nodeText(attr, src), true
			}
		}
	}
	return "", false
}

// pythonQueryArgument reads the first positional argument when it is a
// plain or formatted string. Interpolated expressions are dropped.
func pythonQueryArgument(args *tree_sitter.Node, src []byte) (string, bool) {
	var first *tree_sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		if child != nil && child.Kind() != "comment" {
			first = child
			break
		}
	}
	if first == nil {
		return "", false
	}

	var text string
	switch first.Kind() {
	case "string":
		s, ok := stringLiteral(first, src)
		if !ok {
			return "", false
		}
		text = s
	case "concatenated_string":
		var b strings.Builder
		for i := uint(0); i < first.NamedChildCount(); i++ {
			part := first.NamedChild(i)
			if part == nil || part.Kind() != "string" {
				continue
			}
			s, ok := stringLiteral(part, src)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		text = b.String()
	default:
		return "", false
	}
	text = strings.ToLower(text)
	return text, text != ""
}

// stringLiteral concatenates the literal content of a string node. Byte
// strings are not text and yield false.
func stringLiteral(n *tree_sitter.Node, src []byte) (string, bool) {
	var b strings.Builder
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string_start":
			if strings.ContainsAny(nodeText(child, src), "bB") {
				return "", false
			}
		case "string_content":
			b.WriteString(nodeText(child, src))
		}
	}
	return b.String(), true
}

func nodeText(n *tree_sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}
