//go:build cgo

package complexity

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Analyzer computes complexity metrics for source files.
type Analyzer struct {
	parser *Parser
}

// NewAnalyzer creates a new complexity analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{parser: NewParser()}
}

// AnalyzeFile analyzes a source file on disk. Unsupported extensions
// and read failures are reported in the Report, not as errors, so a
// sweep over a directory never aborts halfway.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := LanguageFromExtension(ext)
	if !ok {
		return &Report{Path: path, Error: "unsupported file extension: " + ext}, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return &Report{Path: path, Error: "failed to read file: " + err.Error()}, nil
	}
	return a.AnalyzeSource(ctx, path, source, lang)
}

// AnalyzeSource analyzes source bytes and returns per-function scores.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, source []byte, lang Language) (*Report, error) {
	root, err := a.parser.Parse(ctx, source, lang)
	if err != nil {
		return &Report{Path: path, Language: lang, Error: err.Error()}, nil
	}

	report := &Report{
		Path:      path,
		Language:  lang,
		Functions: make([]FunctionScore, 0),
	}

	for _, fn := range findNodes(root, functionNodeTypes(lang)) {
		report.Functions = append(report.Functions, a.scoreFunction(fn, source, lang))
	}

	report.aggregate()
	return report, nil
}

func (a *Analyzer) scoreFunction(node *sitter.Node, source []byte, lang Language) FunctionScore {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	return FunctionScore{
		Name:       functionName(node, source, lang),
		StartLine:  startLine,
		EndLine:    endLine,
		Lines:      endLine - startLine + 1,
		Cyclomatic: cyclomatic(node, source, lang),
		Cognitive:  cognitive(node, source, lang),
	}
}

// functionName extracts the declared name, or a placeholder for
// anonymous functions.
func functionName(node *sitter.Node, source []byte, lang Language) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil && lang == LangGo {
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child != nil && child.Type() == "identifier" {
				nameNode = child
				break
			}
		}
	}
	if nameNode != nil {
		return string(source[nameNode.StartByte():nameNode.EndByte()])
	}

	switch node.Type() {
	case "arrow_function", "func_literal", "lambda", "function_expression":
		return "<anonymous>"
	}
	return "<unknown>"
}

// cyclomatic counts decision points + 1.
func cyclomatic(node *sitter.Node, source []byte, lang Language) int {
	score := 1
	for _, dn := range findNodes(node, decisionNodeTypes(lang)) {
		if dn.Type() == "binary_expression" || dn.Type() == "boolean_operator" {
			if isBooleanOperator(dn, source, lang) {
				score++
			}
			continue
		}
		score++
	}
	return score
}

// cognitive weights decision points by nesting depth.
func cognitive(node *sitter.Node, source []byte, lang Language) int {
	return cognitiveWalk(node, source, lang, 0)
}

func cognitiveWalk(node *sitter.Node, source []byte, lang Language, depth int) int {
	score := 0
	nodeType := node.Type()

	if slices.Contains(decisionNodeTypes(lang), nodeType) {
		if nodeType == "binary_expression" || nodeType == "boolean_operator" {
			if isBooleanOperator(node, source, lang) {
				score += 1 + depth
			}
		} else {
			score += 1 + depth
		}
	}

	childDepth := depth
	if slices.Contains(nestingNodeTypes(lang), nodeType) {
		childDepth++
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		if child := node.Child(int(i)); child != nil {
			score += cognitiveWalk(child, source, lang, childDepth)
		}
	}
	return score
}

// findNodes collects all nodes of the given types under root.
func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	var result []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if slices.Contains(types, node.Type()) {
			result = append(result, node)
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)
	return result
}

// IsAvailable reports whether deep analysis is compiled in.
func IsAvailable() bool {
	return true
}
