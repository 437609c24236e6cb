//go:build cgo

package complexity

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Parser wraps tree-sitter for multi-language parsing.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter parser.
func NewParser() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Parse parses source code and returns the AST root node.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language) (*sitter.Node, error) {
	tsLang, err := grammarFor(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree.RootNode(), nil
}

func grammarFor(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// functionNodeTypes lists the node types that declare a function.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration", "func_literal"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"}
	case LangPython:
		return []string{"function_definition", "lambda"}
	default:
		return nil
	}
}

// decisionNodeTypes lists the node types that add a decision point.
func decisionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{
			"if_statement",
			"for_statement",
			"range_clause",
			"expression_case",
			"type_case",
			"select_statement",
			"communication_case",
			"binary_expression", // && and || only
		}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"switch_case",
			"catch_clause",
			"ternary_expression",
			"binary_expression", // && and || only
			"optional_chain_expression",
		}
	case LangPython:
		return []string{
			"if_statement",
			"elif_clause",
			"for_statement",
			"while_statement",
			"except_clause",
			"with_statement",
			"boolean_operator",
			"conditional_expression",
			"list_comprehension",
			"dictionary_comprehension",
			"set_comprehension",
			"generator_expression",
		}
	default:
		return nil
	}
}

// nestingNodeTypes lists node types that deepen cognitive nesting.
func nestingNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{
			"if_statement",
			"for_statement",
			"select_statement",
			"type_switch_statement",
			"expression_switch_statement",
			"func_literal",
		}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{
			"if_statement",
			"for_statement",
			"for_in_statement",
			"while_statement",
			"do_statement",
			"switch_statement",
			"try_statement",
			"arrow_function",
			"function_expression",
		}
	case LangPython:
		return []string{
			"if_statement",
			"for_statement",
			"while_statement",
			"try_statement",
			"with_statement",
			"lambda",
			"list_comprehension",
			"dictionary_comprehension",
			"set_comprehension",
			"generator_expression",
		}
	default:
		return nil
	}
}

// isBooleanOperator reports whether a binary expression is && or ||
// (or Python's and/or).
func isBooleanOperator(node *sitter.Node, source []byte, lang Language) bool {
	if node.Type() != "binary_expression" && node.Type() != "boolean_operator" {
		return false
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child == nil {
			continue
		}
		if lang == LangPython {
			if child.Type() == "and" || child.Type() == "or" {
				return true
			}
			continue
		}
		content := string(source[child.StartByte():child.EndByte()])
		if content == "&&" || content == "||" {
			return true
		}
	}
	return false
}
