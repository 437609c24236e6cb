// Package complexity computes per-function complexity metrics via
// tree-sitter. It backs the deep analysis mode; the cheap heuristic
// path lives in the metrics package.
package complexity

import (
	"fmt"
	"sort"
)

// Language identifies a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
)

// LanguageFromExtension maps a file extension to a Language.
func LanguageFromExtension(ext string) (Language, bool) {
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py", ".pyw":
		return LangPython, true
	default:
		return "", false
	}
}

// FunctionScore holds the complexity of a single function or method.
type FunctionScore struct {
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Lines      int    `json:"lines"`
	Cyclomatic int    `json:"cyclomatic"`
	Cognitive  int    `json:"cognitive"`
}

// Report aggregates function scores for one file.
type Report struct {
	Path          string          `json:"path"`
	Language      Language        `json:"language"`
	Functions     []FunctionScore `json:"functions"`
	FunctionCount int             `json:"function_count"`

	TotalCyclomatic   int     `json:"total_cyclomatic"`
	TotalCognitive    int     `json:"total_cognitive"`
	MaxCyclomatic     int     `json:"max_cyclomatic"`
	MaxCognitive      int     `json:"max_cognitive"`
	AverageCyclomatic float64 `json:"average_cyclomatic"`
	AverageCognitive  float64 `json:"average_cognitive"`

	Error string `json:"error,omitempty"`
}

// aggregate fills the summary fields from the function scores.
func (r *Report) aggregate() {
	r.FunctionCount = len(r.Functions)
	if r.FunctionCount == 0 {
		return
	}
	for _, f := range r.Functions {
		r.TotalCyclomatic += f.Cyclomatic
		r.TotalCognitive += f.Cognitive
		if f.Cyclomatic > r.MaxCyclomatic {
			r.MaxCyclomatic = f.Cyclomatic
		}
		if f.Cognitive > r.MaxCognitive {
			r.MaxCognitive = f.Cognitive
		}
	}
	r.AverageCyclomatic = float64(r.TotalCyclomatic) / float64(r.FunctionCount)
	r.AverageCognitive = float64(r.TotalCognitive) / float64(r.FunctionCount)
}

// Hotspots returns the most complex functions, highest cognitive
// score first, capped at limit.
func (r *Report) Hotspots(limit int) []FunctionScore {
	scores := make([]FunctionScore, len(r.Functions))
	copy(scores, r.Functions)
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Cognitive != scores[j].Cognitive {
			return scores[i].Cognitive > scores[j].Cognitive
		}
		return scores[i].Cyclomatic > scores[j].Cyclomatic
	})
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// Thresholds above which a function is flagged in suggestions.
const (
	cyclomaticWarnAt = 10
	cognitiveWarnAt  = 15
	longFunctionAt   = 60
)

// Suggestions turns the report into human-readable improvement hints.
func (r *Report) Suggestions() []string {
	var out []string
	for _, f := range r.Functions {
		switch {
		case f.Cognitive >= cognitiveWarnAt:
			out = append(out, fmt.Sprintf("%s (line %d): cognitive complexity %d, consider flattening nested branches", f.Name, f.StartLine, f.Cognitive))
		case f.Cyclomatic >= cyclomaticWarnAt:
			out = append(out, fmt.Sprintf("%s (line %d): cyclomatic complexity %d, consider splitting decision logic", f.Name, f.StartLine, f.Cyclomatic))
		case f.Lines >= longFunctionAt:
			out = append(out, fmt.Sprintf("%s (line %d): %d lines long, consider extracting helpers", f.Name, f.StartLine, f.Lines))
		}
	}
	return out
}
