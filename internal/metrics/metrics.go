// Package metrics computes lightweight static metrics from code snapshots.
// These are cheap heuristics for stream payloads, not a real parser.
package metrics

import (
	"regexp"
	"strings"
)

// DefaultScalingFactor divides code length to approximate complexity.
const DefaultScalingFactor = 100

// CodeMetrics is a transient value object computed fresh from each code
// snapshot. It is never persisted.
type CodeMetrics struct {
	// Lines is the number of lines (line breaks + 1).
	Lines int `json:"lines"`

	// Functions counts function-like declarations.
	Functions int `json:"functions"`

	// Comments counts comment-marker occurrences.
	Comments int `json:"comments"`

	// Complexity is a crude length-based proxy, clamped to [1,10].
	Complexity int `json:"complexity"`

	// Language is the declared source language.
	Language string `json:"language"`
}

var (
	// Function-like declarations: function/def keywords, class
	// declarations, arrow-function assignments.
	functionPattern = regexp.MustCompile(`\bfunction\b|\bdef\s|\bclass\s|=>`)

	// Comment markers: //, /*, block continuation *, and #.
	commentPattern = regexp.MustCompile(`(?m)//|/\*|^\s*\*|#`)
)

// Compute derives CodeMetrics from a code snapshot using the default
// complexity scaling factor. Pure function of its inputs.
func Compute(code, language string) CodeMetrics {
	return ComputeScaled(code, language, DefaultScalingFactor)
}

// ComputeScaled derives CodeMetrics with an explicit scaling factor.
// Complexity is clamp(len(code)/scaling, 1, 10); a non-positive scaling
// falls back to the default.
func ComputeScaled(code, language string, scaling int) CodeMetrics {
	if scaling <= 0 {
		scaling = DefaultScalingFactor
	}

	m := CodeMetrics{
		Lines:    strings.Count(code, "\n") + 1,
		Language: language,
	}

	m.Functions = len(functionPattern.FindAllStringIndex(code, -1))
	m.Comments = len(commentPattern.FindAllStringIndex(code, -1))

	complexity := len(code) / scaling
	if complexity < 1 {
		complexity = 1
	}
	if complexity > 10 {
		complexity = 10
	}
	m.Complexity = complexity

	return m
}

// IsEmpty reports whether a code snapshot contains only whitespace.
// Callers use this to suppress analysis requests for empty input.
func IsEmpty(code string) bool {
	return strings.TrimSpace(code) == ""
}
