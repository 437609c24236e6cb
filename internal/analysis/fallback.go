package analysis

import (
	"regexp"
	"strings"
	"time"

	"devplanet/internal/metrics"
)

// Length tier boundary and point divisors.
const (
	developingThreshold = 50
	embryonicDivisor    = 5
	developingDivisor   = 3
)

// codeFeature is one independently detectable trait of a code snapshot.
// Detection order is fixed; suggestions follow it.
type codeFeature struct {
	name       string
	pattern    *regexp.Regexp
	points     int
	complexity int
	suggestion string
}

var features = []codeFeature{
	{
		name:       "structure",
		pattern:    regexp.MustCompile(`\bfunction\b|\bdef\b|\bclass\b|\bfunc\b`),
		points:     10,
		complexity: 2,
		suggestion: "Functions and classes are shaping your planet's terrain",
	},
	{
		name:       "comments",
		pattern:    regexp.MustCompile(`//|/\*|#`),
		points:     8,
		complexity: 1,
		suggestion: "Comments are clearing your planet's atmosphere",
	},
	{
		name:       "loops",
		pattern:    regexp.MustCompile(`\bfor\b|\bwhile\b|\.map\(|\.forEach\(`),
		points:     12,
		complexity: 3,
		suggestion: "Iteration constructs are powering your planet's rotation",
	},
	{
		name:       "error-handling",
		pattern:    regexp.MustCompile(`\btry\b|\bcatch\b|\bexcept\b|\brescue\b|err != nil`),
		points:     15,
		complexity: 2,
		suggestion: "Error handling is raising defensive walls",
	},
	{
		name:       "async",
		pattern:    regexp.MustCompile(`\basync\b|\bawait\b|\bgo func\b|\.then\(|\bPromise\b`),
		points:     10,
		complexity: 2,
		suggestion: "Async patterns are stirring up storm energy",
	},
}

// EmptyResult is the deterministic result for empty input. Also used by
// the cache when the user clears their code.
func EmptyResult(now time.Time) *Result {
	return &Result{
		EvolutionPoints: 0,
		ComplexityScore: 0,
		StyleFeedback:   StyleEmpty,
		Suggestions:     []string{"Write some code to start growing your planet"},
		Timestamp:       now,
	}
}

// Fallback produces an analysis result with zero network dependency.
// Deterministic for identical (code, m) except for the Timestamp field.
func Fallback(code string, m metrics.CodeMetrics) *Result {
	now := time.Now().UTC()

	if strings.TrimSpace(code) == "" {
		return EmptyResult(now)
	}

	var (
		points      int
		complexity  int
		style       string
		suggestions []string
	)

	if len(code) < developingThreshold {
		style = StyleEmbryonic
		points = len(code) / embryonicDivisor
		complexity = 1
		suggestions = append(suggestions, "Your planet is embryonic, keep typing to help it grow")
	} else {
		style = StyleDeveloping
		points = len(code) / developingDivisor
		complexity = 2
		suggestions = append(suggestions, "Your planet is developing nicely")
	}

	for _, f := range features {
		if f.pattern.MatchString(code) {
			points += f.points
			complexity += f.complexity
			suggestions = append(suggestions, f.suggestion)
		}
	}

	return &Result{
		EvolutionPoints: clamp(points, 0, 100),
		ComplexityScore: clamp(complexity, 0, 10),
		StyleFeedback:   style,
		Suggestions:     suggestions,
		SkillDeltas:     skillDeltas(m),
		Timestamp:       now,
	}
}

// skillDeltas mirrors the backend's heuristic skill scoring so offline
// results stay comparable to server-produced ones.
func skillDeltas(m metrics.CodeMetrics) map[string]float64 {
	lines := m.Lines
	if lines < 1 {
		lines = 1
	}
	commentRatio := float64(m.Comments) / float64(lines)

	deltas := map[string]float64{
		"algorithm_mastery": minFloat(float64(m.Complexity)*0.1, 2.0),
		"devops_maturity":   0.3,
	}

	switch m.Language {
	case "javascript", "typescript", "html", "css":
		deltas["web_development_skill"] = 1.5
	default:
		deltas["web_development_skill"] = 0.5
	}

	if m.Functions > 0 {
		deltas["api_design_discipline"] = 1.0
	} else {
		deltas["api_design_discipline"] = 0.2
	}

	if commentRatio > 0.1 {
		deltas["security_awareness"] = 0.2
	} else {
		deltas["security_awareness"] = 0.1
	}

	return deltas
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
