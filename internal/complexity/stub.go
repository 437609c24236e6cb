//go:build !cgo

package complexity

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when deep analysis is unavailable because the
// binary was built without CGO (tree-sitter needs it).
var ErrNoCGO = errors.New("deep analysis requires CGO (tree-sitter)")

// Analyzer computes complexity metrics for source files.
// Stub for non-CGO builds.
type Analyzer struct{}

// NewAnalyzer creates a new complexity analyzer.
// Returns nil when CGO is disabled.
func NewAnalyzer() *Analyzer {
	return nil
}

// AnalyzeFile always fails on non-CGO builds.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	return nil, ErrNoCGO
}

// AnalyzeSource always fails on non-CGO builds.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path string, source []byte, lang Language) (*Report, error) {
	return nil, ErrNoCGO
}

// IsAvailable reports whether deep analysis is compiled in.
// Always false without CGO.
func IsAvailable() bool {
	return false
}
