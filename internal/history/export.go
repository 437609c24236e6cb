package history

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ExportJSON writes the full session log as gzip-compressed JSON.
func (s *Store) ExportJSON(w io.Writer, now time.Time) error {
	sessions, err := s.ListSessions(100)
	if err != nil {
		return fmt.Errorf("export sessions: %w", err)
	}
	analyses, err := s.ListAnalyses(1000)
	if err != nil {
		return fmt.Errorf("export analyses: %w", err)
	}

	doc := Export{
		ExportedAt: now.UTC(),
		Sessions:   sessions,
		Analyses:   analyses,
	}

	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

// ReadExport parses a gzip-compressed export document.
func ReadExport(r io.Reader) (*Export, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer func() { _ = zr.Close() }()

	var doc Export
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return &doc, nil
}
