package history

import "time"

// SessionRecord is one row of the local session log.
type SessionRecord struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	PlanetID          string     `json:"planet_id"`
	ProjectName       string     `json:"project_name,omitempty"`
	Language          string     `json:"language,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	DurationSeconds   int        `json:"duration_seconds"`
	AnalysesPerformed int        `json:"analyses_performed"`
	PointsEarned      float64    `json:"points_earned"`
}

// Analysis sources.
const (
	SourceStream   = "stream"
	SourceFallback = "fallback"
	SourceREST     = "rest"
)

// AnalysisRecord is one analysis outcome kept for local history.
type AnalysisRecord struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id,omitempty"`
	Language        string    `json:"language,omitempty"`
	EvolutionPoints int       `json:"evolution_points"`
	ComplexityScore float64   `json:"complexity_score"`
	StyleFeedback   string    `json:"style_feedback"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// Export is the document shape written by ExportJSON.
type Export struct {
	ExportedAt time.Time        `json:"exported_at"`
	Sessions   []SessionRecord  `json:"sessions"`
	Analyses   []AnalysisRecord `json:"analyses"`
}
