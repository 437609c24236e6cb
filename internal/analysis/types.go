// Package analysis defines the analysis result model and the local
// fallback analyzer used when the backend stream is unreachable.
package analysis

import "time"

// Style feedback tags assigned by length tier.
const (
	StyleEmpty      = "empty"
	StyleEmbryonic  = "embryonic"
	StyleDeveloping = "developing"
)

// Result is a single analysis outcome. Immutable once produced; each
// new result replaces the previous one in the cache (last-write-wins).
type Result struct {
	// EvolutionPoints is the gamification score earned, clamped to [0,100].
	EvolutionPoints int `json:"evolution_points"`

	// ComplexityScore grades the snapshot's complexity, clamped to [0,10].
	ComplexityScore int `json:"complexity_score"`

	// StyleFeedback is the length-tier tag: empty, embryonic or developing.
	StyleFeedback string `json:"style_feedback"`

	// Suggestions is an ordered list of human-readable findings.
	Suggestions []string `json:"suggestions"`

	// SkillDeltas maps skill names to incremental gains.
	SkillDeltas map[string]float64 `json:"skill_deltas,omitempty"`

	// Timestamp records when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Achievement is a discrete, server-issued milestone notification.
// Append-only; the cache retains only the most recent entries.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionStats are aggregate counters refreshed wholesale from the
// backend after session end. Never incremented field-by-field locally.
type SessionStats struct {
	SessionsToday        int `json:"sessions_today"`
	TotalAchievements    int `json:"total_achievements"`
	TotalEvolutionPoints int `json:"total_evolution_points"`
	CurrentStreak        int `json:"current_streak"`
}
