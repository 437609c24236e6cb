// Package protocol defines the JSON frames exchanged with the Dev/Planet
// analysis stream. Every frame carries a "type" discriminator; inbound
// frames decode into a tagged union with an explicit unknown variant.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"devplanet/internal/analysis"
	"devplanet/internal/metrics"
)

// Outbound frame type tags.
const (
	TypeHeartbeat    = "heartbeat"
	TypeCodeAnalysis = "code_analysis"
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
)

// Inbound frame type tags.
const (
	TypeConnected           = "connected"
	TypeHeartbeatAck        = "heartbeat_ack"
	TypeAnalysisResult      = "analysis_result"
	TypeAchievementUnlocked = "achievement_unlocked"
	TypeAchievement         = "achievement"
	TypePlanetEvolution     = "planet_evolution"
	TypeSessionStarted      = "session_started"
	TypeSessionEnded        = "session_ended"
	TypeSessionStats        = "session_stats"
	TypeError               = "error"
)

// Outbound is implemented by every frame the client can transmit.
type Outbound interface {
	FrameType() string
}

// Heartbeat keeps the connection alive.
type Heartbeat struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// FrameType implements Outbound.
func (Heartbeat) FrameType() string { return TypeHeartbeat }

// NewHeartbeat builds a heartbeat frame stamped with the given time.
func NewHeartbeat(now time.Time) Heartbeat {
	return Heartbeat{Type: TypeHeartbeat, Timestamp: stamp(now)}
}

// CodeAnalysis requests analysis of a metrics snapshot. The result
// arrives asynchronously as an AnalysisResult frame, not as a reply.
type CodeAnalysis struct {
	Type      string              `json:"type"`
	Metrics   metrics.CodeMetrics `json:"metrics"`
	Language  string              `json:"language"`
	Timestamp string              `json:"timestamp"`
}

// FrameType implements Outbound.
func (CodeAnalysis) FrameType() string { return TypeCodeAnalysis }

// NewCodeAnalysis builds a code_analysis frame.
func NewCodeAnalysis(m metrics.CodeMetrics, now time.Time) CodeAnalysis {
	return CodeAnalysis{
		Type:      TypeCodeAnalysis,
		Metrics:   m,
		Language:  m.Language,
		Timestamp: stamp(now),
	}
}

// StartSession opens a coding session on the backend.
type StartSession struct {
	Type        string `json:"type"`
	PlanetID    string `json:"planet_id"`
	ProjectName string `json:"project_name,omitempty"`
	Language    string `json:"language,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// FrameType implements Outbound.
func (StartSession) FrameType() string { return TypeStartSession }

// NewStartSession builds a start_session frame.
func NewStartSession(planetID, projectName, language string, now time.Time) StartSession {
	return StartSession{
		Type:        TypeStartSession,
		PlanetID:    planetID,
		ProjectName: projectName,
		Language:    language,
		Timestamp:   stamp(now),
	}
}

// EndSession closes the active coding session.
type EndSession struct {
	Type            string `json:"type"`
	DurationSeconds int    `json:"duration_seconds"`
	Timestamp       string `json:"timestamp"`
}

// FrameType implements Outbound.
func (EndSession) FrameType() string { return TypeEndSession }

// NewEndSession builds an end_session frame.
func NewEndSession(durationSeconds int, now time.Time) EndSession {
	return EndSession{
		Type:            TypeEndSession,
		DurationSeconds: durationSeconds,
		Timestamp:       stamp(now),
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Inbound is the tagged union of frames the backend can deliver.
type Inbound interface {
	InboundType() string
}

// Connected confirms the stream is established.
type Connected struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// InboundType implements Inbound.
func (Connected) InboundType() string { return TypeConnected }

// HeartbeatAck acknowledges a heartbeat.
type HeartbeatAck struct {
	Timestamp string `json:"timestamp"`
}

// InboundType implements Inbound.
func (HeartbeatAck) InboundType() string { return TypeHeartbeatAck }

// AnalysisResult delivers the outcome of a code_analysis request.
type AnalysisResult struct {
	Result    analysis.Result `json:"result"`
	LatencyMS int             `json:"latency_ms"`
	Timestamp string          `json:"timestamp"`
}

// InboundType implements Inbound.
func (AnalysisResult) InboundType() string { return TypeAnalysisResult }

// AchievementUnlocked delivers a new achievement notification.
type AchievementUnlocked struct {
	Achievement analysis.Achievement `json:"achievement"`
	Timestamp   string               `json:"timestamp"`
}

// InboundType implements Inbound.
func (AchievementUnlocked) InboundType() string { return TypeAchievementUnlocked }

// PlanetEvolution reports evolution points earned from recent analysis.
type PlanetEvolution struct {
	PointsEarned float64            `json:"points_earned"`
	SkillUpdates map[string]float64 `json:"skill_updates,omitempty"`
	Timestamp    string             `json:"timestamp"`
}

// InboundType implements Inbound.
func (PlanetEvolution) InboundType() string { return TypePlanetEvolution }

// SessionStarted confirms a start_session request.
type SessionStarted struct {
	Message string `json:"message"`
}

// InboundType implements Inbound.
func (SessionStarted) InboundType() string { return TypeSessionStarted }

// SessionSummary aggregates a finished session.
type SessionSummary struct {
	DurationSeconds    int     `json:"duration_seconds"`
	AnalysesPerformed  int     `json:"analyses_performed"`
	AvgAnalysisSeconds float64 `json:"avg_analysis_time"`
	EndTime            string  `json:"end_time"`
}

// SessionEnded confirms an end_session request.
type SessionEnded struct {
	Summary SessionSummary `json:"summary"`
	Message string         `json:"message"`
}

// InboundType implements Inbound.
func (SessionEnded) InboundType() string { return TypeSessionEnded }

// SessionStatsUpdate replaces the aggregate session counters wholesale.
type SessionStatsUpdate struct {
	Stats analysis.SessionStats `json:"data"`
}

// InboundType implements Inbound.
func (SessionStatsUpdate) InboundType() string { return TypeSessionStats }

// ErrorFrame reports a server-side failure for one request.
type ErrorFrame struct {
	Message string `json:"message"`
}

// InboundType implements Inbound.
func (ErrorFrame) InboundType() string { return TypeError }

// Unknown preserves frames with an unrecognized type tag so callers can
// log and drop them without failing.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

// InboundType implements Inbound.
func (u Unknown) InboundType() string { return u.Type }

// envelope extracts the discriminator before full decoding.
type envelope struct {
	Type string `json:"type"`
}

// Decode parses an inbound frame. Malformed JSON is an error; an
// unrecognized type tag yields Unknown, never an error.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TypeConnected:
		return decodeAs[Connected](data)
	case TypeHeartbeatAck:
		return decodeAs[HeartbeatAck](data)
	case TypeAnalysisResult:
		return decodeAs[AnalysisResult](data)
	case TypeAchievementUnlocked:
		return decodeAs[AchievementUnlocked](data)
	case TypeAchievement:
		// Alternate transport shape: {type: "achievement", data: {...}}
		var alt struct {
			Data analysis.Achievement `json:"data"`
		}
		if err := json.Unmarshal(data, &alt); err != nil {
			return nil, fmt.Errorf("decode %s frame: %w", env.Type, err)
		}
		return AchievementUnlocked{Achievement: alt.Data}, nil
	case TypePlanetEvolution:
		return decodeAs[PlanetEvolution](data)
	case TypeSessionStarted:
		return decodeAs[SessionStarted](data)
	case TypeSessionEnded:
		return decodeAs[SessionEnded](data)
	case TypeSessionStats:
		return decodeAs[SessionStatsUpdate](data)
	case TypeError:
		return decodeAs[ErrorFrame](data)
	default:
		return Unknown{Type: env.Type, Raw: json.RawMessage(data)}, nil
	}
}

func decodeAs[T Inbound](data []byte) (Inbound, error) {
	var frame T
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", frame.InboundType(), err)
	}
	return frame, nil
}
