// Package session tracks the active coding session and caches the
// analysis state delivered over the stream.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"devplanet/internal/protocol"
)

// Sender is the outbound half of the stream connection the tracker
// issues control frames through.
type Sender interface {
	Send(protocol.Outbound) error
	IsConnected() bool
}

// StartConfig describes the session being opened.
type StartConfig struct {
	PlanetID    string
	ProjectName string
	Language    string
}

// Tracker owns the active/startedAt pair and issues start_session and
// end_session frames. Duration is always derived from startedAt, never
// stored.
type Tracker struct {
	sender Sender
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	active    bool
	startedAt time.Time
}

// NewTracker builds a tracker that sends control frames through sender.
func NewTracker(sender Sender, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Start opens a coding session. It fails fast with ErrNotConnected when
// the stream is down; a session is never started locally only. The
// active flag flips optimistically before the frame is sent and rolls
// back if transmission fails.
func (t *Tracker) Start(cfg StartConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active {
		return ErrSessionActive
	}
	if !t.sender.IsConnected() {
		return ErrNotConnected
	}

	started := t.now()
	t.active = true
	t.startedAt = started

	frame := protocol.NewStartSession(cfg.PlanetID, cfg.ProjectName, cfg.Language, started)
	if err := t.sender.Send(frame); err != nil {
		t.active = false
		t.startedAt = time.Time{}
		return fmt.Errorf("start session: %w", err)
	}

	t.logger.Info("Session started",
		"planet_id", cfg.PlanetID,
		"project", cfg.ProjectName)
	return nil
}

// End closes the active session, reporting its floored duration in
// whole seconds. Calling End with no active session is a no-op. Local
// state is cleared even when the end_session frame cannot be sent, so
// an abandoned client never leaves a session open forever.
func (t *Tracker) End() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil
	}

	now := t.now()
	seconds := int(now.Sub(t.startedAt).Seconds())
	t.active = false
	t.startedAt = time.Time{}

	if err := t.sender.Send(protocol.NewEndSession(seconds, now)); err != nil {
		t.logger.Warn("Session ended locally but frame not sent",
			"duration_seconds", seconds,
			"error", err)
		return fmt.Errorf("end session: %w", err)
	}

	t.logger.Info("Session ended", "duration_seconds", seconds)
	return nil
}

// Active reports whether a session is currently running.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// StartedAt returns the session start time, or false when inactive.
func (t *Tracker) StartedAt() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt, t.active
}

// Duration returns the elapsed session time, or zero when inactive.
func (t *Tracker) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return t.now().Sub(t.startedAt)
}
