// Package client orchestrates the analysis pipeline: it owns the
// stream connection, routes code submissions to the backend or the
// local fallback analyzer, and keeps the cache and local history in
// sync with inbound events.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"devplanet/internal/analysis"
	"devplanet/internal/config"
	"devplanet/internal/history"
	"devplanet/internal/metrics"
	"devplanet/internal/protocol"
	"devplanet/internal/session"
	"devplanet/internal/stream"
)

// restAPI is the slice of the HTTP client the orchestrator needs.
type restAPI interface {
	Analyze(ctx context.Context, userID string, m metrics.CodeMetrics, now time.Time) (*analysis.Result, error)
	UserStats(ctx context.Context, userID string) (*analysis.SessionStats, error)
}

// streamConn is the connection surface the orchestrator drives.
type streamConn interface {
	Connect(ctx context.Context, userID string) error
	Disconnect()
	Send(f protocol.Outbound) error
	IsConnected() bool
}

// statsRefreshTimeout bounds the background stats fetch after a
// session ends.
const statsRefreshTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	Config *config.Config
	UserID string
	API    restAPI

	// History is optional; nil disables local persistence.
	History *history.Store

	Logger *slog.Logger
}

// Client wires the stream, tracker, cache, and fallback analyzer into
// one pipeline.
type Client struct {
	cfg     *config.Config
	userID  string
	api     restAPI
	store   *history.Store
	logger  *slog.Logger
	now     func() time.Time
	scaling int

	conn    streamConn
	tracker *session.Tracker
	cache   *session.Cache

	mu           sync.Mutex
	sessionRowID string
	analyses     int
	points       float64
	lastLanguage string // language of the newest submitted snapshot
}

// New builds the pipeline. The stream connection is created but not
// dialed; call Connect to go live.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	c := &Client{
		cfg:     cfg,
		userID:  opts.UserID,
		api:     opts.API,
		store:   opts.History,
		logger:  logger,
		now:     time.Now,
		scaling: cfg.Analysis.ComplexityScaling,
	}

	sc := stream.New(stream.Options{
		BaseURL:   cfg.WSURL(),
		Heartbeat: cfg.Heartbeat(),
		Retry: stream.RetryPolicy{
			MaxAttempts: cfg.Stream.MaxReconnectAttempts,
			BaseDelay:   time.Duration(cfg.Stream.ReconnectBaseSeconds) * time.Second,
			MaxDelay:    60 * time.Second,
		},
		Handlers: stream.Handlers{
			OnAnalysisResult: c.handleAnalysisResult,
			OnAchievement:    c.handleAchievement,
			OnEvolution:      c.handleEvolution,
			OnStats:          c.handleStats,
			OnSessionEnded:   c.handleSessionEnded,
			OnError:          c.handleStreamError,
			OnMaxAttempts: func() {
				logger.Warn("Reconnection attempts exhausted; analysis continues locally")
			},
		},
		Logger: logger,
	})

	c.conn = sc
	c.tracker = session.NewTracker(sc, logger)
	c.cache = session.NewCache(cfg.Analysis.AchievementBuffer)
	return c
}

// Connect dials the analysis stream for the configured user.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx, c.userID)
}

// Close ends any active session and tears down the connection.
func (c *Client) Close() {
	if c.tracker.Active() {
		if err := c.EndSession(); err != nil {
			c.logger.Warn("Failed to end session on shutdown", "error", err)
		}
	}
	c.conn.Disconnect()
}

// Connected reports whether the stream is up.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Cache exposes the analysis state for rendering.
func (c *Client) Cache() *session.Cache {
	return c.cache
}

// SessionActive reports whether a coding session is running.
func (c *Client) SessionActive() bool {
	return c.tracker.Active()
}

// SessionDuration returns the elapsed session time, zero when idle.
func (c *Client) SessionDuration() time.Duration {
	return c.tracker.Duration()
}

// StartSession opens a coding session and records it locally.
func (c *Client) StartSession(cfg session.StartConfig) error {
	if err := c.tracker.Start(cfg); err != nil {
		return err
	}

	c.mu.Lock()
	c.analyses = 0
	c.points = 0
	c.sessionRowID = ""
	c.mu.Unlock()

	if c.store != nil {
		started, _ := c.tracker.StartedAt()
		rec := &history.SessionRecord{
			UserID:      c.userID,
			PlanetID:    cfg.PlanetID,
			ProjectName: cfg.ProjectName,
			Language:    cfg.Language,
			StartedAt:   started,
		}
		if err := c.store.InsertSession(rec); err != nil {
			c.logger.Warn("Failed to record session start", "error", err)
		} else {
			c.mu.Lock()
			c.sessionRowID = rec.ID
			c.mu.Unlock()
		}
	}
	return nil
}

// EndSession closes the active session. No-op when none is running.
func (c *Client) EndSession() error {
	if !c.tracker.Active() {
		return nil
	}

	duration := int(c.tracker.Duration().Seconds())
	err := c.tracker.End()

	c.mu.Lock()
	rowID := c.sessionRowID
	analyses := c.analyses
	points := c.points
	c.sessionRowID = ""
	c.mu.Unlock()

	if c.store != nil && rowID != "" {
		if dbErr := c.store.CompleteSession(rowID, c.now(), duration, analyses, points); dbErr != nil {
			c.logger.Warn("Failed to record session end", "error", dbErr)
		}
	}
	return err
}

// AnalyzeCode routes a code snapshot through the pipeline. Empty input
// resets the cached result and sends nothing. When the stream is up
// the snapshot goes to the backend and the result arrives
// asynchronously; otherwise the local fallback analyzer fills the
// cache immediately.
func (c *Client) AnalyzeCode(ctx context.Context, code, language string) error {
	now := c.now()
	if metrics.IsEmpty(code) {
		c.cache.Reset(now)
		return nil
	}

	m := metrics.ComputeScaled(code, language, c.scaling)

	c.mu.Lock()
	c.lastLanguage = m.Language
	c.mu.Unlock()

	if c.conn.IsConnected() {
		if err := c.conn.Send(protocol.NewCodeAnalysis(m, now)); err == nil {
			return nil
		}
		// Write failed mid-flight; fall back to local analysis.
	}

	result := analysis.Fallback(code, m)
	c.applyResult(*result, m.Language, history.SourceFallback)
	return nil
}

// AnalyzeRemote submits a snapshot over REST instead of the stream.
// Used when the live connection is unavailable but the backend is
// reachable.
func (c *Client) AnalyzeRemote(ctx context.Context, code, language string) (*analysis.Result, error) {
	now := c.now()
	if metrics.IsEmpty(code) {
		c.cache.Reset(now)
		return analysis.EmptyResult(now), nil
	}

	m := metrics.ComputeScaled(code, language, c.scaling)
	result, err := c.api.Analyze(ctx, c.userID, m, now)
	if err != nil {
		return nil, err
	}
	c.applyResult(*result, m.Language, history.SourceREST)
	return result, nil
}

// SubmitFile reads a changed file and analyzes it. The language is
// inferred from the extension.
func (c *Client) SubmitFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return c.AnalyzeCode(ctx, string(data), LanguageForPath(path))
}

// RefreshStats replaces the cached counters with the backend's.
func (c *Client) RefreshStats(ctx context.Context) error {
	stats, err := c.api.UserStats(ctx, c.userID)
	if err != nil {
		return err
	}
	c.cache.SetStats(*stats)
	return nil
}

// applyResult is the single writer for analysis outcomes, regardless
// of which transport produced them.
func (c *Client) applyResult(result analysis.Result, language, source string) {
	c.cache.SetResult(result)

	c.mu.Lock()
	c.analyses++
	c.points += float64(result.EvolutionPoints)
	rowID := c.sessionRowID
	c.mu.Unlock()

	if c.store != nil {
		rec := &history.AnalysisRecord{
			SessionID:       rowID,
			Language:        language,
			EvolutionPoints: result.EvolutionPoints,
			ComplexityScore: float64(result.ComplexityScore),
			StyleFeedback:   result.StyleFeedback,
			Source:          source,
			CreatedAt:       c.now(),
		}
		if err := c.store.RecordAnalysis(rec); err != nil {
			c.logger.Warn("Failed to record analysis", "error", err)
		}
	}
}

func (c *Client) handleAnalysisResult(f protocol.AnalysisResult) {
	c.logger.Debug("Analysis result received",
		"points", f.Result.EvolutionPoints,
		"latency_ms", f.LatencyMS)

	// The result frame carries no language; attribute it to the
	// snapshot that prompted it.
	c.mu.Lock()
	language := c.lastLanguage
	c.mu.Unlock()
	c.applyResult(f.Result, language, history.SourceStream)
}

func (c *Client) handleAchievement(f protocol.AchievementUnlocked) {
	c.logger.Info("Achievement unlocked",
		"title", f.Achievement.Title,
		"points", f.Achievement.Points)
	c.cache.AddAchievement(f.Achievement)
}

func (c *Client) handleEvolution(f protocol.PlanetEvolution) {
	c.logger.Debug("Planet evolution", "points_earned", f.PointsEarned)
}

func (c *Client) handleStats(f protocol.SessionStatsUpdate) {
	c.cache.SetStats(f.Stats)
}

func (c *Client) handleSessionEnded(f protocol.SessionEnded) {
	c.logger.Info("Session confirmed ended",
		"duration_seconds", f.Summary.DurationSeconds,
		"analyses", f.Summary.AnalysesPerformed)

	// Counters come from the backend wholesale, never incremented
	// locally.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsRefreshTimeout)
		defer cancel()
		if err := c.RefreshStats(ctx); err != nil {
			c.logger.Warn("Failed to refresh stats", "error", err)
		}
	}()
}

func (c *Client) handleStreamError(err error) {
	c.logger.Warn("Stream error", "error", err)
}

// LanguageForPath maps a file extension to the language tag the
// backend expects.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".js", ".mjs", ".cjs", ".jsx":
		return "javascript"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "typescript"
	case ".py", ".pyw":
		return "python"
	case ".rb":
		return "ruby"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".c", ".h":
		return "c"
	case ".cc", ".cpp":
		return "cpp"
	case ".cs":
		return "csharp"
	case ".php":
		return "php"
	case ".html":
		return "html"
	case ".css":
		return "css"
	default:
		return "plaintext"
	}
}
