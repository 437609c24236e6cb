package client

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"devplanet/internal/analysis"
	"devplanet/internal/config"
	"devplanet/internal/history"
	"devplanet/internal/metrics"
	"devplanet/internal/protocol"
	"devplanet/internal/session"
	"devplanet/internal/slogutil"
)

type fakeConn struct {
	connected bool
	sendErr   error
	sent      []protocol.Outbound
}

func (f *fakeConn) Connect(ctx context.Context, userID string) error { f.connected = true; return nil }
func (f *fakeConn) Disconnect()                                      { f.connected = false }
func (f *fakeConn) IsConnected() bool                                { return f.connected }

func (f *fakeConn) Send(frame protocol.Outbound) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, frame)
	return nil
}

type fakeAPI struct {
	result *analysis.Result
	stats  *analysis.SessionStats
	err    error
}

func (f *fakeAPI) Analyze(ctx context.Context, userID string, m metrics.CodeMetrics, now time.Time) (*analysis.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAPI) UserStats(ctx context.Context, userID string) (*analysis.SessionStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func newTestClient(t *testing.T, conn *fakeConn, api *fakeAPI, store *history.Store) *Client {
	t.Helper()
	c := New(Options{
		Config:  config.DefaultConfig(),
		UserID:  "user-1",
		API:     api,
		History: store,
		Logger:  slogutil.NewDiscardLogger(),
	})
	c.conn = conn
	c.tracker = session.NewTracker(conn, slogutil.NewDiscardLogger())
	return c
}

func openTestHistory(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAnalyzeCode_EmptyResetsCache(t *testing.T) {
	conn := &fakeConn{connected: true}
	c := newTestClient(t, conn, &fakeAPI{}, nil)
	c.cache.SetResult(analysis.Result{EvolutionPoints: 38})

	if err := c.AnalyzeCode(context.Background(), "   \n\t", "go"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}

	got, ok := c.cache.Result()
	if !ok {
		t.Fatal("cache should hold the empty baseline")
	}
	if got.EvolutionPoints != 0 || got.StyleFeedback != analysis.StyleEmpty {
		t.Errorf("result = %+v, want empty baseline", got)
	}
	if len(conn.sent) != 0 {
		t.Errorf("no frame should be sent for empty input, got %d", len(conn.sent))
	}
}

func TestAnalyzeCode_ConnectedSendsFrame(t *testing.T) {
	conn := &fakeConn{connected: true}
	c := newTestClient(t, conn, &fakeAPI{}, nil)

	code := "function tick() { return orbit(); }"
	if err := c.AnalyzeCode(context.Background(), code, "javascript"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}

	if len(conn.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(conn.sent))
	}
	frame, ok := conn.sent[0].(protocol.CodeAnalysis)
	if !ok {
		t.Fatalf("frame is %T, want CodeAnalysis", conn.sent[0])
	}
	if frame.Language != "javascript" {
		t.Errorf("frame language = %q", frame.Language)
	}
	if frame.Metrics.Lines != 1 {
		t.Errorf("metrics lines = %d, want 1", frame.Metrics.Lines)
	}

	// The result arrives asynchronously; the cache stays untouched.
	if _, ok := c.cache.Result(); ok {
		t.Error("cache should not be written on the send path")
	}
}

func TestAnalyzeCode_DisconnectedFallsBack(t *testing.T) {
	conn := &fakeConn{connected: false}
	store := openTestHistory(t)
	c := newTestClient(t, conn, &fakeAPI{}, store)

	code := "function tick() { orbit(); } // heartbeat loop"
	if err := c.AnalyzeCode(context.Background(), code, "javascript"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}

	got, ok := c.cache.Result()
	if !ok {
		t.Fatal("fallback should fill the cache synchronously")
	}
	want := analysis.Fallback(code, metrics.ComputeScaled(code, "javascript", c.scaling))
	if got.EvolutionPoints != want.EvolutionPoints {
		t.Errorf("EvolutionPoints = %d, want %d", got.EvolutionPoints, want.EvolutionPoints)
	}
	if len(conn.sent) != 0 {
		t.Errorf("no frame should be sent while disconnected")
	}

	// The outcome lands in local history.
	analyses, err := store.ListAnalyses(10)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(analyses) != 1 || analyses[0].Source != history.SourceFallback {
		t.Errorf("history = %+v", analyses)
	}
}

func TestAnalyzeCode_SendFailureFallsBack(t *testing.T) {
	conn := &fakeConn{connected: true, sendErr: errors.New("write: broken pipe")}
	c := newTestClient(t, conn, &fakeAPI{}, nil)

	if err := c.AnalyzeCode(context.Background(), "def f():\n    pass", "python"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}
	if _, ok := c.cache.Result(); !ok {
		t.Error("failed send should fall back to local analysis")
	}
}

func TestAnalyzeRemote(t *testing.T) {
	conn := &fakeConn{}
	api := &fakeAPI{result: &analysis.Result{EvolutionPoints: 42, StyleFeedback: analysis.StyleDeveloping}}
	c := newTestClient(t, conn, api, nil)

	result, err := c.AnalyzeRemote(context.Background(), "function f() {}", "javascript")
	if err != nil {
		t.Fatalf("AnalyzeRemote failed: %v", err)
	}
	if result.EvolutionPoints != 42 {
		t.Errorf("EvolutionPoints = %d, want 42", result.EvolutionPoints)
	}
	got, ok := c.cache.Result()
	if !ok || got.EvolutionPoints != 42 {
		t.Errorf("cache = %+v, ok = %v", got, ok)
	}
}

func TestSessionLifecycle_RecordsHistory(t *testing.T) {
	conn := &fakeConn{connected: true}
	store := openTestHistory(t)
	c := newTestClient(t, conn, &fakeAPI{}, store)

	if err := c.StartSession(session.StartConfig{PlanetID: "p1", ProjectName: "orbit"}); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if !c.SessionActive() {
		t.Fatal("session should be active")
	}

	// One local analysis counted against the session.
	conn.connected = false
	if err := c.AnalyzeCode(context.Background(), "func f() {}", "go"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}
	conn.connected = true

	if err := c.EndSession(); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if c.SessionActive() {
		t.Error("session should be inactive after EndSession")
	}

	sessions, err := store.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].ProjectName != "orbit" {
		t.Errorf("session = %+v", sessions[0])
	}
	if sessions[0].AnalysesPerformed != 1 {
		t.Errorf("AnalysesPerformed = %d, want 1", sessions[0].AnalysesPerformed)
	}
	if sessions[0].EndedAt == nil {
		t.Error("EndedAt should be set")
	}
}

func TestEndSession_NoOpWhenIdle(t *testing.T) {
	conn := &fakeConn{connected: true}
	c := newTestClient(t, conn, &fakeAPI{}, nil)

	if err := c.EndSession(); err != nil {
		t.Fatalf("EndSession on idle client = %v, want nil", err)
	}
	if len(conn.sent) != 0 {
		t.Errorf("no frame should be sent, got %d", len(conn.sent))
	}
}

func TestRefreshStats(t *testing.T) {
	api := &fakeAPI{stats: &analysis.SessionStats{SessionsToday: 5, CurrentStreak: 3}}
	c := newTestClient(t, &fakeConn{}, api, nil)

	if err := c.RefreshStats(context.Background()); err != nil {
		t.Fatalf("RefreshStats failed: %v", err)
	}
	if got := c.cache.Stats(); got.SessionsToday != 5 || got.CurrentStreak != 3 {
		t.Errorf("stats = %+v", got)
	}
}

func TestHandlers_UpdateCache(t *testing.T) {
	c := newTestClient(t, &fakeConn{}, &fakeAPI{}, nil)

	c.handleAnalysisResult(protocol.AnalysisResult{
		Result: analysis.Result{EvolutionPoints: 12},
	})
	if got, ok := c.cache.Result(); !ok || got.EvolutionPoints != 12 {
		t.Errorf("result = %+v, ok = %v", got, ok)
	}

	c.handleAchievement(protocol.AchievementUnlocked{
		Achievement: analysis.Achievement{ID: "a1", Title: "First Light"},
	})
	if got := c.cache.Achievements(); len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("achievements = %+v", got)
	}

	c.handleStats(protocol.SessionStatsUpdate{
		Stats: analysis.SessionStats{TotalAchievements: 9},
	})
	if got := c.cache.Stats(); got.TotalAchievements != 9 {
		t.Errorf("stats = %+v", got)
	}
}

func TestHandleAnalysisResult_RecordsSubmittedLanguage(t *testing.T) {
	conn := &fakeConn{connected: true}
	store := openTestHistory(t)
	c := newTestClient(t, conn, &fakeAPI{}, store)

	// Submit over the stream, then deliver the asynchronous result.
	if err := c.AnalyzeCode(context.Background(), "func f() {}", "go"); err != nil {
		t.Fatalf("AnalyzeCode failed: %v", err)
	}
	c.handleAnalysisResult(protocol.AnalysisResult{
		Result: analysis.Result{EvolutionPoints: 12},
	})

	analyses, err := store.ListAnalyses(10)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(analyses) != 1 {
		t.Fatalf("got %d analyses, want 1", len(analyses))
	}
	if analyses[0].Language != "go" {
		t.Errorf("Language = %q, want go", analyses[0].Language)
	}
	if analyses[0].Source != history.SourceStream {
		t.Errorf("Source = %q, want %q", analyses[0].Source, history.SourceStream)
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.jsx", "javascript"},
		{"view.tsx", "typescript"},
		{"script.PY", "python"},
		{"style.css", "css"},
		{"README.md", "plaintext"},
	}
	for _, tt := range tests {
		if got := LanguageForPath(tt.path); got != tt.want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
