package analysis

import (
	"strings"
	"testing"
	"time"

	"devplanet/internal/metrics"
)

func TestFallback_Empty(t *testing.T) {
	for _, code := range []string{"", "   ", "\n\t "} {
		r := Fallback(code, metrics.Compute(code, "go"))
		if r.EvolutionPoints != 0 {
			t.Errorf("EvolutionPoints = %d, want 0", r.EvolutionPoints)
		}
		if r.ComplexityScore != 0 {
			t.Errorf("ComplexityScore = %d, want 0", r.ComplexityScore)
		}
		if r.StyleFeedback != StyleEmpty {
			t.Errorf("StyleFeedback = %q, want %q", r.StyleFeedback, StyleEmpty)
		}
	}
}

func TestFallback_Tiers(t *testing.T) {
	// Neutral filler that triggers no feature patterns.
	short := strings.Repeat("x", 40)
	long := strings.Repeat("x", 90)

	r := Fallback(short, metrics.Compute(short, "go"))
	if r.StyleFeedback != StyleEmbryonic {
		t.Errorf("short StyleFeedback = %q, want %q", r.StyleFeedback, StyleEmbryonic)
	}
	if r.EvolutionPoints != 40/5 {
		t.Errorf("short EvolutionPoints = %d, want %d", r.EvolutionPoints, 40/5)
	}

	r = Fallback(long, metrics.Compute(long, "go"))
	if r.StyleFeedback != StyleDeveloping {
		t.Errorf("long StyleFeedback = %q, want %q", r.StyleFeedback, StyleDeveloping)
	}
	if r.EvolutionPoints != 90/3 {
		t.Errorf("long EvolutionPoints = %d, want %d", r.EvolutionPoints, 90/3)
	}
}

func TestFallback_DevelopingWithStructureAndComments(t *testing.T) {
	// 60 characters including a function keyword and a line comment.
	code := "function tick() { orbit(); } // planet heartbeat"
	code += strings.Repeat(" ", 60-len(code))
	if len(code) != 60 {
		t.Fatalf("test input must be 60 chars, got %d", len(code))
	}

	r := Fallback(code, metrics.Compute(code, "javascript"))

	if r.StyleFeedback != StyleDeveloping {
		t.Errorf("StyleFeedback = %q, want %q", r.StyleFeedback, StyleDeveloping)
	}
	// base 60/3=20, structure +10, comments +8
	if r.EvolutionPoints != 38 {
		t.Errorf("EvolutionPoints = %d, want 38", r.EvolutionPoints)
	}
	// baseline + one suggestion per detected feature, in detection order
	if len(r.Suggestions) != 3 {
		t.Fatalf("Suggestions = %v, want baseline + 2 features", r.Suggestions)
	}
}

func TestFallback_FeatureBonuses(t *testing.T) {
	// Pad to the developing tier with neutral filler so base points are
	// stable (len 90 -> base 30).
	pad := func(s string) string {
		return s + strings.Repeat("x", 90-len(s))
	}

	tests := []struct {
		name       string
		code       string
		points     int
		complexity int
	}{
		{"no features", pad(""), 30, 2},
		{"loops", pad("for (;;) {}"), 42, 5},
		{"error handling", pad("try { } catch (e) { }"), 45, 4},
		{"async", pad("await orbit()"), 40, 4},
		{"go error idiom", pad("if err != nil { return }"), 45, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Fallback(tt.code, metrics.Compute(tt.code, "go"))
			if r.EvolutionPoints != tt.points {
				t.Errorf("EvolutionPoints = %d, want %d", r.EvolutionPoints, tt.points)
			}
			if r.ComplexityScore != tt.complexity {
				t.Errorf("ComplexityScore = %d, want %d", r.ComplexityScore, tt.complexity)
			}
		})
	}
}

func TestFallback_Clamped(t *testing.T) {
	// A long snapshot with every feature present drives the raw sum past
	// both caps.
	code := strings.Repeat("function f() { for (;;) { try { await g() } catch (e) {} } } // loop\n", 10)
	r := Fallback(code, metrics.Compute(code, "javascript"))

	if r.EvolutionPoints < 0 || r.EvolutionPoints > 100 {
		t.Errorf("EvolutionPoints = %d, out of [0,100]", r.EvolutionPoints)
	}
	if r.EvolutionPoints != 100 {
		t.Errorf("EvolutionPoints = %d, want clamp at 100", r.EvolutionPoints)
	}
	if r.ComplexityScore < 0 || r.ComplexityScore > 10 {
		t.Errorf("ComplexityScore = %d, out of [0,10]", r.ComplexityScore)
	}
	if r.ComplexityScore != 10 {
		t.Errorf("ComplexityScore = %d, want clamp at 10", r.ComplexityScore)
	}
}

func TestFallback_Deterministic(t *testing.T) {
	code := "async function evolve() {\n  // grow\n  for (const p of planets) { await p.tick() }\n}"
	m := metrics.Compute(code, "javascript")

	a := Fallback(code, m)
	b := Fallback(code, m)

	if a.EvolutionPoints != b.EvolutionPoints ||
		a.ComplexityScore != b.ComplexityScore ||
		a.StyleFeedback != b.StyleFeedback {
		t.Error("Fallback not deterministic for identical input")
	}
	if len(a.Suggestions) != len(b.Suggestions) {
		t.Fatal("suggestion count differs between identical calls")
	}
	for i := range a.Suggestions {
		if a.Suggestions[i] != b.Suggestions[i] {
			t.Errorf("suggestion %d differs: %q vs %q", i, a.Suggestions[i], b.Suggestions[i])
		}
	}
	for k, v := range a.SkillDeltas {
		if b.SkillDeltas[k] != v {
			t.Errorf("skill delta %q differs", k)
		}
	}
}

func TestEmptyResult(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := EmptyResult(now)

	if r.EvolutionPoints != 0 || r.ComplexityScore != 0 {
		t.Error("empty result should carry zero scores")
	}
	if r.StyleFeedback != StyleEmpty {
		t.Errorf("StyleFeedback = %q, want %q", r.StyleFeedback, StyleEmpty)
	}
	if !r.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, now)
	}
}

func TestFallback_SkillDeltas(t *testing.T) {
	code := "function a() {}\n// documented\n" + strings.Repeat("x", 30)
	m := metrics.Compute(code, "javascript")
	r := Fallback(code, m)

	if r.SkillDeltas["web_development_skill"] != 1.5 {
		t.Errorf("web_development_skill = %v, want 1.5 for javascript", r.SkillDeltas["web_development_skill"])
	}
	if r.SkillDeltas["api_design_discipline"] != 1.0 {
		t.Errorf("api_design_discipline = %v, want 1.0 when functions present", r.SkillDeltas["api_design_discipline"])
	}

	plain := strings.Repeat("x", 60)
	r = Fallback(plain, metrics.Compute(plain, "go"))
	if r.SkillDeltas["web_development_skill"] != 0.5 {
		t.Errorf("web_development_skill = %v, want 0.5 for go", r.SkillDeltas["web_development_skill"])
	}
	if r.SkillDeltas["api_design_discipline"] != 0.2 {
		t.Errorf("api_design_discipline = %v, want 0.2 without functions", r.SkillDeltas["api_design_discipline"])
	}
}
