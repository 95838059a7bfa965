package lexicon

import (
	"math"
	"testing"
)

func TestScoreKeywordsOverlapping(t *testing.T) {
	lex := Default()

	// "airstrike" contains "strike", so both keywords fire.
	raw, matches, deesc := lex.ScoreKeywords("Israel launches airstrike on Iran")
	if raw != 6.0 {
		t.Errorf("raw = %v, want 6.0", raw)
	}
	if _, ok := matches["strike"]; !ok {
		t.Error("expected substring match on \"strike\"")
	}
	if _, ok := matches["airstrike"]; !ok {
		t.Error("expected match on \"airstrike\"")
	}
	if deesc {
		t.Error("no de-escalation keywords in text")
	}
}

func TestScoreKeywordsCaseInsensitive(t *testing.T) {
	lex := Default()

	raw, matches, deesc := lex.ScoreKeywords("CEASEFIRE Declared In Gaza")
	if raw != -2.0 {
		t.Errorf("raw = %v, want -2.0", raw)
	}
	if len(matches) != 1 {
		t.Errorf("matches = %v, want only ceasefire", matches)
	}
	if !deesc {
		t.Error("expected de-escalation flag")
	}
}

func TestScoreKeywordsMixed(t *testing.T) {
	lex := Default()

	// strike(3.0) + airstrike(3.0) + ceasefire(-2.0) = 4.0
	raw, _, deesc := lex.ScoreKeywords("airstrike resumes after ceasefire collapses")
	if raw != 4.0 {
		t.Errorf("raw = %v, want 4.0", raw)
	}
	if !deesc {
		t.Error("expected de-escalation flag when any negative keyword matches")
	}
}

func TestScoreKeywordsCountsDistinctOnce(t *testing.T) {
	lex := Default()

	// "missile" twice still counts once.
	raw, _, _ := lex.ScoreKeywords("missile after missile")
	if raw != 3.0 {
		t.Errorf("raw = %v, want 3.0", raw)
	}
}

func TestScoreKeywordsNoMatch(t *testing.T) {
	lex := Default()

	raw, matches, deesc := lex.ScoreKeywords("markets rally on earnings news")
	if raw != 0 || len(matches) != 0 || deesc {
		t.Errorf("got raw=%v matches=%v deesc=%v, want all zero", raw, matches, deesc)
	}
}

func TestSourceWeight(t *testing.T) {
	lex := Default()

	tests := []struct {
		source string
		want   float64
	}{
		{"Reuters", 1.0},
		{"Al Jazeera", 0.8},
		{"CNN", 0.6},
		{"GDELT", 0.4},
		{"Reddit", 0.3},
		{"reuters", DefaultSourceWeight}, // lookup is case-sensitive
		{"Some Blog", DefaultSourceWeight},
		{"", DefaultSourceWeight},
	}
	for _, tt := range tests {
		if got := lex.SourceWeight(tt.source); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SourceWeight(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestRelevanceMatch(t *testing.T) {
	lex := Default()

	if !lex.RelevanceMatch("iran", "Tehran officials issued a statement") {
		t.Error("expected tehran to match the iran target")
	}
	if lex.RelevanceMatch("iran", "flooding in southern France") {
		t.Error("unrelated text should not match")
	}
	if lex.RelevanceMatch("atlantis", "iran tensions rise") {
		t.Error("unknown target should never match")
	}
}

func TestTargetsOrder(t *testing.T) {
	lex := Default()

	got := lex.Targets()
	want := []string{"iran", "hezbollah", "houthis"}
	if len(got) != len(want) {
		t.Fatalf("got %d targets, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("targets[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestNewCopiesTables(t *testing.T) {
	sev := map[string]float64{"Strike": 3.0}
	weights := map[string]float64{"Reuters": 1.0}
	lex := New(sev, weights, DefaultTargets())

	// Mutating the input maps must not affect the lexicon.
	sev["strike"] = -99
	weights["Reuters"] = -99

	if raw, _, _ := lex.ScoreKeywords("strike reported"); raw != 3.0 {
		t.Errorf("raw = %v, want 3.0", raw)
	}
	if w := lex.SourceWeight("Reuters"); w != 1.0 {
		t.Errorf("weight = %v, want 1.0", w)
	}
}
