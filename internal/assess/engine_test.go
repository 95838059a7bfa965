package assess

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// mkScored builds a minimal scored record for aggregation tests.
func mkScored(title, source string, weighted, ageHours float64) ScoredRecord {
	return ScoredRecord{
		Record:        Record{Title: title, Source: source},
		RawScore:      weighted,
		AgeHours:      ageHours,
		SourceWeight:  1.0,
		TimeDecay:     1.0,
		WeightedScore: weighted,
		Deescalation:  weighted < 0,
	}
}

func TestAggregateSingleFreshRecord(t *testing.T) {
	now := time.Now()
	scored := []ScoredRecord{mkScored("airstrike on tehran", "Reuters", 6.0, 2)}

	a := Aggregate("iran", scored, now)

	// base 0.5, normalized 12, no older records so momentum defaults
	// to increasing: (0.5+12)*1.2 = 15.0
	if a.Probability != 15 {
		t.Errorf("Probability = %d, want 15", a.Probability)
	}
	if a.Timeline != "60+ Days" {
		t.Errorf("Timeline = %q, want 60+ Days", a.Timeline)
	}
	if a.Confidence != ConfidenceLow {
		t.Errorf("Confidence = %q, want Low", a.Confidence)
	}
	if a.Momentum != MomentumIncreasing {
		t.Errorf("Momentum = %q, want increasing", a.Momentum)
	}
	if !a.Success {
		t.Error("Success should be true for a non-empty corpus")
	}

	wantBreakdown := Breakdown{
		BaseScore:          0.5,
		WeightedSum:        6.0,
		NormalizedScore:    12.0,
		MomentumMultiplier: 1.2,
		FinalScore:         15.0,
	}
	if diff := cmp.Diff(wantBreakdown, a.Breakdown); diff != "" {
		t.Errorf("breakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateEmptyCorpus(t *testing.T) {
	now := time.Now()
	a := Aggregate("iran", nil, now)

	if a.Success {
		t.Error("empty corpus must report Success=false")
	}
	if a.Probability != 0 {
		t.Errorf("Probability = %d, want 0", a.Probability)
	}
	if a.Timeline != TimelineUnknown {
		t.Errorf("Timeline = %q, want %q", a.Timeline, TimelineUnknown)
	}
	if a.Confidence != ConfidenceLow || a.Momentum != MomentumStable {
		t.Errorf("got confidence=%q momentum=%q, want Low/stable", a.Confidence, a.Momentum)
	}
	if a.Message == "" {
		t.Error("empty corpus should carry an explanatory message")
	}
	if a.Version != SchemaVersion {
		t.Errorf("Version = %q, want %q", a.Version, SchemaVersion)
	}
}

func TestAggregateDeescalatoryCorpusStaysNonNegative(t *testing.T) {
	now := time.Now()
	scored := []ScoredRecord{
		mkScored("ceasefire holds", "Reuters", -2.0, 3),
		mkScored("peace talks resume", "Al Jazeera", -1.8, 5),
		mkScored("truce extended", "BBC News", -2.0, 70),
	}

	a := Aggregate("iran", scored, now)
	if a.Probability < 0 || a.Probability > 99 {
		t.Fatalf("Probability = %d, must be within [0, 99]", a.Probability)
	}
	// Volume still contributes: 3 records * 0.5 base, normalized floored
	// at zero, 2 recent / 1 older lifts momentum: floor(1.5 * 1.2) = 1.
	if a.Breakdown.NormalizedScore != 0 {
		t.Errorf("NormalizedScore = %v, want 0", a.Breakdown.NormalizedScore)
	}
	if a.Probability != 1 {
		t.Errorf("Probability = %d, want 1", a.Probability)
	}
	if a.Counts.Deescalatory != 3 {
		t.Errorf("Deescalatory = %d, want 3", a.Counts.Deescalatory)
	}
}

func TestAggregateProbabilityCap(t *testing.T) {
	now := time.Now()
	var scored []ScoredRecord
	for i := 0; i < 40; i++ {
		scored = append(scored, mkScored(fmt.Sprintf("strike %d", i), fmt.Sprintf("s%d", i), 10.0, 2))
	}

	a := Aggregate("iran", scored, now)
	if a.Probability != 99 {
		t.Errorf("Probability = %d, want capped at 99", a.Probability)
	}
	if a.Breakdown.BaseScore != 15 {
		t.Errorf("BaseScore = %v, want capped at 15", a.Breakdown.BaseScore)
	}
	if a.Breakdown.NormalizedScore != 85 {
		t.Errorf("NormalizedScore = %v, want capped at 85", a.Breakdown.NormalizedScore)
	}
}

func TestMomentumFor(t *testing.T) {
	tests := []struct {
		recent, older  int
		wantLabel      string
		wantMultiplier float64
	}{
		{3, 1, MomentumIncreasing, 1.2},
		{3, 3, MomentumStable, 1.0},
		{1, 3, MomentumDecreasing, 0.8},
		{5, 0, MomentumIncreasing, 1.2}, // no older records defaults bullish
		{0, 0, MomentumIncreasing, 1.2},
		{0, 5, MomentumDecreasing, 0.8},
	}
	for _, tt := range tests {
		label, mult := momentumFor(tt.recent, tt.older)
		if label != tt.wantLabel || mult != tt.wantMultiplier {
			t.Errorf("momentumFor(%d, %d) = (%q, %v), want (%q, %v)",
				tt.recent, tt.older, label, mult, tt.wantLabel, tt.wantMultiplier)
		}
	}
}

func TestTimelineFor(t *testing.T) {
	tests := []struct {
		probability int
		momentum    string
		want        string
	}{
		{85, MomentumIncreasing, "0-7 Days"},
		{85, MomentumStable, "0-14 Days"},
		{65, MomentumIncreasing, "7-14 Days"},
		{65, MomentumDecreasing, "14-30 Days"},
		{45, MomentumIncreasing, "0-30 Days"},
		{45, MomentumStable, "0-30 Days"},
		{25, MomentumIncreasing, "30-60 Days"},
		{10, MomentumIncreasing, "60+ Days"},
		{0, MomentumStable, "60+ Days"},
	}
	for _, tt := range tests {
		if got := timelineFor(tt.probability, tt.momentum); got != tt.want {
			t.Errorf("timelineFor(%d, %s) = %q, want %q", tt.probability, tt.momentum, got, tt.want)
		}
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		records, sources int
		want             string
	}{
		{25, 9, ConfidenceHigh},
		{20, 8, ConfidenceHigh},
		{25, 7, ConfidenceMedium}, // source diversity gate fails High
		{12, 6, ConfidenceMedium},
		{10, 5, ConfidenceMedium},
		{9, 9, ConfidenceLow},
		{5, 3, ConfidenceLow},
		{0, 0, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := confidenceFor(tt.records, tt.sources); got != tt.want {
			t.Errorf("confidenceFor(%d, %d) = %q, want %q", tt.records, tt.sources, got, tt.want)
		}
	}
}

func TestTopContributors(t *testing.T) {
	var scored []ScoredRecord
	for i := 0; i < 20; i++ {
		scored = append(scored, mkScored(fmt.Sprintf("r%d", i), "Reuters", float64(i+1), 2))
	}
	// One strong de-escalatory record; ranking is by absolute value.
	scored = append(scored, mkScored("ceasefire", "Reuters", -30.0, 2))

	var sum float64
	for _, sr := range scored {
		sum += sr.WeightedScore
	}

	top := topContributors(scored, sum)
	if len(top) != 15 {
		t.Fatalf("len = %d, want 15", len(top))
	}
	if top[0].Title != "ceasefire" {
		t.Errorf("top[0] = %q, want the largest absolute contributor", top[0].Title)
	}
	for i := 1; i < len(top); i++ {
		if math.Abs(top[i].WeightedScore) > math.Abs(top[i-1].WeightedScore) {
			t.Errorf("contributors not sorted by |weighted| at %d", i)
		}
	}
	for _, c := range top {
		if c.ContributionPercent < 0 {
			t.Errorf("ContributionPercent must be non-negative, got %v", c.ContributionPercent)
		}
	}
}

func TestTopContributorsSmallDenominator(t *testing.T) {
	// Weighted sum near zero must not blow up percentages: the divisor
	// floors at 1.
	scored := []ScoredRecord{
		mkScored("up", "Reuters", 0.3, 2),
		mkScored("down", "Reuters", -0.3, 2),
	}
	top := topContributors(scored, 0)
	for _, c := range top {
		if c.ContributionPercent > 100 {
			t.Errorf("ContributionPercent = %v, want <= 100", c.ContributionPercent)
		}
	}
}
