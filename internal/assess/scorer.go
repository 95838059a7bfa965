package assess

import (
	"math"
	"time"

	"github.com/asifah/flashpoint/internal/lexicon"
)

const (
	// fullWeightHours is how long a record keeps full weight before decay.
	fullWeightHours = 24.0

	// decayHalfLifeDays is the half-life applied beyond the full-weight window.
	decayHalfLifeDays = 7.0

	// defaultAgeHours is assumed when a publish timestamp is missing or
	// unparseable. Old enough to sit past the recency split, young enough
	// to still contribute.
	defaultAgeHours = 48.0
)

// publishedFormats are the accepted publish timestamp layouts.
var publishedFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Scorer scores individual records against a target using a Lexicon.
type Scorer struct {
	lex *lexicon.Lexicon
}

// NewScorer returns a Scorer bound to the given lexicon.
func NewScorer(lex *lexicon.Lexicon) *Scorer {
	return &Scorer{lex: lex}
}

// Score evaluates one record for a target at the given instant. The second
// return value is false when the record is excluded from the corpus: either
// it failed the relevance gate, or its weighted score came out exactly zero.
func (s *Scorer) Score(rec Record, target string, now time.Time) (ScoredRecord, bool) {
	text := rec.FullText()
	if !s.lex.RelevanceMatch(target, text) {
		return ScoredRecord{}, false
	}

	raw, matches, deesc := s.lex.ScoreKeywords(text)
	age := AgeHours(rec.PublishedAt, now)
	decay := TimeDecay(age)
	weight := s.lex.SourceWeight(rec.Source)
	weighted := raw * weight * decay

	if weighted == 0 {
		return ScoredRecord{}, false
	}

	return ScoredRecord{
		Record:        rec,
		RawScore:      raw,
		Matches:       matches,
		AgeHours:      age,
		SourceWeight:  weight,
		TimeDecay:     decay,
		WeightedScore: weighted,
		Deescalation:  deesc,
	}, true
}

// AgeHours parses a publish timestamp and returns the record's age in hours
// at now. Missing or unparseable timestamps default to 48 hours; future
// dates clamp to zero.
func AgeHours(publishedAt string, now time.Time) float64 {
	if publishedAt == "" {
		return defaultAgeHours
	}
	for _, layout := range publishedFormats {
		pub, err := time.Parse(layout, publishedAt)
		if err != nil {
			continue
		}
		age := now.Sub(pub).Hours()
		if age < 0 {
			return 0
		}
		return age
	}
	return defaultAgeHours
}

// TimeDecay returns the recency factor for a record: full weight for the
// first 24 hours, then an exponential decay with a 7-day half-life counted
// from the end of the full-weight window. TimeDecay(24) == 1.0 and
// TimeDecay(24+168) == 0.5 exactly.
func TimeDecay(ageHours float64) float64 {
	if ageHours <= fullWeightHours {
		return 1.0
	}
	halfLives := ((ageHours - fullWeightHours) / 24.0) / decayHalfLifeDays
	return math.Pow(0.5, halfLives)
}
