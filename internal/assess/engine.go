package assess

import (
	"math"
	"sort"
	"time"
)

const (
	// baseScorePerRecord and baseScoreCap bound the volume component.
	baseScorePerRecord = 0.5
	baseScoreCap       = 15.0

	// weightedScale and weightedCap bound the severity component.
	weightedScale = 2.0
	weightedCap   = 85.0

	// recentWindowHours splits the corpus for the momentum ratio.
	recentWindowHours = 48.0

	maxProbability     = 99
	topContributorsMax = 15
)

// Confidence tier gates: record count and distinct source count must both
// clear a tier (evaluated High first).
const (
	highRecords   = 20
	highSources   = 8
	mediumRecords = 10
	mediumSources = 5
)

// Aggregate reduces a scored corpus into an Assessment. An empty corpus is a
// reported condition, not an error: it yields the NoData result.
func Aggregate(target string, scored []ScoredRecord, now time.Time) Assessment {
	if len(scored) == 0 {
		return NoData(target, now)
	}

	var (
		sum     float64
		recent  int
		older   int
		deesc   int
		sources = make(map[string]struct{})
	)
	for _, sr := range scored {
		sum += sr.WeightedScore
		if sr.AgeHours <= recentWindowHours {
			recent++
		} else {
			older++
		}
		if sr.Deescalation {
			deesc++
		}
		sources[sr.Record.Source] = struct{}{}
	}

	base := math.Min(float64(len(scored))*baseScorePerRecord, baseScoreCap)

	// Clamped at zero so an all-de-escalatory corpus bottoms out at the
	// volume component instead of going negative.
	normalized := math.Min(math.Max(sum*weightedScale, 0), weightedCap)

	momentum, multiplier := momentumFor(recent, older)

	final := (base + normalized) * multiplier
	probability := int(math.Floor(final))
	if probability > maxProbability {
		probability = maxProbability
	}
	if probability < 0 {
		probability = 0
	}

	return Assessment{
		Success:     true,
		Target:      target,
		Probability: probability,
		Timeline:    timelineFor(probability, momentum),
		Confidence:  confidenceFor(len(scored), len(sources)),
		Momentum:    momentum,
		Counts: Counts{
			Total:        len(scored),
			Recent:       recent,
			Older:        older,
			Deescalatory: deesc,
		},
		Breakdown: Breakdown{
			BaseScore:          base,
			WeightedSum:        sum,
			NormalizedScore:    normalized,
			MomentumMultiplier: multiplier,
			FinalScore:         final,
		},
		TopContributors: topContributors(scored, sum),
		GeneratedAt:     now,
		Version:         SchemaVersion,
	}
}

// NoData returns the schema-valid assessment reported when no relevant
// records exist for a target.
func NoData(target string, now time.Time) Assessment {
	return Assessment{
		Success:     false,
		Target:      target,
		Probability: 0,
		Timeline:    TimelineUnknown,
		Confidence:  ConfidenceLow,
		Momentum:    MomentumStable,
		Breakdown:   Breakdown{MomentumMultiplier: 1.0},
		GeneratedAt: now,
		Message:     "no relevant records",
		Version:     SchemaVersion,
	}
}

// momentumFor derives the trend label and multiplier from the recent/older
// split. No history at all defaults to the bullish case rather than
// dividing by zero.
func momentumFor(recent, older int) (string, float64) {
	if older == 0 {
		return MomentumIncreasing, 1.2
	}
	ratio := float64(recent) / float64(older)
	switch {
	case ratio > 1.5:
		return MomentumIncreasing, 1.2
	case ratio > 0.8:
		return MomentumStable, 1.0
	default:
		return MomentumDecreasing, 0.8
	}
}

// timelineFor maps probability and momentum to an expected-action window.
func timelineFor(probability int, momentum string) string {
	increasing := momentum == MomentumIncreasing
	switch {
	case probability >= 80:
		if increasing {
			return "0-7 Days"
		}
		return "0-14 Days"
	case probability >= 60:
		if increasing {
			return "7-14 Days"
		}
		return "14-30 Days"
	case probability >= 40:
		return "0-30 Days"
	case probability >= 20:
		return "30-60 Days"
	default:
		return "60+ Days"
	}
}

// confidenceFor gates the three tiers on corpus size and source diversity.
func confidenceFor(records, sources int) string {
	switch {
	case records >= highRecords && sources >= highSources:
		return ConfidenceHigh
	case records >= mediumRecords && sources >= mediumSources:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// topContributors returns the top records by absolute weighted score.
func topContributors(scored []ScoredRecord, totalWeighted float64) []Contributor {
	ranked := make([]ScoredRecord, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].WeightedScore) > math.Abs(ranked[j].WeightedScore)
	})

	if len(ranked) > topContributorsMax {
		ranked = ranked[:topContributorsMax]
	}

	denom := math.Max(math.Abs(totalWeighted), 1)
	out := make([]Contributor, 0, len(ranked))
	for _, sr := range ranked {
		out = append(out, Contributor{
			Title:               sr.Record.Title,
			Source:              sr.Record.Source,
			URL:                 sr.Record.URL,
			PublishedAt:         sr.Record.PublishedAt,
			WeightedScore:       sr.WeightedScore,
			ContributionPercent: math.Abs(sr.WeightedScore) / denom * 100,
			SourceWeight:        sr.SourceWeight,
			TimeDecay:           sr.TimeDecay,
			Deescalation:        sr.Deescalation,
		})
	}
	return out
}
