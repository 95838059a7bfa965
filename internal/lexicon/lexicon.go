// Package lexicon holds the static escalation vocabulary used to score
// records: keyword severities, de-escalation terms, source credibility
// weights, and the per-target relevance keyword sets.
//
// All tables are loaded once at startup and never mutated afterwards.
// Matching is case-insensitive substring containment; overlapping keywords
// each count on their own ("strike" matches inside "airstrike"), which the
// aggregation thresholds were tuned against.
package lexicon

import "strings"

// DefaultSourceWeight is applied to sources missing from the credibility table.
const DefaultSourceWeight = 0.5

// Lexicon binds the keyword and credibility tables to the target registry.
type Lexicon struct {
	severities    map[string]float64 // keyword -> signed severity
	sourceWeights map[string]float64 // exact source name -> weight
	targets       map[string]*TargetProfile
	targetOrder   []string
}

// New builds a Lexicon from explicit tables. The maps are copied so callers
// cannot mutate the Lexicon afterwards. Escalation severities are expected
// in [1.5, 3.0] and de-escalation severities in [-2.0, -1.5].
func New(severities, sourceWeights map[string]float64, targets []TargetProfile) *Lexicon {
	l := &Lexicon{
		severities:    make(map[string]float64, len(severities)),
		sourceWeights: make(map[string]float64, len(sourceWeights)),
		targets:       make(map[string]*TargetProfile, len(targets)),
	}
	for kw, sev := range severities {
		l.severities[strings.ToLower(kw)] = sev
	}
	for name, w := range sourceWeights {
		l.sourceWeights[name] = w
	}
	for i := range targets {
		t := targets[i]
		l.targets[t.ID] = &t
		l.targetOrder = append(l.targetOrder, t.ID)
	}
	return l
}

// Default returns a Lexicon loaded with the built-in tables and targets.
func Default() *Lexicon {
	return WithTargets(DefaultTargets())
}

// WithTargets returns a Lexicon using the built-in keyword and credibility
// tables with a custom target registry.
func WithTargets(targets []TargetProfile) *Lexicon {
	return New(defaultSeverities(), defaultSourceWeights(), targets)
}

// ScoreKeywords scans text for every known keyword and returns the summed
// signed severity, the matched keyword set, and whether at least one
// de-escalation keyword matched. Each distinct keyword counts once no matter
// how often it appears.
func (l *Lexicon) ScoreKeywords(text string) (raw float64, matches map[string]float64, hasDeescalation bool) {
	lower := strings.ToLower(text)
	matches = make(map[string]float64)

	for kw, sev := range l.severities {
		if strings.Contains(lower, kw) {
			matches[kw] = sev
			raw += sev
			if sev < 0 {
				hasDeescalation = true
			}
		}
	}
	return raw, matches, hasDeescalation
}

// RelevanceMatch reports whether text mentions the target at all. Records
// failing this gate are excluded from the corpus entirely.
func (l *Lexicon) RelevanceMatch(target, text string) bool {
	profile, ok := l.targets[target]
	if !ok {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range profile.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SourceWeight returns the credibility weight for a source name. The lookup
// is exact and case-sensitive; unknown or empty names fall back to
// DefaultSourceWeight.
func (l *Lexicon) SourceWeight(source string) float64 {
	if w, ok := l.sourceWeights[source]; ok {
		return w
	}
	return DefaultSourceWeight
}

// Target returns the profile for a target id.
func (l *Lexicon) Target(id string) (*TargetProfile, bool) {
	t, ok := l.targets[id]
	return t, ok
}

// Targets returns all profiles in registration order.
func (l *Lexicon) Targets() []*TargetProfile {
	out := make([]*TargetProfile, 0, len(l.targetOrder))
	for _, id := range l.targetOrder {
		out = append(out, l.targets[id])
	}
	return out
}
