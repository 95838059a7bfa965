// Package assess implements the scoring-and-aggregation pipeline: each
// fetched record is scored against a target's lexicon, and the scored corpus
// is reduced to a bounded threat probability with timeline, confidence and
// momentum labels.
package assess

import (
	"strings"
	"time"
)

// SchemaVersion is the version string stamped on every Assessment payload.
const SchemaVersion = "1.0.0"

// Momentum labels.
const (
	MomentumIncreasing = "increasing"
	MomentumStable     = "stable"
	MomentumDecreasing = "decreasing"
)

// Confidence labels.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// TimelineUnknown is reported when there is no data to derive a timeline.
const TimelineUnknown = "Unknown"

// Record is one fetched text item about a target. Immutable once fetched.
// PublishedAt is kept as the upstream string (RFC3339 or YYYY-MM-DD) and may
// be empty or unparseable; scoring defaults such records to 48 hours old.
type Record struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
	Source      string `json:"source"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Language    string `json:"language,omitempty"`
}

// FullText concatenates the scorable text fields.
func (r Record) FullText() string {
	return strings.Join([]string{r.Title, r.Description, r.Content}, " ")
}

// ScoredRecord is a Record plus everything the scorer derived from it.
// Consumed read-only by the aggregation engine and discarded afterwards.
type ScoredRecord struct {
	Record        Record
	RawScore      float64            // sum of signed keyword severities
	Matches       map[string]float64 // matched keyword -> severity
	AgeHours      float64
	SourceWeight  float64
	TimeDecay     float64
	WeightedScore float64 // RawScore * SourceWeight * TimeDecay
	Deescalation  bool    // at least one de-escalation keyword matched
}

// Counts summarizes the corpus an assessment was derived from.
type Counts struct {
	Total        int `json:"total"`
	Recent       int `json:"recent"`
	Older        int `json:"older"`
	Deescalatory int `json:"deescalatory"`
}

// Breakdown exposes the scoring arithmetic for transparency.
type Breakdown struct {
	BaseScore          float64 `json:"base_score"`
	WeightedSum        float64 `json:"weighted_sum"`
	NormalizedScore    float64 `json:"normalized_score"`
	MomentumMultiplier float64 `json:"momentum_multiplier"`
	FinalScore         float64 `json:"final_score"`
}

// Contributor is one of the top scored records by absolute weighted score.
type Contributor struct {
	Title               string  `json:"title"`
	Source              string  `json:"source"`
	URL                 string  `json:"url,omitempty"`
	PublishedAt         string  `json:"publishedAt,omitempty"`
	WeightedScore       float64 `json:"weighted_score"`
	ContributionPercent float64 `json:"contribution_percent"`
	SourceWeight        float64 `json:"source_weight"`
	TimeDecay           float64 `json:"time_decay"`
	Deescalation        bool    `json:"deescalation"`
}

// Assessment is the unit placed in the cache and returned to callers.
type Assessment struct {
	Success         bool          `json:"success"`
	Target          string        `json:"target"`
	Probability     int           `json:"probability"`
	Timeline        string        `json:"timeline"`
	Confidence      string        `json:"confidence"`
	Momentum        string        `json:"momentum"`
	Counts          Counts        `json:"counts"`
	Breakdown       Breakdown     `json:"scoring_breakdown"`
	TopContributors []Contributor `json:"top_contributors"`
	GeneratedAt     time.Time     `json:"generated_at"`
	Cached          bool          `json:"cached"`
	Stale           bool          `json:"stale,omitempty"`
	Message         string        `json:"message,omitempty"`
	Version         string        `json:"version"`
}
