// Package history keeps a rolling window of daily assessment snapshots per
// target, backing the trend sparklines on the dashboards.
package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/asifah/flashpoint/internal/assess"
)

const (
	// maxDays is the rolling window of daily snapshots kept per target.
	maxDays = 90

	// seriesTTL keeps the stored series alive one day past the window.
	seriesTTL = (maxDays + 1) * 24 * time.Hour
)

// KV is the persistence the archive needs; satisfied by *store.Store.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// Snapshot is one day's condensed assessment for a target.
type Snapshot struct {
	Date        string `json:"date"` // YYYY-MM-DD (UTC)
	Probability int    `json:"probability"`
	Momentum    string `json:"momentum"`
	Confidence  string `json:"confidence"`
	Records     int    `json:"records"`
}

// series is the stored JSON document: date -> snapshot.
type series struct {
	Snapshots   map[string]Snapshot `json:"snapshots"`
	LastUpdated time.Time           `json:"last_updated"`
}

// Trends is the payload served for sparklines.
type Trends struct {
	Success       bool     `json:"success"`
	DaysCollected int      `json:"days_collected"`
	Dates         []string `json:"dates"`
	Probability   []int    `json:"probability"`
	Momentum      []string `json:"momentum"`
}

// Archive stores and serves per-target snapshot series.
type Archive struct {
	kv KV
}

// New returns an Archive backed by kv.
func New(kv KV) *Archive {
	return &Archive{kv: kv}
}

func seriesKey(target string) string {
	return "threat:" + target + ":history"
}

// Append records today's snapshot for a target, overwriting any earlier
// snapshot from the same day and trimming the window to 90 days.
func (a *Archive) Append(target string, result assess.Assessment, now time.Time) error {
	s, err := a.load(target)
	if err != nil {
		return err
	}

	day := now.UTC().Format("2006-01-02")
	s.Snapshots[day] = Snapshot{
		Date:        day,
		Probability: result.Probability,
		Momentum:    result.Momentum,
		Confidence:  result.Confidence,
		Records:     result.Counts.Total,
	}
	s.LastUpdated = now.UTC()

	if len(s.Snapshots) > maxDays {
		dates := sortedDates(s.Snapshots)
		for _, old := range dates[:len(dates)-maxDays] {
			delete(s.Snapshots, old)
		}
	}

	buf, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode history for %s: %w", target, err)
	}
	return a.kv.Set(seriesKey(target), buf, seriesTTL)
}

// Trends returns up to days of snapshot series for a target, oldest first.
// A target with no history yields Success=false, not an error.
func (a *Archive) Trends(target string, days int) (Trends, error) {
	s, err := a.load(target)
	if err != nil {
		return Trends{}, err
	}
	if len(s.Snapshots) == 0 {
		return Trends{}, nil
	}

	dates := sortedDates(s.Snapshots)
	if days > 0 && len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	t := Trends{Success: true, DaysCollected: len(dates)}
	for _, d := range dates {
		snap := s.Snapshots[d]
		t.Dates = append(t.Dates, d)
		t.Probability = append(t.Probability, snap.Probability)
		t.Momentum = append(t.Momentum, snap.Momentum)
	}
	return t, nil
}

// load reads the stored series, returning an empty one when absent.
func (a *Archive) load(target string) (series, error) {
	s := series{Snapshots: make(map[string]Snapshot)}

	buf, ok, err := a.kv.Get(seriesKey(target))
	if err != nil {
		return s, fmt.Errorf("load history for %s: %w", target, err)
	}
	if !ok {
		return s, nil
	}
	if err := json.Unmarshal(buf, &s); err != nil {
		// Corrupt history is not worth failing a refresh over; start fresh.
		return series{Snapshots: make(map[string]Snapshot)}, nil
	}
	if s.Snapshots == nil {
		s.Snapshots = make(map[string]Snapshot)
	}
	return s, nil
}

func sortedDates(m map[string]Snapshot) []string {
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
