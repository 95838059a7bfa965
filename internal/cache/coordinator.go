// Package cache implements the stale-serve assessment cache: reads always
// answer immediately from the last stored result, and anything stale kicks
// off at most one background refresh per target.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/asifah/flashpoint/internal/assess"
	"github.com/asifah/flashpoint/internal/history"
	"github.com/asifah/flashpoint/internal/logging"
)

// Defaults for refresh cadence and persistence.
const (
	DefaultStaleAfter   = 12 * time.Hour
	DefaultEntryTTL     = 24 * time.Hour
	DefaultFetchTimeout = 60 * time.Second
)

// KV is the persistence the coordinator needs; satisfied by *store.Store.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// CorpusFetcher gathers the raw records for one target.
type CorpusFetcher interface {
	Fetch(ctx context.Context, target string, now time.Time) ([]assess.Record, error)
}

// FetchFunc adapts a function to the CorpusFetcher interface.
type FetchFunc func(ctx context.Context, target string, now time.Time) ([]assess.Record, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, target string, now time.Time) ([]assess.Record, error) {
	return f(ctx, target, now)
}

// Entry is the stored cache document for one target.
type Entry struct {
	Result     assess.Assessment `json:"result"`
	ComputedAt time.Time         `json:"computed_at"`
}

// Options tune the coordinator; zero values take the defaults above.
type Options struct {
	StaleAfter   time.Duration
	EntryTTL     time.Duration
	FetchTimeout time.Duration
}

// Coordinator serves cached assessments and manages background refreshes.
// Each target has at most one refresh in flight at a time; a failed refresh
// leaves the previous entry untouched.
type Coordinator struct {
	kv      KV
	fetcher CorpusFetcher
	scorer  *assess.Scorer
	archive *history.Archive // optional

	staleAfter   time.Duration
	entryTTL     time.Duration
	fetchTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool

	wg sync.WaitGroup
}

// New returns a Coordinator. archive may be nil to skip snapshot recording.
func New(kv KV, fetcher CorpusFetcher, scorer *assess.Scorer, archive *history.Archive, opts Options) *Coordinator {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = DefaultEntryTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Coordinator{
		kv:           kv,
		fetcher:      fetcher,
		scorer:       scorer,
		archive:      archive,
		staleAfter:   opts.StaleAfter,
		entryTTL:     opts.EntryTTL,
		fetchTimeout: opts.FetchTimeout,
		inflight:     make(map[string]bool),
	}
}

func entryKey(target string) string {
	return "threat:" + target + ":latest"
}

// GetOrRefresh returns the current assessment for a target without blocking
// on network work. A stale entry is served as-is with Stale set and a refresh
// triggered behind it; a missing entry yields the empty skeleton while the
// first refresh runs.
func (c *Coordinator) GetOrRefresh(target string) assess.Assessment {
	now := time.Now()

	entry, ok := c.load(target)
	if !ok {
		c.TriggerRefresh(target)
		skel := assess.NoData(target, now)
		skel.Message = "first scan in progress, check back shortly"
		return skel
	}

	result := entry.Result
	result.Cached = true
	if now.Sub(entry.ComputedAt) >= c.staleAfter {
		result.Stale = true
		c.TriggerRefresh(target)
	}
	return result
}

// TriggerRefresh starts a background refresh for a target unless one is
// already running. Reports whether a new refresh was started.
func (c *Coordinator) TriggerRefresh(target string) bool {
	c.mu.Lock()
	if c.inflight[target] {
		c.mu.Unlock()
		return false
	}
	c.inflight[target] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, target)
			c.mu.Unlock()
		}()
		c.refresh(target)
	}()
	return true
}

// refresh fetches, scores, and aggregates one target, then persists the
// result. Any failure logs and returns, leaving the prior entry in place.
func (c *Coordinator) refresh(target string) {
	// Refreshes outlive the request that triggered them, so they run on
	// their own deadline rather than the caller's context.
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	now := time.Now()
	started := now

	records, err := c.fetcher.Fetch(ctx, target, now)
	if err != nil {
		logging.Warn("refresh failed, keeping cached result", "target", target, "error", err)
		return
	}

	scored := make([]assess.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if sr, ok := c.scorer.Score(rec, target, now); ok {
			scored = append(scored, sr)
		}
	}

	var result assess.Assessment
	if len(scored) == 0 {
		result = assess.NoData(target, now)
	} else {
		result = assess.Aggregate(target, scored, now)
	}

	buf, err := json.Marshal(Entry{Result: result, ComputedAt: now})
	if err != nil {
		logging.Error("encode cache entry", "target", target, "error", err)
		return
	}
	if err := c.kv.Set(entryKey(target), buf, c.entryTTL); err != nil {
		logging.Error("store cache entry", "target", target, "error", err)
		return
	}

	if c.archive != nil {
		if err := c.archive.Append(target, result, now); err != nil {
			logging.Warn("record history snapshot", "target", target, "error", err)
		}
	}

	logging.Info("refresh complete",
		"target", target,
		"records", len(records),
		"relevant", len(scored),
		"probability", result.Probability,
		"took", time.Since(started).Round(time.Millisecond))
}

// load reads and decodes the stored entry for a target. A decode failure is
// treated as a miss.
func (c *Coordinator) load(target string) (Entry, bool) {
	buf, ok, err := c.kv.Get(entryKey(target))
	if err != nil {
		logging.Error("read cache entry", "target", target, "error", err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(buf, &entry); err != nil {
		logging.Error("decode cache entry", "target", target, "error", err)
		return Entry{}, false
	}
	return entry, true
}

// Start runs the periodic scan loop: an immediate pass over all targets,
// then one pass per staleness interval until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context, targets []string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.scanPass(targets)

		ticker := time.NewTicker(c.staleAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logging.Info("scan loop stopping")
				return
			case <-ticker.C:
				c.scanPass(targets)
			}
		}
	}()
}

// scanPass triggers a refresh for every target whose entry is missing or
// stale.
func (c *Coordinator) scanPass(targets []string) {
	now := time.Now()
	for _, target := range targets {
		entry, ok := c.load(target)
		if ok && now.Sub(entry.ComputedAt) < c.staleAfter {
			continue
		}
		c.TriggerRefresh(target)
	}
}

// Wait blocks until the scan loop and all in-flight refreshes finish.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
