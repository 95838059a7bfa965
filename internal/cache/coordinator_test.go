package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asifah/flashpoint/internal/assess"
	"github.com/asifah/flashpoint/internal/lexicon"
)

// memKV is an in-memory KV for coordinator tests. TTLs are ignored.
type memKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{m: make(map[string][]byte)}
}

func (kv *memKV) Get(key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *memKV) Set(key string, value []byte, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = append([]byte(nil), value...)
	return nil
}

// fakeFetcher counts calls and optionally blocks to widen race windows.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	delay   time.Duration
	records []assess.Record
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string, now time.Time) ([]assess.Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.records, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func relevantRecord(now time.Time) assess.Record {
	return assess.Record{
		Title:       "Iran airstrike reported",
		Source:      "Reuters",
		PublishedAt: now.Add(-2 * time.Hour).Format(time.RFC3339),
	}
}

func newTestCoordinator(kv KV, fetcher CorpusFetcher) *Coordinator {
	return New(kv, fetcher, assess.NewScorer(lexicon.Default()), nil, Options{})
}

func seedEntry(t *testing.T, kv KV, target string, result assess.Assessment, computedAt time.Time) {
	t.Helper()
	buf, err := json.Marshal(Entry{Result: result, ComputedAt: computedAt})
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(entryKey(target), buf, time.Hour); err != nil {
		t.Fatal(err)
	}
}

func TestGetOrRefreshMissingEntry(t *testing.T) {
	now := time.Now()
	kv := newMemKV()
	fetcher := &fakeFetcher{records: []assess.Record{relevantRecord(now)}}
	c := newTestCoordinator(kv, fetcher)

	// First call answers immediately with the skeleton and queues a refresh.
	got := c.GetOrRefresh("iran")
	if got.Success {
		t.Error("skeleton must report Success=false")
	}
	if got.Cached {
		t.Error("skeleton must not claim to be cached")
	}
	if got.Message == "" {
		t.Error("skeleton should explain itself")
	}

	c.Wait()

	got = c.GetOrRefresh("iran")
	if !got.Success || !got.Cached {
		t.Errorf("after refresh: success=%v cached=%v, want both true", got.Success, got.Cached)
	}
	if got.Stale {
		t.Error("freshly refreshed entry must not be stale")
	}
	if got.Probability <= 0 {
		t.Errorf("Probability = %d, want > 0", got.Probability)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
	}
}

func TestRefreshIsSingleFlight(t *testing.T) {
	now := time.Now()
	kv := newMemKV()
	fetcher := &fakeFetcher{
		delay:   100 * time.Millisecond,
		records: []assess.Record{relevantRecord(now)},
	}
	c := newTestCoordinator(kv, fetcher)

	if !c.TriggerRefresh("iran") {
		t.Fatal("first trigger must start a refresh")
	}
	if c.TriggerRefresh("iran") {
		t.Error("second trigger while in flight must be a no-op")
	}
	c.GetOrRefresh("iran") // also must not start another

	c.Wait()

	if fetcher.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
	}
	if !c.TriggerRefresh("iran") {
		t.Error("flag must be cleared once the refresh completes")
	}
	c.Wait()
}

func TestFailedRefreshKeepsCachedResult(t *testing.T) {
	kv := newMemKV()
	fetcher := &fakeFetcher{err: errors.New("all sources down")}
	c := newTestCoordinator(kv, fetcher)

	prior := assess.Assessment{
		Success:     true,
		Target:      "iran",
		Probability: 42,
		Version:     assess.SchemaVersion,
	}
	seedEntry(t, kv, "iran", prior, time.Now().Add(-24*time.Hour))

	got := c.GetOrRefresh("iran")
	if !got.Cached || !got.Stale {
		t.Errorf("stale entry: cached=%v stale=%v, want both true", got.Cached, got.Stale)
	}
	if got.Probability != 42 {
		t.Errorf("Probability = %d, want the cached 42", got.Probability)
	}

	c.Wait()

	// The failed refresh must not have touched the stored entry.
	got = c.GetOrRefresh("iran")
	if got.Probability != 42 || !got.Success {
		t.Errorf("after failed refresh: probability=%d success=%v, want 42/true", got.Probability, got.Success)
	}
	c.Wait()

	if fetcher.callCount() < 1 {
		t.Error("refresh should have been attempted")
	}
}

func TestFreshEntryServedWithoutRefresh(t *testing.T) {
	kv := newMemKV()
	fetcher := &fakeFetcher{}
	c := newTestCoordinator(kv, fetcher)

	seedEntry(t, kv, "iran", assess.Assessment{Success: true, Target: "iran", Probability: 7}, time.Now())

	got := c.GetOrRefresh("iran")
	if !got.Cached || got.Stale {
		t.Errorf("fresh entry: cached=%v stale=%v, want true/false", got.Cached, got.Stale)
	}

	c.Wait()
	if fetcher.callCount() != 0 {
		t.Errorf("fetch calls = %d, want 0 for a fresh entry", fetcher.callCount())
	}
}

func TestEmptyCorpusStoresNoData(t *testing.T) {
	kv := newMemKV()
	fetcher := &fakeFetcher{} // nil records, nil error
	c := newTestCoordinator(kv, fetcher)

	c.TriggerRefresh("iran")
	c.Wait()

	got := c.GetOrRefresh("iran")
	if !got.Cached {
		t.Fatal("empty-corpus result must still be cached")
	}
	if got.Success {
		t.Error("empty corpus must report Success=false")
	}
	if got.Probability != 0 {
		t.Errorf("Probability = %d, want 0", got.Probability)
	}
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	kv := newMemKV()
	if err := kv.Set(entryKey("iran"), []byte("{not json"), time.Hour); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{records: []assess.Record{relevantRecord(time.Now())}}
	c := newTestCoordinator(kv, fetcher)

	got := c.GetOrRefresh("iran")
	if got.Cached {
		t.Error("corrupt entry must be served as a miss")
	}
	c.Wait()
}
