// Package fetch supplies the raw record corpus for a target from upstream
// news sources (RSS/Atom feeds, the GDELT doc API, NewsAPI).
//
// The fetcher never fails the scoring pipeline over individual sources:
// per-source errors are collected out-of-band in Diagnostics and a hard
// error is returned only when every configured source failed. An empty
// corpus means "no data", not failure.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/asifah/flashpoint/internal/assess"
	"github.com/asifah/flashpoint/internal/logging"
)

const (
	// maxConcurrentFetches limits parallel source pulls.
	maxConcurrentFetches = 5

	// perSourceTimeout bounds each individual source request.
	perSourceTimeout = 30 * time.Second

	// maxItemsPerSource caps how many records one source may contribute.
	maxItemsPerSource = 30

	// descriptionLimit truncates overlong feed descriptions.
	descriptionLimit = 500

	userAgent = "Flashpoint/1.0 (OSINT monitoring)"
)

// Source describes one upstream endpoint bound to a target.
type Source struct {
	Type     string `yaml:"type"`     // "rss", "gdelt", "newsapi"
	Name     string `yaml:"name"`     // source name as fed to the credibility table
	URL      string `yaml:"url"`      // feed URL (rss) or API base URL
	Query    string `yaml:"query"`    // query expression (gdelt, newsapi)
	Language string `yaml:"language"` // gdelt sourcelang, e.g. "eng", "ara"
}

// SourceError records a single source failure for diagnostics.
type SourceError struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}

// Diagnostics reports per-source outcomes alongside the fetched corpus.
type Diagnostics struct {
	Sources int           `json:"sources"`
	Failed  int           `json:"failed"`
	Errors  []SourceError `json:"errors,omitempty"`
}

// Fetcher pulls records for targets from their configured sources.
type Fetcher struct {
	client     *http.Client
	sources    map[string][]Source
	newsAPIKey string
	windowDays int
}

// New creates a Fetcher. sources maps target id to its upstream endpoints;
// windowDays bounds how far back API queries reach.
func New(sources map[string][]Source, newsAPIKey string, windowDays int) *Fetcher {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Fetcher{
		client:     &http.Client{Timeout: perSourceTimeout},
		sources:    sources,
		newsAPIKey: newsAPIKey,
		windowDays: windowDays,
	}
}

// Fetch pulls all sources for a target in parallel and returns the combined
// corpus. The error is non-nil only when the target has sources configured
// and every one of them failed; partial failures surface in Diagnostics.
func (f *Fetcher) Fetch(ctx context.Context, target string, now time.Time) ([]assess.Record, Diagnostics, error) {
	srcs := f.sources[target]
	diag := Diagnostics{Sources: len(srcs)}
	if len(srcs) == 0 {
		return nil, diag, nil
	}

	var (
		mu      sync.Mutex
		records []assess.Record
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, src := range srcs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			srcCtx, cancel := context.WithTimeout(ctx, perSourceTimeout)
			defer cancel()

			recs, err := f.fetchSource(srcCtx, src, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				diag.Failed++
				diag.Errors = append(diag.Errors, SourceError{Source: src.Name, Err: err.Error()})
				logging.Warn("source fetch failed", "target", target, "source", src.Name, "err", err)
				return nil // errors reported per-source, never fail the group
			}
			records = append(records, recs...)
			return nil
		})
	}
	_ = g.Wait()

	if diag.Failed == diag.Sources {
		return nil, diag, fmt.Errorf("all %d sources failed for %s", diag.Sources, target)
	}
	return records, diag, nil
}

// fetchSource dispatches one source by type.
func (f *Fetcher) fetchSource(ctx context.Context, src Source, now time.Time) ([]assess.Record, error) {
	switch src.Type {
	case "rss":
		return f.fetchRSS(ctx, src)
	case "gdelt":
		return f.fetchGDELT(ctx, src)
	case "newsapi":
		return f.fetchNewsAPI(ctx, src, now)
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// fetchRSS retrieves and converts an RSS/Atom feed.
func (f *Fetcher) fetchRSS(ctx context.Context, src Source) ([]assess.Record, error) {
	body, err := f.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	records := make([]assess.Record, 0, len(feed.Items))
	for i, item := range feed.Items {
		if i >= maxItemsPerSource {
			break
		}

		published := ""
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		desc := truncate(stripHTML(item.Description), descriptionLimit)
		records = append(records, assess.Record{
			Title:       item.Title,
			Description: desc,
			Content:     truncate(stripHTML(item.Content), descriptionLimit),
			Source:      src.Name,
			URL:         item.Link,
			PublishedAt: published,
			Language:    feed.Language,
		})
	}
	return records, nil
}

// gdeltResponse mirrors the artlist JSON shape of the GDELT doc API.
type gdeltResponse struct {
	Articles []struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		SeenDate string `json:"seendate"`
	} `json:"articles"`
}

// fetchGDELT queries the GDELT doc API. Article bodies are not available
// through artlist mode, so the title stands in for description and content,
// matching how these records are scored downstream.
func (f *Fetcher) fetchGDELT(ctx context.Context, src Source) ([]assess.Record, error) {
	params := url.Values{}
	params.Set("query", src.Query)
	params.Set("mode", "artlist")
	params.Set("maxrecords", fmt.Sprint(maxItemsPerSource))
	params.Set("timespan", fmt.Sprintf("%dd", f.windowDays))
	params.Set("format", "json")
	if src.Language != "" {
		params.Set("sourcelang", src.Language)
	}

	body, err := f.get(ctx, src.URL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp gdeltResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode gdelt response: %w", err)
	}

	records := make([]assess.Record, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		records = append(records, assess.Record{
			Title:       art.Title,
			Description: art.Title,
			Content:     art.Title,
			Source:      src.Name,
			URL:         art.URL,
			PublishedAt: normalizeGDELTDate(art.SeenDate),
			Language:    src.Language,
		})
	}
	return records, nil
}

// newsAPIResponse mirrors the NewsAPI everything endpoint.
type newsAPIResponse struct {
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// fetchNewsAPI queries the NewsAPI everything endpoint. Skipped when no API
// key is configured.
func (f *Fetcher) fetchNewsAPI(ctx context.Context, src Source, now time.Time) ([]assess.Record, error) {
	if f.newsAPIKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", src.Query)
	params.Set("from", now.AddDate(0, 0, -f.windowDays).Format("2006-01-02"))
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprint(maxItemsPerSource))
	params.Set("apiKey", f.newsAPIKey)

	body, err := f.get(ctx, src.URL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp newsAPIResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}

	records := make([]assess.Record, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		name := art.Source.Name
		if name == "" {
			name = src.Name
		}
		records = append(records, assess.Record{
			Title:       art.Title,
			Description: art.Description,
			Content:     art.Content,
			Source:      name,
			URL:         art.URL,
			PublishedAt: art.PublishedAt,
			Language:    "en",
		})
	}
	return records, nil
}

// get performs an HTTP GET with the shared client and checks the status.
func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// normalizeGDELTDate converts GDELT's compact timestamp (20260122T153000Z)
// to RFC3339. Unconvertible values pass through untouched so the scorer's
// parse-default path handles them.
func normalizeGDELTDate(seen string) string {
	if seen == "" {
		return ""
	}
	t, err := time.Parse("20060102T150405Z", seen)
	if err != nil {
		return seen
	}
	return t.UTC().Format(time.RFC3339)
}

// stripHTML flattens markup to plain text.
func stripHTML(s string) string {
	if s == "" || !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
