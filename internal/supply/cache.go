package supply

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/pders01/polarstock/internal/debuglog"
	"github.com/pders01/polarstock/internal/provider"
)

// maxPageFetches bounds how many continuation pages one Acquire may pull
// when a provider keeps returning pages that overlap what is cached.
const maxPageFetches = 3

// ShuffleFunc permutes n elements using swap.
type ShuffleFunc func(n int, swap func(i, j int))

type cacheEntry struct {
	query     string
	items     []provider.Photo
	ids       map[string]struct{}
	cursor    int
	nextToken string
	pageSize  int
	total     int
	exhausted bool
}

// CacheStats describes one query's cached state.
type CacheStats struct {
	Query        string
	Items        int
	Cursor       int
	TotalResults int
	HasMore      bool
	Exhausted    bool
}

// QueryResultCache buffers provider results per query and hands them out in
// cursor order, fetching continuation pages on demand and looping back to the
// first result once everything known has been served.
type QueryResultCache struct {
	mu       sync.Mutex
	provider provider.Provider
	entries  map[string]*cacheEntry
	shuffle  ShuffleFunc
	log      *debuglog.FieldLogger
}

type CacheOption func(*QueryResultCache)

// WithShuffle replaces the first-page shuffle; tests pass a no-op.
func WithShuffle(fn ShuffleFunc) CacheOption {
	return func(c *QueryResultCache) {
		c.shuffle = fn
	}
}

func NewQueryResultCache(p provider.Provider, opts ...CacheOption) *QueryResultCache {
	c := &QueryResultCache{
		provider: p,
		entries:  make(map[string]*cacheEntry),
		shuffle:  rand.Shuffle,
		log:      debuglog.Component("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeQuery trims surrounding whitespace. Case and inner spacing are
// preserved; the query is otherwise used exactly as typed.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}

// Acquire returns at most count photos for query with distinct ids. Provider
// failures never escape: a failed first page yields nil, a failed later page
// falls back to looping over what is already cached.
func (c *QueryResultCache) Acquire(ctx context.Context, query string, count int) []provider.Photo {
	if count < 1 {
		return nil
	}
	query = NormalizeQuery(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.log.With("query", query)

	entry, ok := c.entries[query]
	if !ok {
		var err error
		entry, err = c.fetchFirstPage(ctx, query, count)
		if err != nil {
			log.Warnf("first page failed: %v", err)
			return nil
		}
		c.entries[query] = entry
	}

	fetchFailed := false
	for pages := 0; entry.cursor+count > len(entry.items) && entry.nextToken != "" && pages < maxPageFetches; pages++ {
		if err := c.fetchNextPage(ctx, entry); err != nil {
			log.Warnf("next page failed, looping cached results: %v", err)
			fetchFailed = true
			break
		}
	}

	if entry.cursor+count > len(entry.items) {
		if entry.nextToken == "" || fetchFailed || entry.cursor >= len(entry.items) {
			log.Debugf("wrapping cursor at %d of %d", entry.cursor, len(entry.items))
			entry.cursor = 0
			entry.exhausted = true
		}
	}

	start := entry.cursor
	end := start + count
	if end > len(entry.items) {
		end = len(entry.items)
	}
	entry.cursor += count

	if start >= end {
		return nil
	}
	out := make([]provider.Photo, end-start)
	copy(out, entry.items[start:end])
	return out
}

func (c *QueryResultCache) fetchFirstPage(ctx context.Context, query string, count int) (*cacheEntry, error) {
	pageSize := count * 2
	page, err := c.provider.Search(ctx, query, pageSize, "")
	if err != nil {
		return nil, err
	}

	entry := &cacheEntry{
		query:     query,
		ids:       make(map[string]struct{}, len(page.Photos)),
		nextToken: page.NextPageToken,
		pageSize:  pageSize,
		total:     page.TotalResults,
	}
	entry.appendUnique(page.Photos)

	c.shuffle(len(entry.items), func(i, j int) {
		entry.items[i], entry.items[j] = entry.items[j], entry.items[i]
	})

	c.log.With("query", query).Debugf("cached first page: %d photos, more=%t", len(entry.items), entry.nextToken != "")
	return entry, nil
}

func (c *QueryResultCache) fetchNextPage(ctx context.Context, entry *cacheEntry) error {
	page, err := c.provider.Search(ctx, entry.query, entry.pageSize, entry.nextToken)
	if err != nil {
		return err
	}
	added := entry.appendUnique(page.Photos)
	entry.nextToken = page.NextPageToken
	if page.TotalResults > 0 {
		entry.total = page.TotalResults
	}
	c.log.With("query", entry.query).Debugf("appended %d of %d photos from next page", added, len(page.Photos))
	return nil
}

// appendUnique appends photos whose id is not cached yet and returns how many were added.
func (e *cacheEntry) appendUnique(photos []provider.Photo) int {
	added := 0
	for _, p := range photos {
		if _, dup := e.ids[p.ID]; dup {
			continue
		}
		e.ids[p.ID] = struct{}{}
		e.items = append(e.items, p)
		added++
	}
	return added
}

// Stats reports the cached state for query. ok is false when nothing is cached.
func (c *QueryResultCache) Stats(query string) (CacheStats, bool) {
	query = NormalizeQuery(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return CacheStats{Query: query}, false
	}
	return CacheStats{
		Query:        query,
		Items:        len(entry.items),
		Cursor:       entry.cursor,
		TotalResults: entry.total,
		HasMore:      entry.nextToken != "",
		Exhausted:    entry.exhausted,
	}, true
}

// Reset drops every cached query.
func (c *QueryResultCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}
