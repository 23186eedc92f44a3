package supply

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pders01/polarstock/internal/provider"
)

// fakeProvider pages through a fixed photo list using offsets as tokens.
type fakeProvider struct {
	mu        sync.Mutex
	photos    []provider.Photo
	calls     []fakeCall
	failPages map[int]error // keyed by call index
	overlap   int           // repeat this many trailing photos at the start of each later page
}

type fakeCall struct {
	Query    string
	PageSize int
	Token    string
}

func newFakeProvider(n int) *fakeProvider {
	return &fakeProvider{photos: makePhotos(n)}
}

func makePhotos(n int) []provider.Photo {
	photos := make([]provider.Photo, n)
	for i := range photos {
		photos[i] = provider.Photo{
			ID:    strconv.Itoa(i),
			Sizes: provider.Sizes{Large: fmt.Sprintf("https://images.example.com/%d-large.jpg", i)},
			Attribution: provider.Attribution{
				Author: fmt.Sprintf("Author %d", i),
			},
		}
	}
	return photos
}

func (f *fakeProvider) Search(ctx context.Context, query string, pageSize int, token string) (*provider.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.calls)
	f.calls = append(f.calls, fakeCall{Query: query, PageSize: pageSize, Token: token})
	if err := ctx.Err(); err != nil {
		return nil, &provider.FetchError{Query: query, Err: err}
	}
	if err, ok := f.failPages[idx]; ok {
		return nil, err
	}

	start := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, errors.New("bad token")
		}
		start = n - f.overlap
		if start < 0 {
			start = 0
		}
	}
	end := start + pageSize
	if end > len(f.photos) {
		end = len(f.photos)
	}

	page := &provider.SearchPage{TotalResults: len(f.photos)}
	if start < end {
		page.Photos = append([]provider.Photo(nil), f.photos[start:end]...)
	}
	if end < len(f.photos) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func noShuffle(int, func(i, j int)) {}

func ids(photos []provider.Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.ID
	}
	return out
}

// memPersister is an in-memory Persister.
type memPersister struct {
	ids     []string
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersister) LoadExclusions() ([]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]string(nil), m.ids...), nil
}

func (m *memPersister) SaveExclusions(ids []string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ids = append([]string(nil), ids...)
	return nil
}

func newTestOrchestrator(p provider.Provider, persister Persister) *Orchestrator {
	cache := NewQueryResultCache(p, WithShuffle(noShuffle))
	return NewOrchestrator(cache, NewExclusionTracker(DefaultExclusionCapacity, persister), OrchestratorOptions{})
}

func slotPhotoIDs(b *Board) []string {
	var out []string
	for _, s := range b.Snapshot() {
		if s.Current == nil {
			out = append(out, "")
			continue
		}
		out = append(out, s.Current.ID)
	}
	return out
}
