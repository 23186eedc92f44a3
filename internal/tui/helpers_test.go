package tui

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/provider"
	"github.com/pders01/polarstock/internal/search"
	"github.com/pders01/polarstock/internal/storage"
	"github.com/pders01/polarstock/internal/supply"
)

// stockProvider serves n photos in offset-token pages.
type stockProvider struct {
	n   int
	err error
}

func (p *stockProvider) Search(_ context.Context, query string, pageSize int, token string) (*provider.SearchPage, error) {
	if p.err != nil {
		return nil, &provider.FetchError{Query: query, Err: p.err}
	}
	start, _ := strconv.Atoi(token)
	end := start + pageSize
	if end > p.n {
		end = p.n
	}
	page := &provider.SearchPage{TotalResults: p.n}
	for i := start; i < end; i++ {
		page.Photos = append(page.Photos, provider.Photo{
			ID:     strconv.Itoa(i),
			Width:  1920,
			Height: 1280,
			Alt:    fmt.Sprintf("%s %d", query, i),
			Sizes:  provider.Sizes{Large: fmt.Sprintf("https://images.example.com/%d-large.jpg", i)},
			Attribution: provider.Attribution{
				Author:     fmt.Sprintf("Author %d", i),
				ProfileURL: fmt.Sprintf("https://www.pexels.com/@author%d", i),
			},
		})
	}
	if end < p.n {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(ref string) error {
	f.opened = append(f.opened, ref)
	return f.err
}

type fakeExporter struct {
	items    []supply.ExportItem
	settings supply.CompressionSettings
	path     string
	err      error
}

func (f *fakeExporter) Export(_ context.Context, items []supply.ExportItem, settings supply.CompressionSettings) (string, error) {
	f.items = items
	f.settings = settings
	return f.path, f.err
}

type fakeEditor struct {
	out string
	err error
}

func (f *fakeEditor) Edit(_ context.Context, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

type fakeProjectStore struct {
	mu      sync.Mutex
	project *storage.Project
	saves   int
	failFor int // fail this many saves before succeeding
}

func (f *fakeProjectStore) SaveLastProject(p *storage.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failFor > 0 {
		f.failFor--
		return fmt.Errorf("database is locked")
	}
	f.project = p
	return nil
}

func (f *fakeProjectStore) GetLastProject() (*storage.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.project == nil {
		return nil, storage.ErrNotFound
	}
	return f.project, nil
}

type testApp struct {
	*App
	opened   *fakeOpener
	exports  *fakeExporter
	projects *fakeProjectStore
}

func newTestApp(t *testing.T, photos int) *testApp {
	t.Helper()

	catalog, err := search.DefaultCatalog()
	require.NoError(t, err)

	cache := supply.NewQueryResultCache(&stockProvider{n: photos},
		supply.WithShuffle(func(int, func(i, j int)) {}))
	orch := supply.NewOrchestrator(cache, supply.NewExclusionTracker(100, nil), supply.OrchestratorOptions{})

	ta := &testApp{
		opened:   &fakeOpener{},
		exports:  &fakeExporter{path: "/tmp/exports/polarstock-20260101-120000.zip"},
		projects: &fakeProjectStore{},
	}
	ta.App = NewApp(config.TestConfig(), Deps{
		Orchestrator: orch,
		Store:        ta.projects,
		Suggester:    search.NewEngine(catalog),
		Launcher:     ta.opened,
		Exporter:     ta.exports,
	})
	ta.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return ta
}

// startBoard runs the setup flow synchronously and returns a filled board.
func (ta *testApp) startBoard(t *testing.T, topic string, slots int) {
	t.Helper()
	ta.topicInput.SetValue(topic)
	ta.slotsInput.SetValue(strconv.Itoa(slots))
	ta.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewBoard, ta.view)
	ta.Update(ta.changeTopic(topic)())
	require.False(t, ta.busy)
}

func (ta *testApp) press(msg tea.KeyMsg) tea.Cmd {
	_, cmd := ta.Update(msg)
	return cmd
}

func (ta *testApp) pressKey(key string) tea.Cmd {
	return ta.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func slotIDs(b *supply.Board) []string {
	var ids []string
	for _, s := range b.Snapshot() {
		if s.Current == nil {
			ids = append(ids, "")
			continue
		}
		ids = append(ids, s.Current.ID)
	}
	return ids
}
