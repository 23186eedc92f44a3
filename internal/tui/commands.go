package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/polarstock/internal/search"
	"github.com/pders01/polarstock/internal/storage"
	"github.com/pders01/polarstock/internal/supply"
)

type batchDoneMsg struct {
	result *supply.BatchResult
}

type suggestionsMsg struct {
	query string
	items []*search.Suggestion
}

type lastProjectMsg struct {
	project *storage.Project
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type editDoneMsg struct {
	slotID int
	ref    string
	err    error
}

type detailRenderedMsg struct {
	content string
}

type errorMsg struct {
	err error
}

func (a *App) fillAll() tea.Cmd {
	return func() tea.Msg {
		return batchDoneMsg{result: a.orchestrator.FillAll(a.ctx, a.board)}
	}
}

func (a *App) fillSlot(id int) tea.Cmd {
	return func() tea.Msg {
		return batchDoneMsg{result: a.orchestrator.FillSlot(a.ctx, a.board, id)}
	}
}

func (a *App) changeTopic(topic string) tea.Cmd {
	return func() tea.Msg {
		return batchDoneMsg{result: a.orchestrator.ChangeTopic(a.ctx, a.board, topic)}
	}
}

// startBatch marks the app busy and runs cmd next to the spinner.
func (a *App) startBatch(label string, cmd tea.Cmd) tea.Cmd {
	a.busy = true
	a.status = label
	a.kind = StatusInfo
	a.err = nil
	return tea.Batch(a.spinner.Tick, cmd)
}

func (a *App) suggest(query string) tea.Cmd {
	if a.suggester == nil {
		return nil
	}
	return func() tea.Msg {
		items, err := a.suggester.Suggest(strings.TrimSpace(query), maxSuggestions)
		if err != nil {
			return errorMsg{err: wrapErr("suggestions failed", err)}
		}
		return suggestionsMsg{query: query, items: items}
	}
}

func (a *App) loadLastProject() tea.Cmd {
	if a.store == nil {
		return nil
	}
	return func() tea.Msg {
		project, err := a.store.GetLastProject()
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return errorMsg{err: err}
		}
		return lastProjectMsg{project: project}
	}
}

func (a *App) saveProject(topic string, slots int) tea.Cmd {
	if a.store == nil {
		return nil
	}
	project := &storage.Project{
		Topic:     topic,
		SlotCount: slots,
		UpdatedAt: time.Now(),
	}
	return func() tea.Msg {
		if err := retryOperation(func() error { return a.store.SaveLastProject(project) }); err != nil {
			return errorMsg{err: wrapErr("failed to remember project", err)}
		}
		return nil
	}
}

func (a *App) export(items []supply.ExportItem) tea.Cmd {
	settings, err := supply.CompressionPreset(a.config.Export.Preset)
	if err != nil {
		return func() tea.Msg { return exportDoneMsg{err: err} }
	}
	return func() tea.Msg {
		path, err := a.exporter.Export(a.ctx, items, settings)
		return exportDoneMsg{path: path, count: len(items), err: err}
	}
}

func (a *App) edit(slotID int, ref string) tea.Cmd {
	return func() tea.Msg {
		out, err := a.editor.Edit(a.ctx, ref)
		return editDoneMsg{slotID: slotID, ref: out, err: err}
	}
}

func (a *App) openRef(ref string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(ref); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", ref, err)}
		}
		return nil
	}
}

func (a *App) renderMarkdown(markdown string) tea.Cmd {
	return func() tea.Msg {
		renderer, err := a.getRenderer()
		if err != nil {
			return detailRenderedMsg{content: markdown}
		}
		rendered, err := renderer.Render(markdown)
		if err != nil {
			return detailRenderedMsg{content: markdown}
		}
		return detailRenderedMsg{content: rendered}
	}
}

func slotMarkdown(s supply.Slot) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", s.Label()))

	var flags []string
	flags = append(flags, s.State.String())
	if s.Locked {
		flags = append(flags, "locked")
	}
	if s.Selected {
		flags = append(flags, "selected")
	}
	if s.Deleted {
		flags = append(flags, "deleted")
	}
	if s.EditedOverlay != "" {
		flags = append(flags, "edited")
	}
	content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(flags, " · ")))

	if !s.HasImage() {
		content.WriteString("No image yet.\n")
		return content.String()
	}

	p := s.Current
	content.WriteString(fmt.Sprintf("**Photo** `%s` · %d×%d\n\n", p.ID, p.Width, p.Height))
	if p.Attribution.Author != "" {
		if p.Attribution.ProfileURL != "" {
			content.WriteString(fmt.Sprintf("**Photographer** [%s](%s)\n\n", p.Attribution.Author, p.Attribution.ProfileURL))
		} else {
			content.WriteString(fmt.Sprintf("**Photographer** %s\n\n", p.Attribution.Author))
		}
	}
	if p.Alt != "" {
		content.WriteString(fmt.Sprintf("> %s\n\n", p.Alt))
	}
	if p.PageURL != "" {
		content.WriteString(fmt.Sprintf("[View on Pexels](%s)\n\n", p.PageURL))
	}
	if ref := s.Reference(); ref != "" {
		content.WriteString(fmt.Sprintf("**Reference** %s\n\n", ref))
	}

	if len(s.History) > 0 {
		content.WriteString("---\n\n## Earlier images\n\n")
		for i, h := range s.History {
			author := h.Attribution.Author
			if author == "" {
				author = "unknown"
			}
			content.WriteString(fmt.Sprintf("%d. `%s` by %s\n", i+1, h.ID, author))
		}
	}

	return content.String()
}

func (kh *KeyHandler) helpMarkdown() string {
	b := kh.config.Keys.Bindings
	rows := [][2]string{
		{b.Refresh, "refresh the current image"},
		{b.RefreshAll, "refresh every unlocked image"},
		{b.Undo, "bring back the previous image"},
		{b.Lock, "lock or unlock the current image"},
		{b.Delete, "delete the current image"},
		{b.Restore, "restore all deleted images"},
		{b.Select, "select the current image"},
		{b.SelectAll, "select or unselect all"},
		{b.ChangeTopic, "change topic"},
		{b.Open, "open in viewer"},
		{b.Edit, "edit with external editor"},
		{b.Details, "show details"},
		{b.Export, "export selection"},
		{b.Back, "back"},
		{b.Quit, "quit"},
	}

	var content strings.Builder
	content.WriteString("# Keys\n\n| Key | Action |\n|---|---|\n")
	for _, r := range rows {
		content.WriteString(fmt.Sprintf("| `%s` | %s |\n", displayKey(r[0]), r[1]))
	}
	content.WriteString("\nArrow keys, Tab and Shift+Tab move between images.\n")
	return content.String()
}

func displayKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<i) // exponential backoff
				time.Sleep(delay)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
