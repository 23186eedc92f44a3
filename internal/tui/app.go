package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/search"
	"github.com/pders01/polarstock/internal/storage"
	"github.com/pders01/polarstock/internal/supply"
)

const (
	// maxSuggestions is how many topic suggestions are listed under the input.
	maxSuggestions = 8
	slotCardWidth  = 28
)

// ProjectStore remembers the last topic and slot count.
type ProjectStore interface {
	SaveLastProject(project *storage.Project) error
	GetLastProject() (*storage.Project, error)
}

// Opener shows an image reference outside the terminal.
type Opener interface {
	Open(ref string) error
}

// ProviderHealth reports the image provider's circuit state: "closed",
// "half-open" or "open".
type ProviderHealth interface {
	State() string
}

// Deps are the collaborators the UI drives. Store, Suggester, Launcher,
// Exporter, Editor and Health may be nil; the matching actions are then
// unavailable.
type Deps struct {
	Orchestrator *supply.Orchestrator
	Store        ProjectStore
	Suggester    search.Suggester
	Launcher     Opener
	Exporter     supply.Exporter
	Editor       supply.Editor
	Health       ProviderHealth
}

type App struct {
	ctx          context.Context
	config       *config.Config
	orchestrator *supply.Orchestrator
	store        ProjectStore
	suggester    search.Suggester
	launcher     Opener
	exporter     supply.Exporter
	editor       supply.Editor
	health       ProviderHealth
	keyHandler   *KeyHandler

	board *supply.Board

	topicInput    textinput.Model
	slotsInput    textinput.Model
	setupFocus    setupField
	suggestions   []*search.Suggestion
	suggestionIdx int // -1 when no suggestion is highlighted

	viewport viewport.Model
	spinner  spinner.Model

	view     View
	cursor   int // zero-based index into the board
	busy     bool
	status   string
	kind     StatusKind
	err      error
	lastRun  *supply.BatchResult
	width    int
	height   int
	detailID int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	ApplyColors(cfg.UI.Colors)

	ti := textinput.New()
	ti.Placeholder = "Topic, e.g. Coffee Shop"
	ti.CharLimit = 128
	ti.ShowSuggestions = true
	ti.Focus()

	si := textinput.New()
	si.Placeholder = fmt.Sprintf("%d", supply.DefaultSlots)
	si.CharLimit = 2
	si.SetValue(fmt.Sprintf("%d", supply.ClampSlotCount(cfg.Engine.SlotCount)))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	app := &App{
		ctx:           context.Background(),
		config:        cfg,
		orchestrator:  deps.Orchestrator,
		store:         deps.Store,
		suggester:     deps.Suggester,
		launcher:      deps.Launcher,
		exporter:      deps.Exporter,
		editor:        deps.Editor,
		health:        deps.Health,
		board:         supply.NewBoard(cfg.Engine.SlotCount),
		topicInput:    ti,
		slotsInput:    si,
		suggestionIdx: -1,
		viewport:      viewport.New(0, 0),
		spinner:       sp,
		view:          ViewSetup,
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 100 {
		wordWrapWidth = 100
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadLastProject(),
		a.suggest(""),
		textinput.Blink,
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3

		inputWidth := msg.Width - 12
		if inputWidth > 60 {
			inputWidth = 60
		}
		if inputWidth < 20 {
			inputWidth = 20
		}
		a.topicInput.Width = inputWidth
		a.slotsInput.Width = 4
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case lastProjectMsg:
		if a.view == ViewSetup && a.topicInput.Value() == "" {
			a.topicInput.SetValue(msg.project.Topic)
			a.topicInput.CursorEnd()
			a.slotsInput.SetValue(fmt.Sprintf("%d", supply.ClampSlotCount(msg.project.SlotCount)))
			return a, a.suggest(msg.project.Topic)
		}
		return a, nil

	case batchDoneMsg:
		a.busy = false
		a.lastRun = msg.result
		a.clampCursor()
		switch msg.result.Outcome {
		case supply.FullFailure:
			a.setStatus(msg.result.Message(), StatusError)
		case supply.PartialSuccess:
			a.setStatus(msg.result.Message(), StatusWarn)
		default:
			if len(msg.result.Targets) > 0 {
				a.setStatus(MsgImagesReady, StatusSuccess)
			} else {
				a.clearStatus()
			}
		}
		return a, nil

	case suggestionsMsg:
		if strings.TrimSpace(msg.query) != strings.TrimSpace(a.topicInput.Value()) {
			return a, nil
		}
		a.suggestions = msg.items
		a.suggestionIdx = -1
		names := make([]string, len(msg.items))
		for i, s := range msg.items {
			names[i] = s.Topic
		}
		a.topicInput.SetSuggestions(names)
		return a, nil

	case exportDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(wrapErr("export failed", msg.err))
			return a, nil
		}
		a.setStatus(MsgExported(truncateMiddle(msg.path, 60), msg.count), StatusSuccess)
		return a, nil

	case editDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(wrapErr("edit failed", msg.err))
			return a, nil
		}
		if err := a.board.SetEditedOverlay(msg.slotID, msg.ref); err != nil {
			a.setError(err)
			return a, nil
		}
		a.setStatus(fmt.Sprintf("Image %d edited", msg.slotID), StatusSuccess)
		return a, nil

	case detailRenderedMsg:
		if a.view == ViewDetail || a.view == ViewHelp {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}
		return a, nil

	case errorMsg:
		a.setError(msg.err)
		return a, nil
	}

	return a, nil
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.kind = kind
	a.err = nil
}

func (a *App) setError(err error) {
	a.err = err
	a.status = ""
	a.kind = StatusError
}

func (a *App) clearStatus() {
	a.status = ""
	a.kind = StatusInfo
	a.err = nil
}

func (a *App) clampCursor() {
	n := a.board.Len()
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// currentSlotID is the one-based id under the cursor.
func (a *App) currentSlotID() int {
	return a.cursor + 1
}

func (a *App) View() string {
	contentHeight := a.height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch a.view {
	case ViewSetup:
		content = renderCentered(a.width, contentHeight, a.setupView())
	case ViewBoard:
		content = a.boardView()
	case ViewTopic:
		content = renderCentered(a.width, contentHeight, a.topicView())
	case ViewDetail, ViewHelp:
		content = a.viewport.View()
	}

	statusLine := a.statusBar()
	if statusLine == "" {
		return content
	}

	separatorWidth := a.width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := lipgloss.NewStyle().
		Foreground(MutedColor).
		Render("─" + strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, statusLine)
}

func (a *App) setupView() string {
	slotsLabel := fmt.Sprintf("Images (%d-%d)", supply.MinSlots, supply.MaxSlots)
	return lipgloss.JoinVertical(
		lipgloss.Center,
		GetWelcomeMessage(),
		"",
		renderMuted("Topic"),
		renderInputFrame(a.topicInput.View(), a.setupFocus == fieldTopic, a.topicInput.Width),
		a.suggestionList(),
		renderMuted(slotsLabel),
		renderInputFrame(a.slotsInput.View(), a.setupFocus == fieldSlots, 6),
		"",
		renderHelp("Tab: switch field • ↑↓: suggestions • Enter: start • Esc: quit"),
	)
}

func (a *App) topicView() string {
	current := a.board.Topic()
	if current == "" {
		current = supply.DefaultTopic
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render("› change topic"),
		"",
		renderMuted("Current: "+current),
		renderInputFrame(a.topicInput.View(), true, a.topicInput.Width),
		a.suggestionList(),
		renderHelp("Enter: apply • Tab: complete • ↑↓: suggestions • Esc: cancel"),
	)
}

func (a *App) suggestionList() string {
	if len(a.suggestions) == 0 {
		return ""
	}
	rows := make([]string, 0, len(a.suggestions))
	for i, s := range a.suggestions {
		line := truncateEnd(s.Topic, a.topicInput.Width)
		if i == a.suggestionIdx {
			rows = append(rows, SuggestionSelectedStyle.Render(" "+line+" "))
			continue
		}
		rows = append(rows, SuggestionStyle.Render(" "+line+" "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) boardView() string {
	slots := a.board.Snapshot()
	selected, total := a.board.SelectionCount()

	topic := a.board.Topic()
	if topic == "" {
		topic = supply.DefaultTopic
	}
	subtitle := MsgSelection(selected, total)
	if a.orchestrator != nil {
		if stats, ok := a.orchestrator.Cache().Stats(a.board.Query()); ok {
			subtitle += fmt.Sprintf(" • %d cached", stats.Items)
			if stats.Exhausted {
				subtitle += " • repeating"
			}
		}
	}
	if a.lastRun != nil && len(a.lastRun.Errors) > 0 {
		subtitle += fmt.Sprintf(" • %d not loaded", len(a.lastRun.Errors))
	}
	if a.health != nil {
		if state := a.health.State(); state != "closed" {
			subtitle += " • provider " + state
		}
	}
	header := renderHeader(CompactLogo+" "+MsgTopicSummary(topic, len(slots)), subtitle, a.width)

	cols := a.gridColumns()

	var rows []string
	var row []string
	for i, s := range slots {
		row = append(row, a.renderSlot(s, slotCardWidth, i == a.cursor))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	grid := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", grid)
}

// gridColumns is how many slot cards fit side by side.
func (a *App) gridColumns() int {
	cols := a.width / (slotCardWidth + 4)
	if cols < 1 {
		return 1
	}
	return cols
}

func (a *App) renderSlot(s supply.Slot, width int, isCursor bool) string {
	label := SlotLabelStyle.Render(s.Label())
	if s.Locked {
		label += " " + LockBadgeStyle.Render("[locked]")
	}
	if s.Selected {
		label += " " + SelectBadgeStyle.Render("✓")
	}

	lines := []string{label}
	switch {
	case s.Deleted:
		lines = append(lines, renderMuted("deleted"))
	case s.State == supply.SlotLoading:
		lines = append(lines, a.spinner.View()+" loading…")
	case !s.HasImage():
		lines = append(lines, renderMuted("empty"))
	default:
		p := s.Current
		lines = append(lines, fmt.Sprintf("#%s %d×%d", truncateEnd(p.ID, 12), p.Width, p.Height))
	}
	if s.HasImage() && !s.Deleted {
		if author := s.Current.Attribution.Author; author != "" {
			lines = append(lines, renderMuted(truncateEnd("by "+author, width-2)))
		}
		if alt := s.Current.Alt; alt != "" {
			lines = append(lines, renderMuted(truncateEnd(alt, width-2)))
		}
		var extras []string
		if s.EditedOverlay != "" {
			extras = append(extras, "edited")
		}
		if n := len(s.History); n > 0 {
			extras = append(extras, fmt.Sprintf("%d earlier", n))
		}
		if len(extras) > 0 {
			lines = append(lines, renderMuted(strings.Join(extras, " • ")))
		}
	}

	style := SlotStyle
	switch {
	case s.Deleted:
		style = SlotDeletedStyle
	case isCursor:
		style = SlotCursorStyle
	case s.Selected:
		style = SlotSelectedStyle
	}
	if isCursor && s.Deleted {
		style = SlotDeletedStyle.BorderStyle(lipgloss.RoundedBorder()).BorderForeground(AccentColor)
	}
	return style.Width(width).Height(5).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (a *App) statusBar() string {
	var text string
	switch {
	case a.err != nil:
		text = renderStatus(StatusError, a.err.Error())
	case a.busy:
		text = a.spinner.View() + " " + renderStatus(a.kind, a.status)
	case a.status != "":
		text = renderStatus(a.kind, a.status)
	default:
		commands := a.keyHandler.GetHelpForCurrentView()
		if len(commands) == 0 {
			return ""
		}
		text = strings.Join(commands, " • ")
	}

	return StatusBarStyle.
		Width(a.width).
		Render(text)
}
