package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/supply"
)

type KeyHandler struct {
	app    *App
	config *config.Config
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return kh.app, tea.Quit
	}

	switch kh.app.view {
	case ViewSetup:
		return kh.handleSetupKeys(msg)
	case ViewTopic:
		return kh.handleTopicKeys(msg)
	case ViewDetail, ViewHelp:
		return kh.handlePagerKeys(msg)
	default:
		return kh.handleBoardKeys(key)
	}
}

// matches compares a key press against a configured binding.
func matches(key, binding string) bool {
	if binding == "" {
		return false
	}
	if binding == " " || binding == "space" {
		return key == " " || key == "space"
	}
	return key == binding
}

func (kh *KeyHandler) handleSetupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	switch msg.String() {
	case "esc":
		return app, tea.Quit
	case "enter":
		if app.setupFocus == fieldTopic && app.suggestionIdx >= 0 {
			kh.acceptSuggestion()
		}
		return kh.submitSetup()
	case "tab", "shift+tab":
		if app.setupFocus == fieldTopic && msg.String() == "tab" && app.topicInput.CurrentSuggestion() != "" &&
			!strings.EqualFold(app.topicInput.CurrentSuggestion(), app.topicInput.Value()) {
			return kh.delegateToTopicInput(msg)
		}
		kh.switchSetupField()
		return app, nil
	case "up", "down":
		if app.setupFocus == fieldTopic {
			kh.moveSuggestion(msg.String())
		}
		return app, nil
	}

	if app.setupFocus == fieldSlots {
		var cmd tea.Cmd
		app.slotsInput, cmd = app.slotsInput.Update(msg)
		return app, cmd
	}
	return kh.delegateToTopicInput(msg)
}

func (kh *KeyHandler) switchSetupField() {
	app := kh.app
	if app.setupFocus == fieldTopic {
		app.setupFocus = fieldSlots
		app.topicInput.Blur()
		app.slotsInput.Focus()
		return
	}
	app.setupFocus = fieldTopic
	app.slotsInput.Blur()
	app.topicInput.Focus()
}

func (kh *KeyHandler) submitSetup() (tea.Model, tea.Cmd) {
	app := kh.app

	n, err := strconv.Atoi(strings.TrimSpace(app.slotsInput.Value()))
	if err != nil || n < supply.MinSlots || n > supply.MaxSlots {
		app.setError(errors.New(MsgInvalidSlotCount))
		return app, nil
	}

	topic := kh.normalizeTopic(app.topicInput.Value())
	app.board.Reset(n, topic)
	app.cursor = 0
	app.view = ViewBoard
	app.topicInput.Blur()
	app.slotsInput.Blur()
	app.suggestionIdx = -1

	return app, tea.Batch(
		app.saveProject(topic, n),
		app.startBatch(MsgLoadingImages, app.changeTopic(topic)),
	)
}

func (kh *KeyHandler) handleTopicKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	switch msg.String() {
	case "esc":
		app.view = ViewBoard
		app.topicInput.Blur()
		app.suggestionIdx = -1
		return app, nil
	case "up", "down":
		kh.moveSuggestion(msg.String())
		return app, nil
	case "enter":
		if app.suggestionIdx >= 0 {
			kh.acceptSuggestion()
		}
		topic := kh.normalizeTopic(app.topicInput.Value())
		app.view = ViewBoard
		app.topicInput.Blur()
		app.suggestionIdx = -1
		return app, tea.Batch(
			app.saveProject(topic, app.board.Len()),
			app.startBatch(MsgChangingTopic, app.changeTopic(topic)),
		)
	}
	return kh.delegateToTopicInput(msg)
}

// delegateToTopicInput updates the topic field and refreshes suggestions when its value changed.
func (kh *KeyHandler) delegateToTopicInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	prev := app.topicInput.Value()
	var cmd tea.Cmd
	app.topicInput, cmd = app.topicInput.Update(msg)
	if app.topicInput.Value() != prev {
		app.suggestionIdx = -1
		return app, tea.Batch(cmd, app.suggest(app.topicInput.Value()))
	}
	return app, cmd
}

func (kh *KeyHandler) moveSuggestion(direction string) {
	app := kh.app
	n := len(app.suggestions)
	if n == 0 {
		return
	}
	switch direction {
	case "down":
		app.suggestionIdx = (app.suggestionIdx + 1) % n
	case "up":
		if app.suggestionIdx <= 0 {
			app.suggestionIdx = n - 1
		} else {
			app.suggestionIdx--
		}
	}
}

func (kh *KeyHandler) acceptSuggestion() {
	app := kh.app
	if app.suggestionIdx < 0 || app.suggestionIdx >= len(app.suggestions) {
		return
	}
	app.topicInput.SetValue(app.suggestions[app.suggestionIdx].Topic)
	app.topicInput.CursorEnd()
}

// normalizeTopic trims the typed topic and adopts the catalog spelling on an exact match.
func (kh *KeyHandler) normalizeTopic(input string) string {
	topic := strings.TrimSpace(input)
	for _, s := range kh.app.suggestions {
		if strings.EqualFold(s.Topic, topic) {
			return s.Topic
		}
	}
	return topic
}

func (kh *KeyHandler) handlePagerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	app := kh.app
	key := msg.String()
	b := kh.config.Keys.Bindings

	switch {
	case matches(key, b.Back), key == "esc", matches(key, b.Quit):
		app.view = ViewBoard
		return app, nil
	case app.view == ViewDetail && matches(key, b.Open):
		return kh.openCurrent(app.detailID)
	}

	var cmd tea.Cmd
	app.viewport, cmd = app.viewport.Update(msg)
	return app, cmd
}

func (kh *KeyHandler) handleBoardKeys(key string) (tea.Model, tea.Cmd) {
	app := kh.app
	b := kh.config.Keys.Bindings

	if kh.navigate(key) {
		return app, nil
	}

	switch {
	case matches(key, b.Quit):
		return app, tea.Quit
	case matches(key, b.Help):
		app.view = ViewHelp
		return app, app.renderMarkdown(kh.helpMarkdown())
	case matches(key, b.Details):
		slot, err := app.board.Slot(app.currentSlotID())
		if err != nil {
			app.setError(err)
			return app, nil
		}
		app.detailID = slot.ID
		app.view = ViewDetail
		return app, app.renderMarkdown(slotMarkdown(slot))
	case matches(key, b.Back):
		app.clearStatus()
		return app, nil
	}

	// Everything below mutates the board; a running batch owns it.
	if app.busy {
		app.status = MsgBusy
		return app, nil
	}

	id := app.currentSlotID()
	switch {
	case matches(key, b.Refresh):
		slot, err := app.board.Slot(id)
		if err != nil {
			app.setError(err)
			return app, nil
		}
		if slot.Deleted {
			app.setStatus(MsgSlotDeleted, StatusWarn)
			return app, nil
		}
		if slot.Locked {
			app.setStatus(MsgSlotLocked, StatusWarn)
			return app, nil
		}
		return app, app.startBatch(MsgRefreshingSlot, app.fillSlot(id))

	case matches(key, b.RefreshAll):
		if _, total := app.board.SelectionCount(); total == 0 {
			app.setStatus(MsgAllDeleted, StatusWarn)
			return app, nil
		}
		return app, app.startBatch(MsgLoadingImages, app.fillAll())

	case matches(key, b.ChangeTopic):
		app.view = ViewTopic
		app.topicInput.SetValue("")
		app.topicInput.Focus()
		app.suggestionIdx = -1
		return app, tea.Batch(textinput.Blink, app.suggest(""))

	case matches(key, b.Undo):
		undone, err := app.board.Undo(id)
		if err != nil {
			app.setError(err)
			return app, nil
		}
		if !undone {
			app.setStatus(MsgNothingToUndo, StatusWarn)
			return app, nil
		}
		app.clearStatus()
		return app, nil

	case matches(key, b.Lock):
		locked, err := app.board.ToggleLock(id)
		if err != nil {
			app.setError(err)
			return app, nil
		}
		app.setStatus(MsgLockToggled(id, locked), StatusInfo)
		return app, nil

	case matches(key, b.Delete):
		if err := app.board.Delete(id); err != nil {
			app.setError(err)
			return app, nil
		}
		app.clearStatus()
		return app, nil

	case matches(key, b.Restore):
		n := app.board.RestoreAll()
		app.setStatus(MsgRestored(n), StatusInfo)
		return app, nil

	case matches(key, b.Select):
		if _, err := app.board.ToggleSelect(id); err != nil {
			app.setError(err)
			return app, nil
		}
		app.setStatus(MsgSelection(app.board.SelectionCount()), StatusInfo)
		return app, nil

	case matches(key, b.SelectAll):
		kh.toggleSelectAll()
		app.setStatus(MsgSelection(app.board.SelectionCount()), StatusInfo)
		return app, nil

	case matches(key, b.Open):
		return kh.openCurrent(id)

	case matches(key, b.Edit):
		return kh.editCurrent(id)

	case matches(key, b.Export):
		return kh.exportSelection()
	}

	return app, nil
}

// navigate moves the cursor across the grid and reports whether the key was a movement key.
func (kh *KeyHandler) navigate(key string) bool {
	app := kh.app
	n := app.board.Len()
	if n == 0 {
		return false
	}
	cols := app.gridColumns()

	switch key {
	case "right", "tab":
		app.cursor = (app.cursor + 1) % n
	case "left", "shift+tab":
		app.cursor = (app.cursor - 1 + n) % n
	case "down":
		if app.cursor+cols < n {
			app.cursor += cols
		}
	case "up":
		if app.cursor-cols >= 0 {
			app.cursor -= cols
		}
	case "home":
		app.cursor = 0
	case "end":
		app.cursor = n - 1
	default:
		return false
	}
	return true
}

func (kh *KeyHandler) toggleSelectAll() {
	app := kh.app
	selectable := 0
	for _, s := range app.board.Snapshot() {
		if s.Selectable() {
			selectable++
		}
	}
	selected, _ := app.board.SelectionCount()
	if selectable > 0 && selected == selectable {
		app.board.UnselectAll()
		return
	}
	app.board.SelectAll()
}

func (kh *KeyHandler) openCurrent(id int) (tea.Model, tea.Cmd) {
	app := kh.app
	if app.launcher == nil {
		return app, nil
	}
	ref, err := app.board.Reference(id)
	if err != nil {
		app.setError(err)
		return app, nil
	}
	if ref == "" {
		app.setStatus(MsgSlotEmpty, StatusWarn)
		return app, nil
	}
	return app, app.openRef(ref)
}

func (kh *KeyHandler) editCurrent(id int) (tea.Model, tea.Cmd) {
	app := kh.app
	if app.editor == nil {
		app.setStatus(MsgNoEditor, StatusWarn)
		return app, nil
	}
	ref, err := app.board.Reference(id)
	if err != nil {
		app.setError(err)
		return app, nil
	}
	if ref == "" {
		app.setStatus(MsgSlotEmpty, StatusWarn)
		return app, nil
	}
	return app, app.startBatch(MsgEditing, app.edit(id, ref))
}

func (kh *KeyHandler) exportSelection() (tea.Model, tea.Cmd) {
	app := kh.app
	if app.exporter == nil {
		return app, nil
	}
	items := app.board.ExportItems()
	if len(items) == 0 {
		app.setStatus(MsgNothingSelected, StatusWarn)
		return app, nil
	}
	return app, app.startBatch(MsgExporting, app.export(items))
}

func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.config.Keys.Bindings
	switch kh.app.view {
	case ViewSetup:
		return []string{"enter: start", "tab: switch field", "esc: quit"}

	case ViewBoard:
		if kh.app.board.Len() == 0 {
			return []string{b.Quit + ": quit"}
		}
		help := []string{
			b.Refresh + ": refresh",
			b.RefreshAll + ": refresh all",
			b.Lock + ": lock",
			displayKey(b.Select) + ": select",
			b.Export + ": export",
			b.ChangeTopic + ": topic",
		}
		if kh.app.editor != nil {
			help = append(help, b.Edit+": edit")
		}
		return append(help, b.Help+": help")

	case ViewTopic:
		return []string{"enter: apply", "esc: cancel"}

	case ViewDetail:
		return []string{b.Open + ": open", "esc: back"}

	case ViewHelp:
		return []string{"esc: back"}

	default:
		return []string{}
	}
}
