package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/polarstock/internal/supply"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		key, binding string
		want         bool
	}{
		{"r", "r", true},
		{"R", "r", false},
		{" ", " ", true},
		{"space", " ", true},
		{" ", "space", true},
		{"enter", "enter", true},
		{"x", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matches(tt.key, tt.binding), "key %q binding %q", tt.key, tt.binding)
	}
}

func TestBoardNavigation(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 10)
	cols := app.gridColumns()
	require.Equal(t, 3, cols)

	app.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, app.cursor)

	app.press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1+cols, app.cursor)

	app.press(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, app.cursor)

	app.press(tea.KeyMsg{Type: tea.KeyLeft})
	app.press(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 9, app.cursor, "left wraps to the last slot")

	app.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, app.cursor, "tab wraps to the first slot")

	app.press(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 9, app.cursor)
	app.press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 9, app.cursor, "down stops at the last row")
	app.press(tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, app.cursor)
}

func TestLockKeyProtectsSlot(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)
	before := slotIDs(app.board)

	app.pressKey("l")
	slot, err := app.board.Slot(1)
	require.NoError(t, err)
	assert.True(t, slot.Locked)
	assert.Equal(t, MsgLockToggled(1, true), app.status)

	cmd := app.pressKey("r")
	assert.Nil(t, cmd)
	assert.Equal(t, MsgSlotLocked, app.status)

	cmd = app.pressKey("R")
	require.NotNil(t, cmd)
	app.Update(app.fillAll()())

	after := slotIDs(app.board)
	assert.Equal(t, before[0], after[0])
	assert.NotEqual(t, before[1], after[1])
}

func TestRefreshAndUndo(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)
	first := slotIDs(app.board)[0]

	cmd := app.pressKey("r")
	require.NotNil(t, cmd)
	assert.True(t, app.busy)
	assert.Equal(t, MsgRefreshingSlot, app.status)
	app.Update(app.fillSlot(1)())
	assert.NotEqual(t, first, slotIDs(app.board)[0])

	app.pressKey("u")
	assert.Equal(t, first, slotIDs(app.board)[0])

	app.pressKey("u")
	assert.Equal(t, MsgNothingToUndo, app.status)
	assert.Equal(t, StatusWarn, app.kind)
}

func TestBusyBlocksMutations(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 3)
	app.busy = true

	for _, key := range []string{"r", "R", "l", "x", "t", "e"} {
		cmd := app.pressKey(key)
		assert.Nil(t, cmd, "key %q", key)
		assert.Equal(t, MsgBusy, app.status, "key %q", key)
	}
	assert.Equal(t, ViewBoard, app.view)

	slot, err := app.board.Slot(1)
	require.NoError(t, err)
	assert.False(t, slot.Locked)
	assert.False(t, slot.Deleted)

	app.press(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, app.cursor, "navigation still works while busy")
}

func TestDeleteAndRestore(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 3)

	app.press(tea.KeyMsg{Type: tea.KeySpace})
	app.pressKey("l")
	app.pressKey("x")

	slot, err := app.board.Slot(1)
	require.NoError(t, err)
	assert.True(t, slot.Deleted)
	assert.False(t, slot.Selected)
	assert.False(t, slot.Locked)

	cmd := app.pressKey("r")
	assert.Nil(t, cmd)
	assert.Equal(t, MsgSlotDeleted, app.status)

	app.pressKey("X")
	assert.Equal(t, MsgRestored(1), app.status)
	slot, err = app.board.Slot(1)
	require.NoError(t, err)
	assert.False(t, slot.Deleted)
}

func TestRefreshAllWithEverythingDeleted(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)
	require.NoError(t, app.board.Delete(1))
	require.NoError(t, app.board.Delete(2))

	cmd := app.pressKey("R")

	assert.Nil(t, cmd)
	assert.Equal(t, MsgAllDeleted, app.status)
}

func TestSelectionKeys(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 3)

	app.press(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, MsgSelection(1, 3), app.status)

	app.pressKey("a")
	assert.Equal(t, MsgSelection(3, 3), app.status)

	app.pressKey("a")
	assert.Equal(t, MsgSelection(0, 3), app.status)
}

func TestExportKey(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 3)

	cmd := app.pressKey("e")
	assert.Nil(t, cmd)
	assert.Equal(t, MsgNothingSelected, app.status)

	app.press(tea.KeyMsg{Type: tea.KeySpace})
	cmd = app.pressKey("e")
	require.NotNil(t, cmd)
	assert.True(t, app.busy)
	assert.Equal(t, MsgExporting, app.status)
}

func TestOpenKey(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)

	cmd := app.pressKey("o")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"https://images.example.com/0-large.jpg"}, app.opened.opened)
}

func TestEditKeyWithoutEditor(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)

	cmd := app.pressKey("E")

	assert.Nil(t, cmd)
	assert.Equal(t, MsgNoEditor, app.status)
}

func TestChangeTopicFlow(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)
	app.press(tea.KeyMsg{Type: tea.KeySpace})

	app.pressKey("t")
	require.Equal(t, ViewTopic, app.view)
	assert.Empty(t, app.topicInput.Value())

	app.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBoard, app.view)
	assert.Equal(t, "Coffee Shop", app.board.Topic())

	app.pressKey("t")
	app.Update(app.suggest("bakery")())
	app.topicInput.SetValue("bakery")
	app.Update(app.suggest("bakery")())
	require.NotEmpty(t, app.suggestions)

	cmd := app.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewBoard, app.view)
	assert.Equal(t, MsgChangingTopic, app.status)

	app.Update(app.changeTopic("Bakery")())
	assert.Equal(t, "Bakery", app.board.Topic())
	selected, _ := app.board.SelectionCount()
	assert.Zero(t, selected)
}

func TestSuggestionNavigation(t *testing.T) {
	app := newTestApp(t, 40)
	app.Update(app.suggest("")())
	require.GreaterOrEqual(t, len(app.suggestions), 2)

	app.press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, app.suggestionIdx)
	app.press(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, app.suggestionIdx)
	app.press(tea.KeyMsg{Type: tea.KeyUp})
	app.press(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, len(app.suggestions)-1, app.suggestionIdx, "up wraps around")

	want := app.suggestions[app.suggestionIdx].Topic
	app.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, want, app.board.Topic())
}

func TestDetailAndHelpViews(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 2)
	app.press(tea.KeyMsg{Type: tea.KeyRight})

	cmd := app.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewDetail, app.view)
	assert.Equal(t, 2, app.detailID)

	app.Update(detailRenderedMsg{content: "rendered"})
	assert.Contains(t, app.viewport.View(), "rendered")

	app.pressKey("o")
	app.press(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBoard, app.view)

	app.pressKey("?")
	assert.Equal(t, ViewHelp, app.view)
	app.pressKey("q")
	assert.Equal(t, ViewBoard, app.view)
}

func TestQuitKeys(t *testing.T) {
	app := newTestApp(t, 40)
	app.startBoard(t, "Coffee Shop", 1)

	cmd := app.pressKey("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = app.press(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHelpMarkdownListsBindings(t *testing.T) {
	app := newTestApp(t, 8)
	md := app.keyHandler.helpMarkdown()

	assert.Contains(t, md, "| `space` | select the current image |")
	assert.Contains(t, md, "| `R` | refresh every unlocked image |")
}

func TestGetHelpForCurrentView(t *testing.T) {
	app := newTestApp(t, 8)

	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "enter: start")

	app.startBoard(t, "Coffee Shop", 1)
	help := app.keyHandler.GetHelpForCurrentView()
	assert.Contains(t, help, "r: refresh")
	assert.Contains(t, help, "space: select")
	assert.NotContains(t, help, "E: edit")

	app.editor = &fakeEditor{}
	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "E: edit")

	app.view = ViewTopic
	assert.Equal(t, []string{"enter: apply", "esc: cancel"}, app.keyHandler.GetHelpForCurrentView())
}

func TestSlotCountClampedOnBoard(t *testing.T) {
	app := newTestApp(t, 8)
	assert.Equal(t, supply.DefaultSlots, app.board.Len())
}
