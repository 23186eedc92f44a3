package tui

type View int

const (
	ViewSetup View = iota
	ViewBoard
	ViewTopic
	ViewDetail
	ViewHelp
)

// setupField is the focused input on the setup screen.
type setupField int

const (
	fieldTopic setupField = iota
	fieldSlots
)
