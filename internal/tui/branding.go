package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/polarstock/internal/config"
)

const AppName = "polarstock"

// LogoLines is the canonical block logo.
var LogoLines = []string{
	"█▀█ █▀█ █   ▄▀█ █▀█ █▀ ▀█▀ █▀█ █▀▀ █▄▀",
	"█▀▀ █▄█ █▄▄ █▀█ █▀▄ ▄█  █  █▄█ █▄▄ █ █",
}

const CompactLogo = `polarstock ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#5B8DEF"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#95E1D3"),
}

// Brand colors, overridable from the [ui.colors] config section.
var (
	PrimaryColor   = lipgloss.Color("#5B8DEF") // Glacier blue
	SecondaryColor = lipgloss.Color("#4ECDC4") // Teal
	AccentColor    = lipgloss.Color("#95E1D3") // Mint

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	LockedColor  = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

// Styled components
var (
	LogoStyle      lipgloss.Style
	TitleStyle     lipgloss.Style
	HeaderStyle    lipgloss.Style
	StatusBarStyle lipgloss.Style
	HelpStyle      lipgloss.Style

	SlotStyle         lipgloss.Style
	SlotCursorStyle   lipgloss.Style
	SlotSelectedStyle lipgloss.Style
	SlotDeletedStyle  lipgloss.Style
	SlotLabelStyle    lipgloss.Style
	LockBadgeStyle    lipgloss.Style
	SelectBadgeStyle  lipgloss.Style

	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style

	SuggestionStyle         lipgloss.Style
	SuggestionSelectedStyle lipgloss.Style
)

func init() {
	buildStyles()
}

// ApplyColors replaces the palette with configured colors. Empty values keep
// the built-in color.
func ApplyColors(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	SlotStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1)

	SlotCursorStyle = SlotStyle.
		BorderForeground(AccentColor)

	SlotSelectedStyle = SlotStyle.
		BorderForeground(SuccessColor)

	SlotDeletedStyle = SlotStyle.
		BorderStyle(lipgloss.HiddenBorder()).
		Foreground(MutedColor).
		Faint(true)

	SlotLabelStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	LockBadgeStyle = lipgloss.NewStyle().
		Foreground(LockedColor).
		Bold(true)

	SelectBadgeStyle = lipgloss.NewStyle().
		Foreground(SuccessColor).
		Bold(true)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(LockedColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SuggestionStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	SuggestionSelectedStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("Pick a topic and how many images you need")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// RenderBanner returns the startup banner for the given version.
func RenderBanner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("Non-repeating stock images %s", versionTag))
	} else {
		lines = append(lines, "Non-repeating stock images")
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderChars := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	output := lipgloss.NewStyle().
		Border(borderChars).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	separator := lipgloss.NewStyle().
		Foreground(AccentColor).
		Render("◆ ◇ ◆ ◇ ◆")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.NewStyle().Width(70).Align(lipgloss.Center).Render(output),
		lipgloss.NewStyle().Width(70).Align(lipgloss.Center).MarginBottom(1).Render(separator),
	)
}

func ShowBanner(version string) {
	fmt.Println(RenderBanner(version))
}
