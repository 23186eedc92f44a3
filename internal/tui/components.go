package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

func renderStatus(kind StatusKind, text string) string {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render("✓ " + text)
	case StatusWarn:
		return StatusWarnStyle.Render("! " + text)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + text)
	default:
		return StatusInfoStyle.Render(text)
	}
}

// truncateEnd cuts s to limit runes, ending in an ellipsis when shortened.
func truncateEnd(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit == 1:
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which suits file paths.
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	switch {
	case limit <= 0:
		return ""
	case len(r) <= limit:
		return s
	case limit == 1:
		return "…"
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}
