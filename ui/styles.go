package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ityeti/herald/internal/tts"
)

var (
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	yellow    = lipgloss.AdaptiveColor{Light: "#A67C00", Dark: "#ECFD65"}
	blue      = lipgloss.AdaptiveColor{Light: "#0077CC", Dark: "#00AAFF"}
	fuchsia   = lipgloss.Color("#EE6FF8")

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Padding(0, 1)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	lineStyle = lipgloss.NewStyle().
			Padding(1, 2)

	dimStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Render
)

// stateBadge returns the icon and color shown for a backend state.
func stateBadge(s tts.State) (string, lipgloss.TerminalColor) {
	switch s {
	case tts.StateSpeaking:
		return "▶", darkGreen
	case tts.StatePaused:
		return "⏸", yellow
	case tts.StateGenerating:
		return "⟳", blue
	default:
		return "■", statusBarNoteFg
	}
}

func herald() string {
	return logoStyle.Render("Herald")
}

func badgeStyle(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Background(statusBarBg)
}
