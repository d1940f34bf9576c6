package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorInk     = lipgloss.Color("#ECEFF4")
	ColorDim     = lipgloss.Color("#6C7486")
	ColorAccent  = lipgloss.Color("#8FBCBB")
	ColorSuccess = lipgloss.Color("#A3BE8C")
	ColorWarn    = lipgloss.Color("#D08770")
)

// Styles shared by command output outside the live view.
var (
	PathStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	OKStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarnStyle = lipgloss.NewStyle().Foreground(ColorWarn)
	DimStyle  = lipgloss.NewStyle().Foreground(ColorDim)
)
