package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	dim       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render
)
