package main

import "github.com/charmbracelet/lipgloss"

var (
	styleBold   = lipgloss.NewStyle().Bold(true)
	styleFaint  = lipgloss.NewStyle().Faint(true)
	numberColor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
)
