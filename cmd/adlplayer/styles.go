package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	music  lipgloss.Style
	sfx    lipgloss.Style
	active lipgloss.Style
	idle   lipgloss.Style
	err    lipgloss.Style
	trace  lipgloss.Style
	status lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(4)).Padding(0, 1),
		label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		music:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(6)),
		sfx:    lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(5)),
		active: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(10)),
		idle:   lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
		trace:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
		status: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7)),
	}
}
