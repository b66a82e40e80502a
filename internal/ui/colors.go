package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/moodring/internal/models"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// MoodStyle renders text in the mood's color.
func MoodStyle(m models.Mood) lipgloss.Style {
	return NewBold(m.Color())
}

// StateStyle colors a credential state for status output.
func StateStyle(s models.CredentialState) lipgloss.Style {
	switch s {
	case models.CredentialActive:
		return styles.ok
	case models.CredentialExpired:
		return styles.warn
	default:
		return styles.err
	}
}
