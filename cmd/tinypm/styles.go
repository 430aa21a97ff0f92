package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders CLI output. The renderer is bound to the output writer, so
// colors are dropped when it is not a terminal.
type styles struct {
	title   lipgloss.Style
	pkg     lipgloss.Style
	version lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	ok      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		pkg:     r.NewStyle().Bold(true),
		version: r.NewStyle().Foreground(lipgloss.Color("#7FD88F")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#7FD88F")),
	}
}

// key renders "name@version".
func (s styles) key(name, version string) string {
	return s.pkg.Render(name) + s.dim.Render("@") + s.version.Render(version)
}
