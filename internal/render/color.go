package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/genuss/jl/internal/model"
)

// Named ANSI colors selectable for extra-field keys and values.
var namedColors = map[string]lipgloss.Color{
	"black":   lipgloss.Color("0"),
	"red":     lipgloss.Color("1"),
	"green":   lipgloss.Color("2"),
	"yellow":  lipgloss.Color("3"),
	"blue":    lipgloss.Color("4"),
	"magenta": lipgloss.Color("5"),
	"cyan":    lipgloss.Color("6"),
	"white":   lipgloss.Color("7"),
}

// LookupColor resolves a color name, reporting whether it is known.
func LookupColor(name string) (lipgloss.Color, bool) {
	c, ok := namedColors[strings.ToLower(name)]
	return c, ok
}

// ColorConfig holds every style used during rendering. It is built once
// at startup and passed by reference into each render call. Styles go
// through an explicit color profile so that always/never behave the same
// whether or not stdout is a terminal.
type ColorConfig struct {
	Enabled bool

	levelStyles map[model.Level]lipgloss.Style
	keyStyle    lipgloss.Style
	valueStyle  lipgloss.Style
	dimStyle    lipgloss.Style
}

// NewColorConfig builds the style set. keyColor and valueColor are named
// ANSI colors for extra-field keys and values; unknown names fall back to
// the defaults (magenta keys, cyan values).
func NewColorConfig(enabled bool, keyColor, valueColor string) *ColorConfig {
	r := lipgloss.NewRenderer(io.Discard)
	if enabled {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	kc, ok := LookupColor(keyColor)
	if !ok {
		kc = namedColors["magenta"]
	}
	vc, ok := LookupColor(valueColor)
	if !ok {
		vc = namedColors["cyan"]
	}

	return &ColorConfig{
		Enabled: enabled,
		levelStyles: map[model.Level]lipgloss.Style{
			model.LevelTrace: r.NewStyle().Faint(true),
			model.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("4")),
			model.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("2")),
			model.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")),
			model.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")),
			model.LevelFatal: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
		keyStyle:   r.NewStyle().Foreground(kc),
		valueStyle: r.NewStyle().Foreground(vc),
		dimStyle:   r.NewStyle().Faint(true),
	}
}

// StyleLevel renders a level name in its severity color.
func (c *ColorConfig) StyleLevel(l model.Level) string {
	return c.levelStyles[l].Render(l.String())
}

// StyleExtraKey renders an extra-field key.
func (c *ColorConfig) StyleExtraKey(s string) string {
	return c.keyStyle.Render(s)
}

// StyleExtraValue renders an extra-field value.
func (c *ColorConfig) StyleExtraValue(s string) string {
	return c.valueStyle.Render(s)
}

// StyleDim renders dimmed text, used for stack trace lines.
func (c *ColorConfig) StyleDim(s string) string {
	return c.dimStyle.Render(s)
}
