package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	clog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Style selects how records are rendered on the console.
type Style string

const (
	// PlainStyle writes "<time> - <LEVEL> - <message>".
	PlainStyle Style = "plain"
	// PrettyStyle renders through charmbracelet/log.
	PrettyStyle Style = "pretty"
)

// ColorMode controls ANSI colour on the console destination.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// critLevel sits between charm's error and fatal levels; Fatal would exit.
const critLevel = clog.ErrorLevel + 2

var levelColors = map[Level]lipgloss.Color{
	DebugLevel:    lipgloss.Color("63"),
	InfoLevel:     lipgloss.Color("86"),
	WarningLevel:  lipgloss.Color("192"),
	ErrorLevel:    lipgloss.Color("204"),
	CriticalLevel: lipgloss.Color("134"),
}

func colorProfile(mode ColorMode) (termenv.Profile, bool) {
	switch mode {
	case ColorAlways:
		return termenv.ANSI256, true
	case ColorNever:
		return termenv.Ascii, true
	}
	return 0, false
}

// plainLevelStyle returns a LevelStyle for the plain console format, or nil
// when the renderer would not emit colour anyway.
func plainLevelStyle(w io.Writer, mode ColorMode) func(Level) string {
	re := lipgloss.NewRenderer(w)
	if p, ok := colorProfile(mode); ok {
		re.SetColorProfile(p)
	}
	if re.ColorProfile() == termenv.Ascii {
		return nil
	}
	styles := make(map[Level]lipgloss.Style, len(levelColors))
	for lvl, c := range levelColors {
		styles[lvl] = re.NewStyle().Bold(true).Foreground(c)
	}
	return func(l Level) string {
		if st, ok := styles[l]; ok {
			return st.Render(l.String())
		}
		return l.String()
	}
}

// prettyDest renders records through a charmbracelet/log logger.
type prettyDest struct {
	l  *clog.Logger
	at time.Time
}

func newPrettyDest(w io.Writer, name string, mode ColorMode) *prettyDest {
	d := &prettyDest{}
	d.l = clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      TimeLayout,
		TimeFunction:    func(time.Time) time.Time { return d.at },
		Prefix:          name,
		Level:           clog.DebugLevel,
	})
	if p, ok := colorProfile(mode); ok {
		d.l.SetColorProfile(p)
	}
	st := clog.DefaultStyles()
	st.Levels[critLevel] = lipgloss.NewStyle().
		SetString("CRIT").
		Bold(true).
		MaxWidth(4).
		Foreground(levelColors[CriticalLevel])
	d.l.SetStyles(st)
	return d
}

func (d *prettyDest) emit(r *Record) error {
	d.at = r.Time
	d.l.Log(charmLevel(r.Level), r.Message)
	return nil
}

func (d *prettyDest) close() error { return nil }

func charmLevel(l Level) clog.Level {
	switch l {
	case DebugLevel:
		return clog.DebugLevel
	case InfoLevel:
		return clog.InfoLevel
	case WarningLevel:
		return clog.WarnLevel
	case ErrorLevel:
		return clog.ErrorLevel
	default:
		return critLevel
	}
}
