// Package style colors host output on terminals
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	TypeStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)

// Palette renders text either styled or plain
type Palette struct {
	color bool
}

// Plain returns a palette that leaves text untouched
func Plain() Palette { return Palette{} }

// Color returns a palette that applies the lipgloss styles
func Color() Palette { return Palette{color: true} }

// ForWriter picks Color for terminals and Plain for everything else,
// including any writer when NO_COLOR is set
func ForWriter(w io.Writer) Palette {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return Plain()
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return Plain()
	}
	return Color()
}

// Colored reports whether the palette applies styles
func (p Palette) Colored() bool { return p.color }

func (p Palette) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p Palette) Title(text string) string   { return p.render(TitleStyle, text) }
func (p Palette) Key(text string) string     { return p.render(KeyStyle, text) }
func (p Palette) Type(text string) string    { return p.render(TypeStyle, text) }
func (p Palette) Muted(text string) string   { return p.render(MutedStyle, text) }
func (p Palette) Success(text string) string { return p.render(SuccessStyle, text) }
func (p Palette) Error(text string) string   { return p.render(ErrorStyle, text) }
