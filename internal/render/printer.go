package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/melih/lighthouse-build/internal/core/domain"
)

// rainbow is the colour cycle used for target name prefixes.
var rainbow = []lipgloss.Color{"1", "2", "3", "4", "5", "6", "9", "10", "11", "12", "13", "14"}

// Printer writes formatted events, prefixing each line with the target's
// name in a colour of its own.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	progress bool
	styles   map[string]lipgloss.Style
}

// NewPrinter creates a Printer. Colours are only used when w is a terminal.
func NewPrinter(w io.Writer, progress bool) *Printer {
	return &Printer{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		progress: progress,
		styles:   make(map[string]lipgloss.Style),
	}
}

// Print writes evt if it has anything to show.
func (p *Printer) Print(evt domain.Event) error {
	line, ok := Format(evt, p.progress)
	if !ok {
		return nil
	}
	target, ok := evt.Container()
	if !ok {
		_, err := fmt.Fprintln(p.w, line)
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s | %s\n", p.style(target.Name).Render(target.Name), line)
	return err
}

func (p *Printer) style(name string) lipgloss.Style {
	if s, ok := p.styles[name]; ok {
		return s
	}
	s := p.renderer.NewStyle().Foreground(rainbow[len(p.styles)%len(rainbow)])
	p.styles[name] = s
	return s
}
