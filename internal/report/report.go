// Package report provides leveled, colored console output for the
// procedures. Messages are for humans; the zerolog diagnostic log carries
// the machine-readable trail.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#eab308"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0ea5a4"))
)

// Reporter writes leveled messages to a single output stream.
type Reporter struct {
	out   io.Writer
	color bool
}

// New returns a Reporter writing to out. Colors are enabled only when
// requested and out is a terminal.
func New(out io.Writer, color bool) *Reporter {
	if color {
		f, ok := out.(*os.File)
		if !ok || !isatty.IsTerminal(f.Fd()) {
			color = false
		}
	}
	return &Reporter{out: out, color: color}
}

func (r *Reporter) render(st lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return st.Render(s)
}

// Step announces the start of a numbered or named procedure step.
func (r *Reporter) Step(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", r.render(stepStyle, "==>"), fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func (r *Reporter) Info(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", r.render(infoStyle, "  -"), fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (r *Reporter) Success(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", r.render(successStyle, " OK"), fmt.Sprintf(format, args...))
}

// Warn prints a warning. Warnings never affect exit codes.
func (r *Reporter) Warn(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", r.render(warnStyle, "WRN"), fmt.Sprintf(format, args...))
}

// Error prints an error message. The caller decides whether it is fatal.
func (r *Reporter) Error(format string, args ...interface{}) {
	fmt.Fprintf(r.out, "%s %s\n", r.render(errorStyle, "ERR"), fmt.Sprintf(format, args...))
}

// Plain prints a line with no level prefix, for summaries and next-step
// instructions.
func (r *Reporter) Plain(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
