// Package render draws boards, prompts, help text, and status lines to a
// terminal. spec.md §1 treats the renderer as an external collaborator
// "specified only at interface level"; this package gives it a concrete,
// swappable implementation so the rest of the client compiles and is
// exercised (SPEC_FULL.md §4.10). internal/player depends only on the
// Renderer interface, never on TermRenderer directly.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"battleship/internal/board"
)

// Renderer is everything the client state machine needs to talk to the
// terminal.
type Renderer interface {
	Board(b *board.Board, title string)
	Prompt(prefix string)
	Help(lines []string)
	Error(err error)
	Info(line string)
	Line(line string)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#44aaff"))
	promptStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	shipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	hitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
	missStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	waterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1a3a5a"))
)

// TermRenderer renders to an io.Writer, styling output with lipgloss when
// the underlying stream is a terminal. Grounded in Amalg016-bomberman's
// renderer.go (same style-variable-per-cell-kind shape), adapted from a
// Bubble Tea view function to direct-to-stdout line printing, matching
// rustyguts-bken's client, which prints straight to stdout rather than
// running a TUI event loop.
type TermRenderer struct {
	out   io.Writer
	color bool
}

// NewTermRenderer wraps os.Stdout, gating color on whether stdout is a
// terminal (mattn/go-isatty) and adapting Windows consoles
// (mattn/go-colorable), exactly as SPEC_FULL.md §4.10 specifies.
func NewTermRenderer() *TermRenderer {
	f := os.Stdout
	isTTY := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return &TermRenderer{out: colorable.NewColorableStdout(), color: isTTY}
}

func (r *TermRenderer) render(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Board prints a titled grid. Own and shadow boards share the same Cell
// type and glyphs, so one renderer serves both (internal/player passes the
// right board and title).
func (r *TermRenderer) Board(b *board.Board, title string) {
	fmt.Fprintln(r.out, r.render(titleStyle, title))
	var header strings.Builder
	header.WriteString("   ")
	for col := 0; col < b.Cols; col++ {
		fmt.Fprintf(&header, "%2d ", col+1)
	}
	fmt.Fprintln(r.out, header.String())
	for row := 0; row < b.Rows; row++ {
		var line strings.Builder
		fmt.Fprintf(&line, " %c ", 'A'+row)
		for col := 0; col < b.Cols; col++ {
			line.WriteString(r.cellGlyph(b.Cell(row, col)))
		}
		fmt.Fprintln(r.out, line.String())
	}
}

func (r *TermRenderer) cellGlyph(c board.Cell) string {
	switch c {
	case board.Ship:
		return r.render(shipStyle, " S ")
	case board.Sunk:
		return r.render(hitStyle, " X ")
	case board.Miss:
		return r.render(missStyle, " o ")
	default:
		return r.render(waterStyle, " ~ ")
	}
}

// Prompt prints the idle/turn prompt prefix (§4.5: "> " idle, "# " on turn).
func (r *TermRenderer) Prompt(prefix string) {
	fmt.Fprint(r.out, r.render(promptStyle, prefix))
}

func (r *TermRenderer) Help(lines []string) {
	for _, l := range lines {
		fmt.Fprintln(r.out, l)
	}
}

func (r *TermRenderer) Error(err error) {
	fmt.Fprintln(r.out, r.render(errorStyle, "error: "+err.Error()))
}

func (r *TermRenderer) Info(line string) {
	fmt.Fprintln(r.out, r.render(infoStyle, line))
}

func (r *TermRenderer) Line(line string) {
	fmt.Fprintln(r.out, line)
}
