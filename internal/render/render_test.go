package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"battleship/internal/board"
)

func newTestRenderer(buf *bytes.Buffer) *TermRenderer {
	return &TermRenderer{out: buf, color: false}
}

func TestBoardPrintsGridWithLegendGlyphs(t *testing.T) {
	b := board.New(2, 2)
	_ = b.PlaceShip(0, 0)
	_, _ = b.ReceiveShot(1, 1)

	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	r.Board(b, "own board")

	out := buf.String()
	if !strings.Contains(out, "own board") {
		t.Fatalf("expected title in output, got %q", out)
	}
	if !strings.Contains(out, "S") {
		t.Fatalf("expected ship glyph in output, got %q", out)
	}
	if !strings.Contains(out, " o ") {
		t.Fatalf("expected miss glyph in output, got %q", out)
	}
}

func TestErrorAndInfoAndLine(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	r.Error(errors.New("bad shot"))
	r.Info("waiting for opponent")
	r.Line("plain line")

	out := buf.String()
	for _, want := range []string{"bad shot", "waiting for opponent", "plain line"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestPromptPrintsPrefixWithoutNewline(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf)
	r.Prompt("> ")
	if buf.String() != "> " {
		t.Fatalf("expected exact prompt prefix, got %q", buf.String())
	}
}
