// Package board implements the fixed R×C Battleship grid (§3): cell states,
// ship placement, shot application, and the shot-coordinate parsing rules
// of §4.7.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults per §3.
const (
	DefaultRows      = 6
	DefaultCols      = 6
	DefaultShipCount = 7
)

// Cell is one grid cell's state.
type Cell byte

const (
	Water Cell = iota
	Ship
	Miss
	Sunk
)

func (c Cell) String() string {
	switch c {
	case Water:
		return "WATER"
	case Ship:
		return "SHIP"
	case Miss:
		return "MISS"
	case Sunk:
		return "SUNK"
	default:
		return "?"
	}
}

var (
	// ErrOutOfRange is returned for a coordinate outside the board.
	ErrOutOfRange = errors.New("board: coordinate out of range")
	// ErrAlreadyShipped is returned placing a ship on a cell that is
	// already a ship.
	ErrAlreadyShipped = errors.New("board: cell already has a ship")
	// ErrAlreadyFired is returned shooting at a shadow-board cell that is
	// not WATER (already fired here).
	ErrAlreadyFired = errors.New("board: already fired here")
)

// Board is a Rows x Cols grid of cells. The zero value is not usable; use
// New. A player holds two boards: Own (ships placed, shots received) and
// Opponent (a shadow of what's been observed via MSG_RESULT).
type Board struct {
	Rows, Cols int
	cells      [][]Cell
}

// New returns an all-WATER board of the given size.
func New(rows, cols int) *Board {
	cells := make([][]Cell, rows)
	for i := range cells {
		cells[i] = make([]Cell, cols)
	}
	return &Board{Rows: rows, Cols: cols, cells: cells}
}

// InRange reports whether (row, col) is a valid coordinate on the board.
func (b *Board) InRange(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// Cell returns the state of (row, col).
func (b *Board) Cell(row, col int) Cell { return b.cells[row][col] }

// PlaceShip flips (row, col) from WATER to SHIP, for building up the own
// board during ship placement (§4.5 "Stateful coroutine"/§9). Fails if the
// coordinate is out of range or already a ship.
func (b *Board) PlaceShip(row, col int) error {
	if !b.InRange(row, col) {
		return fmt.Errorf("%w: row=%d col=%d", ErrOutOfRange, row, col)
	}
	if b.cells[row][col] == Ship {
		return ErrAlreadyShipped
	}
	b.cells[row][col] = Ship
	return nil
}

// ShipCount returns the number of SHIP-or-SUNK cells, the invariant §8
// requires to always equal the configured ship count on the own board.
func (b *Board) ShipCount() int {
	n := 0
	for _, row := range b.cells {
		for _, c := range row {
			if c == Ship || c == Sunk {
				n++
			}
		}
	}
	return n
}

// AllSunk reports whether every ship on this (own) board has been sunk.
func (b *Board) AllSunk() bool {
	for _, row := range b.cells {
		for _, c := range row {
			if c == Ship {
				return false
			}
		}
	}
	return true
}

// ReceiveShot applies an incoming MSG_SHOT to this (own) board: a SHIP cell
// becomes SUNK (hit); a WATER cell becomes MISS (a cell is never mutated
// back from MISS/SUNK to WATER/SHIP, so a repeat shot at an already-MISS or
// already-SUNK cell is reported as a non-mutating repeat of the prior
// result rather than an error — the network offers no retransmission
// suppression, §5).
func (b *Board) ReceiveShot(row, col int) (hit bool, err error) {
	if !b.InRange(row, col) {
		return false, fmt.Errorf("%w: row=%d col=%d", ErrOutOfRange, row, col)
	}
	switch b.cells[row][col] {
	case Ship:
		b.cells[row][col] = Sunk
		return true, nil
	case Sunk:
		return true, nil
	case Water:
		b.cells[row][col] = Miss
		return false, nil
	default: // Miss
		return false, nil
	}
}

// RecordResult applies a MSG_RESULT to this (opponent shadow) board: the
// shot coordinate flips from WATER to SUNK (hit) or MISS (miss).
func (b *Board) RecordResult(row, col int, hit bool) error {
	if !b.InRange(row, col) {
		return fmt.Errorf("%w: row=%d col=%d", ErrOutOfRange, row, col)
	}
	if hit {
		b.cells[row][col] = Sunk
	} else {
		b.cells[row][col] = Miss
	}
	return nil
}

// CanFireAt reports whether (row, col) on this (opponent shadow) board is
// still WATER — i.e. has not already been fired upon.
func (b *Board) CanFireAt(row, col int) bool {
	return b.InRange(row, col) && b.cells[row][col] == Water
}

// ParseShot parses a shot token of the form "<row-letter><col-number>"
// (optional surrounding whitespace, row letter case-insensitive) into
// zero-based (row, col), per §4.7. minRow is always 'A'; rows/cols bound
// the valid range.
func ParseShot(token string, rows, cols int) (row, col int, err error) {
	t := strings.TrimSpace(token)
	if len(t) < 2 {
		return 0, 0, fmt.Errorf("%w: shot token too short", ErrOutOfRange)
	}
	letter := t[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	row = int(letter - 'A')
	rest := strings.TrimSpace(t[1:])
	if rest == "" {
		return 0, 0, fmt.Errorf("%w: missing column", ErrOutOfRange)
	}
	n := 0
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("%w: invalid column digit", ErrOutOfRange)
		}
		n = n*10 + int(c-'0')
	}
	col = n - 1
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, 0, fmt.Errorf("%w: row=%d col=%d", ErrOutOfRange, row, col)
	}
	return row, col, nil
}

// FormatCoord renders a zero-based (row, col) as "<letter><number>", e.g.
// (0, 0) -> "A1".
func FormatCoord(row, col int) string {
	return fmt.Sprintf("%c%d", 'A'+row, col+1)
}
