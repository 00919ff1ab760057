// Package gamestatetest provides a minimal GameState implementation used
// only by the search core's own tests. It intentionally implements none of
// the real rules of Go beyond "a point may be played once": no captures,
// no ko, no suicide detection. The search core treats GameState as opaque,
// so exercising it against this stand-in is sufficient to test selection,
// expansion, backup and re-rooting without pulling in a real rules engine.
package gamestatetest

import (
	"math/rand"

	"github.com/gozero-engine/core/internal/gamestate"
)

const emptyCell int8 = -1

// Board is a square grid of the given size, to-move tracking and pass
// counting, sized small enough (e.g. 5x5 or 9x9) to make exhaustive search
// in tests tractable.
type Board struct {
	Size       int
	cells      []int8
	toMove     gamestate.Color
	passCount  int
	moveNumber int
}

// New returns an empty board of the given size, Black to move.
func New(size int) *Board {
	cells := make([]int8, size*size)
	for i := range cells {
		cells[i] = emptyCell
	}
	return &Board{Size: size, cells: cells, toMove: gamestate.Black}
}

var _ gamestate.GameState = (*Board)(nil)

func (b *Board) ToMove() gamestate.Color { return b.toMove }

func (b *Board) idx(v gamestate.Vertex) int { return int(v) }

func (b *Board) inBounds(v gamestate.Vertex) bool {
	return v >= 0 && int(v) < len(b.cells)
}

func (b *Board) IsLegal(color gamestate.Color, v gamestate.Vertex) bool {
	if v == gamestate.PASS {
		return true
	}
	if !b.inBounds(v) {
		return false
	}
	return b.cells[b.idx(v)] == emptyCell
}

func (b *Board) Play(color gamestate.Color, v gamestate.Vertex) error {
	if !b.IsLegal(color, v) {
		return errIllegalMove(v)
	}
	if v == gamestate.PASS {
		b.passCount++
	} else {
		b.cells[b.idx(v)] = int8(color)
		b.passCount = 0
	}
	b.toMove = color.Other()
	b.moveNumber++
	return nil
}

type errIllegalMove gamestate.Vertex

func (e errIllegalMove) Error() string {
	return "illegal move at " + gamestate.Vertex(e).String()
}

func (b *Board) PassCount() int { return b.passCount }

// FinalScore is simply stone-count difference (Black minus White), from
// Black's point of view, positive favoring Black. Sufficient for testing
// terminal backup without implementing area/territory scoring.
func (b *Board) FinalScore() float32 {
	var score float32
	for _, c := range b.cells {
		switch c {
		case int8(gamestate.Black):
			score++
		case int8(gamestate.White):
			score--
		}
	}
	return score
}

func (b *Board) Clone() gamestate.GameState {
	clone := &Board{
		Size:       b.Size,
		cells:      append([]int8(nil), b.cells...),
		toMove:     b.toMove,
		passCount:  b.passCount,
		moveNumber: b.moveNumber,
	}
	return clone
}

// Hash is a simple Zobrist-style hash over a table seeded deterministically
// so tests are reproducible.
var zobrist = func() []uint64 {
	const maxCells = 19 * 19
	r := rand.New(rand.NewSource(1))
	table := make([]uint64, maxCells*2)
	for i := range table {
		table[i] = r.Uint64()
	}
	return table
}()

func (b *Board) Hash() uint64 {
	var h uint64
	for i, c := range b.cells {
		if c == emptyCell {
			continue
		}
		h ^= zobrist[i*2+int(c)]
	}
	// Mix in side to move so a position and its "mirror with different
	// side to move" don't collide.
	if b.toMove == gamestate.White {
		h ^= 0x9e3779b97f4a7c15
	}
	return h
}

func (b *Board) NumIntersections() int { return len(b.cells) }

func (b *Board) VertexAt(idx int) gamestate.Vertex { return gamestate.Vertex(idx) }

func (b *Board) LegalMoves(color gamestate.Color) []gamestate.Vertex {
	moves := make([]gamestate.Vertex, 0, len(b.cells))
	for i, c := range b.cells {
		if c == emptyCell {
			moves = append(moves, gamestate.Vertex(i))
		}
	}
	return moves
}

// MoveNumber returns the number of plies played so far, for tests that want
// to assert on game length.
func (b *Board) MoveNumber() int { return b.moveNumber }

// SetStone force-places a stone without legality checks, for building
// specific test layouts (mirrors the teacher's statetest.BuildBoard).
func (b *Board) SetStone(v gamestate.Vertex, color gamestate.Color) {
	b.cells[b.idx(v)] = int8(color)
}
