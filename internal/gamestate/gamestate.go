// Package gamestate defines the narrow interface the search core needs from
// a Go rules engine. The rules engine itself -- legality, captures,
// superko, scoring -- lives entirely outside this module; GameState is the
// seam.
package gamestate

import "fmt"

// Color is the side to move or the owner of a stone. Black moves first.
type Color int8

const (
	Black Color = iota
	White
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == Black {
		return "B"
	}
	return "W"
}

// Vertex identifies a board intersection, or one of the two sentinels
// below. Concrete encoding (e.g. x + y*boardSize) is owned by the
// GameState implementation; the core never decodes it.
type Vertex int32

const (
	// PASS is always a legal move.
	PASS Vertex = -1
	// RESIGN ends the game immediately in favor of the opponent. The core
	// never selects RESIGN itself; it is only ever observed coming in
	// from NotifyMovePlayed.
	RESIGN Vertex = -2
)

func (v Vertex) String() string {
	switch v {
	case PASS:
		return "pass"
	case RESIGN:
		return "resign"
	default:
		return fmt.Sprintf("vertex(%d)", int32(v))
	}
}

// GameState is the opaque position type the search core operates over. An
// implementation is expected to be cheap to Clone (the core clones once per
// simulation when descending) and to hash consistently for transposition
// and evaluator-cache lookups.
//
// Implementations are not required to be safe for concurrent use; the core
// only ever touches one GameState value (and its clones) from one goroutine
// at a time -- each Searcher clones the root state for its own descent.
type GameState interface {
	// ToMove returns the color to play in this position.
	ToMove() Color

	// IsLegal reports whether color may play at v in this position,
	// including superko and suicide rules. PASS is always legal.
	IsLegal(color Color, v Vertex) bool

	// Play applies the move, mutating the receiver in place. It returns
	// an error if the move is not legal.
	Play(color Color, v Vertex) error

	// PassCount is the number of consecutive passes leading to this
	// position; two consecutive passes end the game.
	PassCount() int

	// FinalScore returns the score of a terminal position, expressed
	// from Black's point of view: positive favors Black.
	FinalScore() float32

	// Clone returns a deep, independent copy of the position.
	Clone() GameState

	// Hash returns a position hash stable across clones of an identical
	// position, used for the transposition-safe parent-visit accumulation
	// (§4.2) and for the evaluator cache key.
	Hash() uint64

	// NumIntersections is the number of board points, i.e. the length of
	// the policy vector a NetworkEvaluator returns for this position.
	NumIntersections() int

	// VertexAt maps a policy-vector index in [0, NumIntersections) to its
	// Vertex.
	VertexAt(idx int) Vertex

	// LegalMoves enumerates the legal vertices for color in this
	// position, excluding PASS (which is always implicitly legal and is
	// handled separately during expansion).
	LegalMoves(color Color) []Vertex
}
