// Package evaluator defines the NetworkEvaluator seam consumed by the
// search core: the opaque neural network that turns a position into a
// move-probability prior and a scalar winrate. Weights, convolutions,
// symmetry ensembles and GPU kernels are entirely out of scope here -- see
// spec.md §1.
package evaluator

import "github.com/gozero-engine/core/internal/gamestate"

// Symmetry selects how the evaluator should treat board symmetries when
// computing its output.
type Symmetry int

const (
	// SymmetryIdentity evaluates the position as given.
	SymmetryIdentity Symmetry = iota
	// SymmetryRandom evaluates a randomly chosen symmetry of the
	// position, which is the usual expansion-time choice (§4.4 step 3).
	SymmetryRandom
	// SymmetryAverageAll averages the evaluator's output over all eight
	// symmetries, more expensive but lower-variance; typically reserved
	// for analysis rather than the search hot path.
	SymmetryAverageAll
)

// Evaluation is the raw output of a NetworkEvaluator call.
type Evaluation struct {
	// Policy holds one probability per board intersection, indexed the
	// same way as GameState.VertexAt/NumIntersections.
	Policy []float32
	// Pass is the network's probability mass assigned to the pass move,
	// not included in Policy.
	Pass float32
	// Winrate is expressed from the side-to-move's perspective, in
	// [0, 1]. The core flips it to Black's perspective internally.
	Winrate float32
}

// NetworkEvaluator is the single operation the search core requires from
// the network.
type NetworkEvaluator interface {
	Evaluate(state gamestate.GameState, symmetry Symmetry) (Evaluation, error)
}

// Error wraps a NetworkEvaluator failure, distinguishing a transient
// failure of one evaluation (the current simulation should simply be
// aborted, §7 EvaluatorTransient) from a fatal failure of the evaluator
// itself (bad weights, GPU initialization failure -- the whole search must
// stop, §7 EvaluatorFatal).
type Error struct {
	Cause error
	Fatal bool
}

func (e *Error) Error() string {
	if e.Fatal {
		return "evaluator fatal: " + e.Cause.Error()
	}
	return "evaluator transient: " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Transient wraps err as a non-fatal, per-evaluation failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Cause: err, Fatal: false}
}

// Fatal wraps err as a failure that disables the evaluator entirely.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Cause: err, Fatal: true}
}
