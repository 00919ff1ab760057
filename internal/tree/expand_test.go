package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/gamestate/gamestatetest"
)

// fixedEvaluator always returns the same Evaluation, letting tests control
// priors exactly rather than depending on a real network.
type fixedEvaluator struct {
	eval evaluator.Evaluation
	err  error
}

func (f *fixedEvaluator) Evaluate(state gamestate.GameState, symmetry evaluator.Symmetry) (evaluator.Evaluation, error) {
	return f.eval, f.err
}

func TestExpandFullyMaterializesAllLegalMovesPlusPass(t *testing.T) {
	board := gamestatetest.New(3) // 9 intersections
	ev := &fixedEvaluator{eval: evaluator.Evaluation{
		Policy:  uniformPolicy(9),
		Pass:    1.0 / 10.0,
		Winrate: 0.5,
	}}
	n := NewRoot()
	counter := newNodeCounter(1000)

	expanded, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	require.True(t, expanded)
	require.Equal(t, ExpandExpanded, n.ExpandState())
	require.Len(t, n.Children(), 10) // 9 vertices + pass
	require.Equal(t, int64(10), counter.Load())
}

func TestExpandNormalizesUnderflowingPriorsToUniform(t *testing.T) {
	board := gamestatetest.New(2)
	policy := make([]float32, 4)
	ev := &fixedEvaluator{eval: evaluator.Evaluation{
		Policy:  policy, // all zero
		Pass:    0,
		Winrate: 0.5,
	}}
	n := NewRoot()
	counter := newNodeCounter(1000)

	_, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	for _, c := range n.Children() {
		require.InDelta(t, 1.0/5.0, c.Prior(), 1e-6)
	}
}

func TestExpandProgressiveWideningKeepsOnlyHighPriorSubsetPlusFloor(t *testing.T) {
	board := gamestatetest.New(2) // 4 intersections
	policy := []float32{0.7, 0.1, 0.1, 0.1}
	ev := &fixedEvaluator{eval: evaluator.Evaluation{
		Policy:  policy,
		Pass:    0,
		Winrate: 0.5,
	}}
	n := NewRoot()
	counter := newNodeCounter(1000)

	// requestedMinPriorRatio=1.0 keeps only candidates tied with the max
	// prior, but minLegalChildren=2 forces at least two to survive.
	_, err := n.Expand(ev, board, 1.0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	require.Len(t, n.Children(), 2)
	require.Greater(t, n.minPriorRatio, float32(0))
}

func TestExpandSetsMinPriorRatioToZeroWhenFullyExpanded(t *testing.T) {
	board := gamestatetest.New(2)
	policy := []float32{0.25, 0.25, 0.25, 0.25}
	ev := &fixedEvaluator{eval: evaluator.Evaluation{
		Policy:  policy,
		Pass:    0,
		Winrate: 0.5,
	}}
	n := NewRoot()
	counter := newNodeCounter(1000)

	_, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	require.Equal(t, float32(0), n.minPriorRatio)
}

func TestExpandReturnsFalseIfAlreadyWideEnough(t *testing.T) {
	board := gamestatetest.New(2)
	ev := &fixedEvaluator{eval: evaluator.Evaluation{Policy: uniformPolicy(4), Pass: 0.2, Winrate: 0.5}}
	n := NewRoot()
	counter := newNodeCounter(1000)

	_, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	require.Equal(t, float32(0), n.minPriorRatio)

	n.expandState.Store(int32(ExpandInitial))
	expanded, err := n.Expand(ev, board, 0.5, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.NoError(t, err)
	require.False(t, expanded)
}

func TestExpandFailsClosedWhenBudgetExhausted(t *testing.T) {
	board := gamestatetest.New(3)
	ev := &fixedEvaluator{eval: evaluator.Evaluation{Policy: uniformPolicy(9), Pass: 0.1, Winrate: 0.5}}
	n := NewRoot()
	counter := newNodeCounter(3) // fewer than the 10 slots this expansion needs

	expanded, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.False(t, expanded)
	require.Error(t, err)
	var treeFull *TreeFullError
	require.ErrorAs(t, err, &treeFull)
	require.Equal(t, ExpandInitial, n.ExpandState())
	require.Equal(t, int64(0), counter.Load())
}

func TestExpandPropagatesEvaluatorError(t *testing.T) {
	board := gamestatetest.New(2)
	ev := &fixedEvaluator{err: evaluator.Transient(errBoom)}
	n := NewRoot()
	counter := newNodeCounter(1000)

	expanded, err := n.Expand(ev, board, 0, counter, evaluator.SymmetryIdentity, 0.25, 2)
	require.False(t, expanded)
	require.Error(t, err)
	require.Equal(t, ExpandInitial, n.ExpandState())
}

type boomErr string

func (e boomErr) Error() string { return string(e) }

const errBoom = boomErr("network unavailable")

func uniformPolicy(n int) []float32 {
	p := make([]float32, n)
	u := 1.0 / float32(n+1)
	for i := range p {
		p[i] = u
	}
	return p
}
