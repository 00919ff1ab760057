package moveselect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero-engine/core/internal/config"
	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/gamestate/gamestatetest"
	"github.com/gozero-engine/core/internal/tree"
)

// fixedEvaluator lets a test dictate the exact per-vertex policy a root
// expansion will see, so every child's StaticPrior is under test control.
type fixedEvaluator struct {
	policy []float32
	pass   float32
}

func (f *fixedEvaluator) Evaluate(state gamestate.GameState, _ evaluator.Symmetry) (evaluator.Evaluation, error) {
	return evaluator.Evaluation{Policy: f.policy, Pass: f.pass, Winrate: 0.5}, nil
}

// setWinrate drives exactly visits updates into n so that n.Eval(color)
// equals winrate, independent of how many visits are used.
func setWinrate(n *tree.Node, color gamestate.Color, winrate float32, visits int) {
	value := winrate
	if color == gamestate.White {
		value = 1 - winrate
	}
	for i := 0; i < visits; i++ {
		n.Update(value)
	}
}

// buildRoot expands a fresh root over a 2x2 board with the given policy
// (4 vertices + pass), requesting full expansion (ratio 0), and returns
// every ChildSlot found by move.
func buildRoot(t *testing.T, policy []float32, pass float32) (*tree.Tree, map[gamestate.Vertex]*tree.ChildSlot) {
	tr := tree.NewTree(10000, 0.25, 2)
	board := gamestatetest.New(2)
	ev := &fixedEvaluator{policy: policy, pass: pass}
	_, err := tr.Expand(tr.Root(), ev, board, 0, evaluator.SymmetryIdentity)
	require.NoError(t, err)

	byMove := make(map[gamestate.Vertex]*tree.ChildSlot)
	for _, c := range tr.Root().Children() {
		byMove[c.Move()] = c
	}
	return tr, byMove
}

func defaultStrength() config.StrengthConfig {
	return config.DefaultStrengthConfig()
}

func TestSelectCaseA_ClearGapPlaysTopMove(t *testing.T) {
	_, byMove := buildRoot(t, []float32{0.4, 0.3, 0.2, 0.1}, 0)
	v0, v1 := byMove[gamestate.Vertex(0)], byMove[gamestate.Vertex(1)]
	setWinrate(v0.Inflate(), gamestate.Black, 0.90, 50)
	setWinrate(v1.Inflate(), gamestate.Black, 0.50, 50)
	for _, v := range []gamestate.Vertex{2, 3, gamestate.PASS} {
		setWinrate(byMove[v].Inflate(), gamestate.Black, 0.10, 50)
	}

	s := New(defaultStrength())
	move, explanation := s.Select(allSlots(byMove), gamestate.Black, nil)
	require.Equal(t, v0.Move(), move)
	require.Contains(t, explanation, "case A")
}

func TestSelectCaseB_LosingPositionPlaysTopMove(t *testing.T) {
	_, byMove := buildRoot(t, []float32{0.4, 0.3, 0.2, 0.1}, 0)
	best := byMove[gamestate.Vertex(0)]
	setWinrate(best.Inflate(), gamestate.Black, 0.35, 50)
	setWinrate(byMove[gamestate.Vertex(1)].Inflate(), gamestate.Black, 0.30, 50)
	setWinrate(byMove[gamestate.Vertex(2)].Inflate(), gamestate.Black, 0.20, 50)
	setWinrate(byMove[gamestate.Vertex(3)].Inflate(), gamestate.Black, 0.10, 50)
	setWinrate(byMove[gamestate.PASS].Inflate(), gamestate.Black, 0.05, 50)

	s := New(defaultStrength())
	move, explanation := s.Select(allSlots(byMove), gamestate.Black, nil)
	require.Equal(t, best.Move(), move)
	require.Contains(t, explanation, "case B")
}

func TestSelectCaseC_IntermediateBandPicksHighestStaticPrior(t *testing.T) {
	// v0 is the top by winrate but has the lower prior (0.30); v1 sits
	// within T_DIF of W1 and carries the higher prior (0.40), so case C
	// should prefer v1 over the top move itself.
	_, byMove := buildRoot(t, []float32{0.30, 0.40, 0.15, 0.10}, 0.05)
	top := byMove[gamestate.Vertex(0)]
	setWinrate(top.Inflate(), gamestate.Black, 0.50, 50) // W1, in [T_MIN, T_MAX]
	within := byMove[gamestate.Vertex(1)]
	setWinrate(within.Inflate(), gamestate.Black, 0.48, 50) // within T_DIF of W1
	setWinrate(byMove[gamestate.Vertex(2)].Inflate(), gamestate.Black, 0.20, 50)
	setWinrate(byMove[gamestate.Vertex(3)].Inflate(), gamestate.Black, 0.10, 50)
	setWinrate(byMove[gamestate.PASS].Inflate(), gamestate.Black, 0.05, 50)

	s := New(defaultStrength())
	move, explanation := s.Select(allSlots(byMove), gamestate.Black, nil)
	require.Equal(t, within.Move(), move)
	require.Contains(t, explanation, "case C")
}

func TestSelectCaseD_WinningPositionReducesStrengthViaLowerBand(t *testing.T) {
	// W1 = 0.82 (winning, > T_MAX). v1 (winrate 0.80, prior 0.45) lands
	// in the tightest band (D1/P1); v2 (winrate 0.78, prior 0.30) lands
	// one band further out (D3/P3) and also qualifies. Case D must pick
	// the lowest-winrate qualifier, v2.
	_, byMove := buildRoot(t, []float32{0.10, 0.45, 0.30, 0.10}, 0.05)
	top := byMove[gamestate.Vertex(0)]
	setWinrate(top.Inflate(), gamestate.Black, 0.82, 50)
	v1 := byMove[gamestate.Vertex(1)]
	setWinrate(v1.Inflate(), gamestate.Black, 0.80, 50)
	v2 := byMove[gamestate.Vertex(2)]
	setWinrate(v2.Inflate(), gamestate.Black, 0.78, 50)
	setWinrate(byMove[gamestate.Vertex(3)].Inflate(), gamestate.Black, 0.10, 50)
	setWinrate(byMove[gamestate.PASS].Inflate(), gamestate.Black, 0.05, 50)

	s := New(config.DefaultStrengthConfig())
	move, explanation := s.Select(allSlots(byMove), gamestate.Black, nil)
	require.Equal(t, v2.Move(), move)
	require.Contains(t, explanation, "case D")
}

func TestSelectSkipsPrunedAndUninflatedChildren(t *testing.T) {
	_, byMove := buildRoot(t, []float32{0.4, 0.3, 0.2, 0.1}, 0)
	v0 := byMove[gamestate.Vertex(0)]
	setWinrate(v0.Inflate(), gamestate.Black, 0.9, 10)
	v0.SetActive(false)
	v1 := byMove[gamestate.Vertex(1)]
	setWinrate(v1.Inflate(), gamestate.Black, 0.5, 10)
	// The rest are never inflated; they have no statistics to offer.

	s := New(defaultStrength())
	move, _ := s.Select(allSlots(byMove), gamestate.Black, nil)
	require.Equal(t, v1.Move(), move)
}

func allSlots(byMove map[gamestate.Vertex]*tree.ChildSlot) []*tree.ChildSlot {
	slots := make([]*tree.ChildSlot, 0, len(byMove))
	for _, c := range byMove {
		slots = append(slots, c)
	}
	return slots
}
