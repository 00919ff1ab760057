package search

import (
	"math/rand/v2"

	"github.com/gozero-engine/core/internal/config"
	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/tree"
)

// simulate runs one descent/expand-or-terminal/backup cycle from root,
// per spec.md §4.7's simulation pseudocode. state must be a clone owned
// exclusively by the calling goroutine; it is mutated in place while
// descending. It returns nil once backup has completed normally, or one
// of TreeFullError / EvaluatorTransientError / EvaluatorFatalError if the
// simulation had to be aborted -- in every abort case, every virtual loss
// this call added has already been undone before returning.
func simulate(t *tree.Tree, state gamestate.GameState, rootColor gamestate.Color, cfg *config.Config, ev evaluator.NetworkEvaluator, rng *rand.Rand) error {
	node := t.Root()
	color := rootColor
	path := []*tree.Node{node}
	isRoot := true

	var leafValue float32
	for {
		node.WaitExpanded()

		if state.PassCount() >= 2 {
			leafValue = terminalValue(state)
			break
		}

		if node.ExpandState() == tree.ExpandInitial {
			ratio := float32(0)
			if isRoot {
				ratio = t.RootWideningRatio()
			}
			expanded, err := t.Expand(node, ev, state, ratio, symmetryFor(cfg))
			if err != nil {
				if _, ok := err.(*tree.NoLegalMovesError); ok {
					// Backed up below, which undoes the virtual losses.
					leafValue = terminalValue(state)
					break
				}
				undoVirtualLosses(path)
				if _, ok := err.(*tree.TreeFullError); ok {
					return err
				}
				return classifyEvaluatorErr(err)
			}
			if expanded {
				leafValue = node.NetEval(gamestate.Black)
				break
			}
			// CAS lost to a concurrent expander; wait for it and retry
			// selection below instead of treating this as a leaf.
			node.WaitExpanded()
		}

		child := node.SelectChild(color, isRoot, cfg.CPuct, cfg.FPUReductionRoot, cfg.FPUReduction)
		if child == nil {
			// No active children (spec.md P4 says this shouldn't happen
			// for an expanded node, but a fully superko-pruned root is a
			// legitimate edge case): fall back to the position's own
			// score.
			leafValue = terminalValue(state)
			break
		}

		childNode := child.Node()
		childNode.AddVirtualLoss()
		if err := state.Play(color, child.Move()); err != nil {
			childNode.UndoVirtualLoss()
			undoVirtualLosses(path)
			return &EvaluatorTransientError{Cause: err}
		}
		path = append(path, childNode)
		color = state.ToMove()
		node = childNode
		isRoot = false
	}

	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		n.Update(leafValue)
		if i > 0 {
			n.UndoVirtualLoss()
		}
	}
	return nil
}

func undoVirtualLosses(path []*tree.Node) {
	for i := 1; i < len(path); i++ {
		path[i].UndoVirtualLoss()
	}
}

func symmetryFor(cfg *config.Config) evaluator.Symmetry {
	if cfg.DeterministicSymmetry {
		return evaluator.SymmetryIdentity
	}
	return evaluator.SymmetryRandom
}

// terminalValue converts a terminal position's signed, unbounded
// Black-minus-White score into the Black-relative win value in [0,1]
// that Node.Update expects: a win for either side backs up 1 or 0, a
// draw backs up 0.5. Mirrors the original scoring-to-value conversion
// applied before backing up a terminal leaf.
func terminalValue(state gamestate.GameState) float32 {
	return scoreToValue(state.FinalScore())
}

func scoreToValue(score float32) float32 {
	switch {
	case score > 0:
		return 1
	case score < 0:
		return 0
	default:
		return 0.5
	}
}
