package tree

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
)

// candidate is one (move, prior) pair considered during expansion, before
// the progressive-widening cut.
type candidate struct {
	move  gamestate.Vertex
	prior float32
}

// Expand materializes n's children from the network's policy for state,
// which must be the position n represents (spec.md §4.4). counter is the
// Tree's shared node-count budget; widenStep and minLegalChildren come from
// Config. requestedMinPriorRatio is the threshold this call should widen
// down to; the search package requests 0 (full expansion) on a node's first
// expansion. widenStep (Config.ProgressiveWideningStep) is how far below
// the requested ratio the stored ratio for the next widening is set.
//
// Returns (true, nil) if this call performed the expansion (or a widening
// step of it), (false, nil) if another goroutine is already expanding this
// node or the widening condition was already satisfied, and a non-nil error
// for TreeFull, NoLegalMoves or a wrapped evaluator.Error.
func (n *Node) Expand(ev evaluator.NetworkEvaluator, state gamestate.GameState, requestedMinPriorRatio float32, counter *nodeCounter, symmetry evaluator.Symmetry, widenStep float32, minLegalChildren int) (bool, error) {
	if !n.expandState.CompareAndSwap(int32(ExpandInitial), int32(ExpandExpanding)) {
		return false, nil
	}

	if n.minPriorRatio != sentinelMinPriorRatio && n.minPriorRatio <= requestedMinPriorRatio {
		// Already as wide as requested; nothing to do.
		n.expandState.Store(int32(ExpandInitial))
		return false, nil
	}

	evalResult, err := ev.Evaluate(state, symmetry)
	if err != nil {
		n.expandState.Store(int32(ExpandInitial))
		return false, err
	}

	color := state.ToMove()
	if color == gamestate.Black {
		n.netEval = evalResult.Winrate
	} else {
		n.netEval = 1 - evalResult.Winrate
	}

	candidates := buildCandidates(state, color, evalResult)
	if len(candidates) == 0 {
		n.expandState.Store(int32(ExpandInitial))
		return false, &NoLegalMovesError{}
	}
	normalizeCandidates(candidates)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].prior > candidates[j].prior
	})
	maxPrior := candidates[0].prior

	keep := minLegalChildren
	if keep > len(candidates) {
		keep = len(candidates)
	}
	threshold := maxPrior * requestedMinPriorRatio
	for i, c := range candidates {
		if c.prior >= threshold {
			keep = i + 1
		}
	}
	if keep < minLegalChildren && minLegalChildren <= len(candidates) {
		keep = minLegalChildren
	}

	existing := make(map[gamestate.Vertex]*ChildSlot, len(n.children))
	for _, c := range n.children {
		existing[c.Move()] = c
	}

	newChildren := make([]*ChildSlot, 0, keep)
	var newSlots int64
	for _, c := range candidates[:keep] {
		if slot, ok := existing[c.move]; ok {
			newChildren = append(newChildren, slot)
			continue
		}
		newChildren = append(newChildren, newChildSlot(c.move, c.prior))
		newSlots++
	}

	if newSlots > 0 && !counter.tryAcquireN(newSlots) {
		n.expandState.Store(int32(ExpandInitial))
		return false, &TreeFullError{Requested: newSlots, Budget: counter.max - counter.Load()}
	}

	n.children = newChildren
	if requestedMinPriorRatio <= 0 || keep == len(candidates) {
		n.minPriorRatio = 0
	} else {
		n.minPriorRatio = requestedMinPriorRatio - widenStep
		if n.minPriorRatio < 0 {
			n.minPriorRatio = 0
		}
	}

	n.expandState.Store(int32(ExpandExpanded))
	return true, nil
}

// buildCandidates enumerates (legal_move, prior) pairs from the policy,
// always including a PASS entry, per spec.md §4.4 step 4.
func buildCandidates(state gamestate.GameState, color gamestate.Color, eval evaluator.Evaluation) []candidate {
	candidates := make([]candidate, 0, state.NumIntersections()+1)
	for idx := 0; idx < state.NumIntersections(); idx++ {
		v := state.VertexAt(idx)
		if !state.IsLegal(color, v) {
			continue
		}
		candidates = append(candidates, candidate{move: v, prior: eval.Policy[idx]})
	}
	candidates = append(candidates, candidate{move: gamestate.PASS, prior: eval.Pass})
	return candidates
}

// normalizeCandidates renormalizes priors to sum to 1, falling back to a
// uniform distribution if the sum underflows (spec.md §4.4 step 4, covering
// a randomly initialized network whose outputs may not be well formed).
func normalizeCandidates(candidates []candidate) {
	var sum float32
	for _, c := range candidates {
		sum += c.prior
	}
	const underflowEpsilon = 1e-6
	if math32.Abs(sum) < underflowEpsilon {
		uniform := 1 / float32(len(candidates))
		for i := range candidates {
			candidates[i].prior = uniform
		}
		return
	}
	for i := range candidates {
		candidates[i].prior /= sum
	}
}
