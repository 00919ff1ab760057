// Package puct implements the PUCT/FPU selection formula (spec.md §4.2) as
// pure float32 math, kept separate from the tree package so it can be
// tested against hand-built numbers without a real Node graph. Grounded on
// original_source/src/UCTNode.cpp's uct_select_child and on
// other_examples/IlikeChooros-go-mcts's UCB1 selection loop shape (a linear
// scan computing Q+U per candidate and keeping the running best).
package puct

import "github.com/chewxy/math32"

// Value returns Q(c) + U(c) for one child, given its Q estimate (already
// resolved by the caller per spec.md §4.2 cases 1-3), its prior, the
// parent's total children visits, and its own visit count.
func Value(q, prior, sumVisitsParent float32, childVisits int64, cPuct float32) float32 {
	return q + U(prior, sumVisitsParent, childVisits, cPuct)
}

// U is the exploration term: c_puct * prior * sqrt(sum_visits_parent) / (1 + visits(c)).
func U(prior, sumVisitsParent float32, childVisits int64, cPuct float32) float32 {
	return cPuct * prior * math32.Sqrt(sumVisitsParent) / (1 + float32(childVisits))
}

// FPU is the First-Play-Urgency Q estimate for an unvisited (or not-yet
// inflated) child: net_eval(parent, color) - fpuReduction *
// sqrt(totalVisitedPrior), per spec.md §4.2 case 1.
func FPU(parentNetEval, fpuReduction, totalVisitedPrior float32) float32 {
	return parentNetEval - fpuReduction*math32.Sqrt(totalVisitedPrior)
}

// ExpandingPenalty is the Q value assigned to a child currently being
// expanded by another Searcher (§4.2 case 2), ranking it last without
// blocking the calling Searcher on the other's network call.
func ExpandingPenalty(fpuReduction float32) float32 {
	return -1 - fpuReduction
}
