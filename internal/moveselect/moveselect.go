// Package moveselect implements the strength/position-control policy that
// turns root search statistics into a single chosen move plus a textual
// explanation (spec.md §4.8). It has no direct analogue in the teacher
// (hiveGo always plays the argmax-visits move); grounded instead on
// original_source/src/UCTNode.cpp's usingStrengthControl, which this
// follows case-for-case while dropping the commented-out spatial-distance
// term the original never enabled (spec.md §9 design note (a)).
package moveselect

import (
	"fmt"
	"sort"

	"github.com/gozero-engine/core/internal/config"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/tree"
)

// MoveSelector holds the strength/position-control constants of spec.md
// §4.8, read-only after construction.
type MoveSelector struct {
	cfg config.StrengthConfig
}

// New builds a MoveSelector from the given strength constants.
func New(cfg config.StrengthConfig) *MoveSelector {
	return &MoveSelector{cfg: cfg}
}

// Select picks one root child and explains the choice. children should be
// every root ChildSlot, already inflated by root-prep; bestNonPass is used
// only to enrich the explanation when the chosen move is PASS.
func (s *MoveSelector) Select(children []*tree.ChildSlot, color gamestate.Color, bestNonPass *tree.ChildSlot) (gamestate.Vertex, string) {
	active := make([]*tree.ChildSlot, 0, len(children))
	for _, c := range children {
		if c.Active() && c.Node() != nil {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return gamestate.PASS, "no active root children; defaulting to pass"
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Node().Eval(color) > active[j].Node().Eval(color)
	})

	top := active[0]
	w1 := top.Node().Eval(color)
	var w2 float32
	if len(active) > 1 {
		w2 = active[1].Node().Eval(color)
	}

	move, explanation := s.selectCase(active, top, w1, w2, color)
	if move == gamestate.PASS && bestNonPass != nil {
		explanation += fmt.Sprintf("; best non-pass alternative was %s (winrate %.3f)", bestNonPass.Move(), bestNonPass.Node().Eval(color))
	}
	return move, explanation
}

func (s *MoveSelector) selectCase(active []*tree.ChildSlot, top *tree.ChildSlot, w1, w2 float32, color gamestate.Color) (gamestate.Vertex, string) {
	c := s.cfg

	if len(active) == 1 || w1-w2 >= c.TUniq {
		return top.Move(), fmt.Sprintf("case A: gap %.3f >= T_UNIQ=%.3f, playing top move %s (winrate %.3f)", w1-w2, c.TUniq, top.Move(), w1)
	}
	if w1 <= c.TMin {
		return top.Move(), fmt.Sprintf("case B: losing position (winrate %.3f <= T_MIN=%.3f), playing top move %s", w1, c.TMin, top.Move())
	}
	if w1 <= c.TMax {
		return s.selectCaseC(active, top, w1, color)
	}
	return s.selectCaseD(active, top, w1, color)
}

// selectCaseC implements spec.md §4.8 case 3: the intermediate band.
func (s *MoveSelector) selectCaseC(active []*tree.ChildSlot, top *tree.ChildSlot, w1 float32, color gamestate.Color) (gamestate.Vertex, string) {
	c := s.cfg
	var best *tree.ChildSlot
	for _, candidate := range active {
		if candidate.Node().Visits() < c.MinVisitsForCandidate {
			continue
		}
		if candidate.Node().Eval(color) < w1-c.TDif {
			continue
		}
		if best == nil || candidate.StaticPrior() > best.StaticPrior() {
			best = candidate
		}
	}
	if best == nil {
		return top.Move(), fmt.Sprintf("case C: intermediate band, no candidate within T_DIF=%.3f of W1=%.3f with enough visits, playing top move %s", c.TDif, w1, top.Move())
	}
	return best.Move(), fmt.Sprintf("case C: intermediate band, picked %s (winrate %.3f, static prior %.3f) over top move %s (winrate %.3f)", best.Move(), best.Node().Eval(color), best.StaticPrior(), top.Move(), w1)
}

// caseDBand is one of the four prior-gated winrate bands of spec.md §4.8
// case 4, walked from the most aggressive reduction to the least.
type caseDBand struct {
	lo, hi    float32
	minPrior  float32
	strictGt  bool // P1's threshold is a strict ">", the others are ">=".
	bandIndex int
}

// selectCaseD implements spec.md §4.8 case 4: the winning band, walking
// D1..D4/P1..P4 and picking the lowest-winrate qualifying candidate.
func (s *MoveSelector) selectCaseD(active []*tree.ChildSlot, top *tree.ChildSlot, w1 float32, color gamestate.Color) (gamestate.Vertex, string) {
	c := s.cfg
	bands := []caseDBand{
		{lo: w1 - c.D4, hi: w1 - c.D3, minPrior: c.P4, bandIndex: 4},
		{lo: w1 - c.D3, hi: w1 - c.D2, minPrior: c.P3, bandIndex: 3},
		{lo: w1 - c.D2, hi: w1 - c.D1, minPrior: c.P2, bandIndex: 2},
		{lo: w1 - c.D1, hi: w1, minPrior: c.P1, strictGt: true, bandIndex: 1},
	}

	var chosen *tree.ChildSlot
	var chosenWinrate float32
	var chosenBand int
	for _, candidate := range active {
		if candidate.Node().Visits() < c.MinVisitsForCandidate {
			continue
		}
		wr := candidate.Node().Eval(color)
		for _, b := range bands {
			if wr < b.lo || wr > b.hi {
				continue
			}
			prior := candidate.StaticPrior()
			qualifies := prior >= b.minPrior
			if b.strictGt {
				qualifies = prior > b.minPrior
			}
			if !qualifies {
				continue
			}
			if chosen == nil || wr < chosenWinrate {
				chosen = candidate
				chosenWinrate = wr
				chosenBand = b.bandIndex
			}
			break
		}
	}
	if chosen == nil {
		return top.Move(), fmt.Sprintf("case D: winning position (W1=%.3f), no qualifying lower candidate, playing top move %s", w1, top.Move())
	}
	return chosen.Move(), fmt.Sprintf("case D: winning position (W1=%.3f), picked %s in band %d (winrate %.3f, static prior %.3f) to reduce strength", w1, chosen.Move(), chosenBand, chosenWinrate, chosen.StaticPrior())
}
