// Package tree implements the shared, concurrently-searched game tree:
// Node, ChildSlot and Tree (spec.md §3-§4.1, §4.4, §4.6). The expansion
// state of a Node is the publication fence for its children slice -- once
// a CAS moves a node to EXPANDED, m_children (here: Node.children) is
// read-only for the rest of that node's life, which is what lets selection
// run lock-free. Grounded on original_source/src/UCTNode.{h,cpp} for the
// field layout and on other_examples/IlikeChooros-go-mcts for the Go
// idiom of atomic visit/virtual-loss counters on a tree-parallel node.
package tree

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/puct"
)

// VirtualLossCount is the fixed amount of virtual loss added to a node
// when a Searcher enters it, and removed when that simulation backs up
// (spec.md §4.3).
const VirtualLossCount = 3

// Status marks whether a child remains a legal candidate for selection.
type Status int32

const (
	StatusActive Status = iota
	StatusPruned
	StatusInvalid
)

// ExpandState is the three-state lock guarding Node.children. Transitions
// are only INITIAL->EXPANDING->EXPANDED, or EXPANDING->INITIAL
// (cancellation); EXPANDED never transitions away within the lifetime of
// one search (see Tree.ResetExpandState for the only place EXPANDED reverts
// to INITIAL, done between searches with no Searcher active).
type ExpandState int32

const (
	ExpandInitial ExpandState = iota
	ExpandExpanding
	ExpandExpanded
)

// Node is one expanded tree position. See spec.md §3 for the field
// semantics; fields not explicitly called out as atomic here are either
// written once before the expand-state fence publishes them, or are only
// ever touched single-threaded between searches (prior, staticPrior,
// netEval, minPriorRatio, children).
type Node struct {
	move        gamestate.Vertex
	prior       float32 // mutated only by root noise injection, single-threaded
	staticPrior float32 // immutable snapshot before noise (§4.8)

	visits       atomic.Int64
	blackEvalSum atomicFloat64
	virtualLoss  atomic.Int32
	netEval      float32 // set before expandState publishes EXPANDED

	status      atomic.Int32 // Status
	expandState atomic.Int32 // ExpandState

	minPriorRatio float32 // guarded by expand-state ownership; see expand.go
	children      []*ChildSlot
}

// NewRoot allocates the root Node. Root has no incoming move or prior.
func NewRoot() *Node {
	n := &Node{move: gamestate.PASS, minPriorRatio: sentinelMinPriorRatio}
	n.status.Store(int32(StatusActive))
	return n
}

func newChildNode(move gamestate.Vertex, prior, staticPrior float32) *Node {
	n := &Node{
		move:          move,
		prior:         prior,
		staticPrior:   staticPrior,
		minPriorRatio: sentinelMinPriorRatio,
	}
	n.status.Store(int32(StatusActive))
	return n
}

// sentinelMinPriorRatio marks "not yet expanded"; any requested ratio below
// it triggers the first expansion.
const sentinelMinPriorRatio = float32(2.0)

func (n *Node) Move() gamestate.Vertex { return n.move }
func (n *Node) Prior() float32         { return n.prior }
func (n *Node) StaticPrior() float32   { return n.staticPrior }
func (n *Node) Visits() int64          { return n.visits.Load() }
func (n *Node) VirtualLoss() int32     { return n.virtualLoss.Load() }

func (n *Node) Status() Status    { return Status(n.status.Load()) }
func (n *Node) Active() bool      { return n.Status() == StatusActive }
func (n *Node) Valid() bool       { return n.Status() != StatusInvalid }
func (n *Node) Invalidate()       { n.status.Store(int32(StatusInvalid)) }
func (n *Node) SetActive(v bool) {
	if v {
		n.status.Store(int32(StatusActive))
	} else {
		n.status.Store(int32(StatusPruned))
	}
}

func (n *Node) ExpandState() ExpandState { return ExpandState(n.expandState.Load()) }

// NetEval returns the evaluator's value for this node's own position,
// flipped to color's point of view (spec.md §4.1).
func (n *Node) NetEval(color gamestate.Color) float32 {
	if color == gamestate.White {
		return 1 - n.netEval
	}
	return n.netEval
}

func (n *Node) blackEvals() float64 { return n.blackEvalSum.Load() }

// RawEval computes the color-relative evaluation as if pendingVirtualLoss
// additional virtual losses were present, per spec.md §4.1.
func (n *Node) RawEval(color gamestate.Color, pendingVirtualLoss int64) float32 {
	visits := n.Visits() + pendingVirtualLoss
	blackEval := n.blackEvals()
	if color == gamestate.White {
		blackEval += float64(pendingVirtualLoss)
	}
	eval := float32(blackEval / float64(visits))
	if color == gamestate.White {
		eval = 1 - eval
	}
	return eval
}

// Eval is RawEval using the node's own current virtual loss count, the
// virtual-loss-adjusted evaluation used during selection (spec.md §4.1).
func (n *Node) Eval(color gamestate.Color) float32 {
	return n.RawEval(color, int64(n.VirtualLoss()))
}

// Update records the result of one completed simulation reaching or
// passing through this node. value is expressed from Black's point of
// view uniformly (spec.md §4.5): it is never negated per ply.
func (n *Node) Update(value float32) {
	n.visits.Add(1)
	n.blackEvalSum.Add(float64(value))
}

// AddVirtualLoss and UndoVirtualLoss implement the pessimistic in-flight
// adjustment of spec.md §4.3. Every AddVirtualLoss on a node visited during
// descent must be paired with exactly one UndoVirtualLoss, including on an
// aborted simulation.
func (n *Node) AddVirtualLoss() {
	n.virtualLoss.Add(VirtualLossCount)
}

func (n *Node) UndoVirtualLoss() {
	n.virtualLoss.Add(-VirtualLossCount)
}

// Children returns the published children slice. Only valid to call once
// ExpandState() == ExpandExpanded; callers should use WaitExpanded first.
func (n *Node) Children() []*ChildSlot { return n.children }

// HasChildren reports whether an expansion of this node is in progress or
// done (ExpandState is not INITIAL), or the node still holds children from
// an earlier expansion (after ResetExpandState). Mirrors the original's
// has_children.
func (n *Node) HasChildren() bool {
	return n.ExpandState() != ExpandInitial || len(n.children) > 0
}

// WaitExpanded bounded-spins until the node is no longer EXPANDING. This is
// one of the three synchronization points of spec.md §5: expected to be
// short, since the only work happening under EXPANDING is one evaluator
// call.
func (n *Node) WaitExpanded() {
	for n.ExpandState() == ExpandExpanding {
		// Deliberate busy-wait: spec.md §5 calls this a bounded spin,
		// not a blocking wait, since the critical section is short.
	}
}

// SelectChild returns the child maximizing Q+U (spec.md §4.2), inflating
// it if it was only a slot. The node must already be EXPANDED; callers
// that might race an in-progress expansion should call WaitExpanded
// first.
func (n *Node) SelectChild(color gamestate.Color, isRoot bool, cPuct, fpuReductionRoot, fpuReduction float32) *ChildSlot {
	children := n.children

	var totalVisitedPrior float32
	var parentVisits int64
	for _, c := range children {
		if !c.Valid() {
			continue
		}
		v := c.Visits()
		parentVisits += v
		if v > 0 {
			totalVisitedPrior += c.Prior()
		}
	}

	fpuReductionEff := fpuReduction
	if isRoot {
		fpuReductionEff = fpuReductionRoot
	}
	fpuReductionEff *= math32.Sqrt(totalVisitedPrior)
	fpuEval := n.NetEval(color) - fpuReductionEff

	var best *ChildSlot
	bestValue := math32.Inf(-1)
	for _, c := range children {
		if !c.Active() {
			continue
		}
		q := fpuEval
		if inflated, expanding := c.expandingByOther(); inflated && expanding {
			q = puct.ExpandingPenalty(fpuReductionEff)
		} else if c.Visits() > 0 {
			q = c.node.Load().Eval(color)
		}
		value := puct.Value(q, c.Prior(), float32(parentVisits), c.Visits(), cPuct)
		if value > bestValue {
			bestValue = value
			best = c
		}
	}
	if best == nil {
		return nil
	}
	best.Inflate()
	return best
}
