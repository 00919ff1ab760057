package tree

import (
	"sync/atomic"

	"github.com/gozero-engine/core/internal/gamestate"
)

// ChildSlot is the compact handle to a child described in spec.md §3: it
// always carries (move, prior) and can be inflated to a full Node on
// demand. This is what bounds memory in wide, shallow parts of the tree --
// a freshly expanded parent pays only for a ChildSlot per candidate move,
// and only the children selected during search (plus the root's children,
// which root preparation inflates) ever get a Node.
type ChildSlot struct {
	move        gamestate.Vertex
	prior       float32 // may be rewritten once by root Dirichlet noise injection
	staticPrior float32 // immutable snapshot captured at creation, before any noise

	node atomic.Pointer[Node]

	// status exists independently of inflation: a slot can be pruned
	// (superko) by the Controller's root handling before it is ever
	// visited, so status cannot live solely on the (possibly absent)
	// Node. Kept in sync with the inflated Node's own status field, if
	// any, so both views agree.
	status atomic.Int32
}

// newChildSlot is called only during expansion (§4.4), single-threaded
// under the owning parent's EXPANDING lock.
func newChildSlot(move gamestate.Vertex, prior float32) *ChildSlot {
	s := &ChildSlot{move: move, prior: prior, staticPrior: prior}
	s.status.Store(int32(StatusActive))
	return s
}

func (s *ChildSlot) Move() gamestate.Vertex { return s.move }
func (s *ChildSlot) Prior() float32         { return s.prior }
func (s *ChildSlot) StaticPrior() float32   { return s.staticPrior }

// SetPrior rewrites the search-time prior, used only by root Dirichlet
// noise injection (§4.6), which runs strictly before any Searcher starts.
// StaticPrior is left untouched, since the MoveSelector (§4.8) must query
// the prior as it stood before noise injection.
func (s *ChildSlot) SetPrior(p float32) { s.prior = p }

func (s *ChildSlot) Status() Status { return Status(s.status.Load()) }
func (s *ChildSlot) Active() bool   { return s.Status() == StatusActive }
func (s *ChildSlot) Valid() bool    { return s.Status() != StatusInvalid }

func (s *ChildSlot) Invalidate() {
	s.status.Store(int32(StatusInvalid))
	if n := s.node.Load(); n != nil {
		n.Invalidate()
	}
}

func (s *ChildSlot) SetActive(active bool) {
	if active {
		s.status.Store(int32(StatusActive))
	} else {
		s.status.Store(int32(StatusPruned))
	}
	if n := s.node.Load(); n != nil {
		n.SetActive(active)
	}
}

// IsInflated reports whether this slot already owns a full Node.
func (s *ChildSlot) IsInflated() bool { return s.node.Load() != nil }

// Node returns the inflated Node, or nil if this slot has not been
// inflated yet. An inflated Node may still have zero visits.
func (s *ChildSlot) Node() *Node { return s.node.Load() }

// Visits returns the child's visit count: 0 if not yet inflated.
func (s *ChildSlot) Visits() int64 {
	if n := s.node.Load(); n != nil {
		return n.Visits()
	}
	return 0
}

// expandingByOther reports whether this slot is inflated and some other
// Searcher currently holds it in EXPANDING state (spec.md §4.2 case 2).
func (s *ChildSlot) expandingByOther() (inflated, expanding bool) {
	n := s.node.Load()
	if n == nil {
		return false, false
	}
	return true, n.ExpandState() == ExpandExpanding
}

// Inflate allocates the embedded Node the first time this slot is
// selected, idempotently: exactly one concurrent caller wins the
// allocation race, and the rest observe the winner's Node through the
// atomic pointer (spec.md §5 "ChildSlot inflation ... must be idempotent
// and safe under concurrent attempts"). Unlike expansion, inflation never
// consumes the tree-size budget: the budget is reserved once per ChildSlot
// at the moment the slot is created during expansion (see expand.go),
// mirroring the original's unconditional UCTNodePointer::inflate().
func (s *ChildSlot) Inflate() *Node {
	if n := s.node.Load(); n != nil {
		return n
	}
	candidate := newChildNode(s.move, s.prior, s.staticPrior)
	candidate.SetActive(s.Active())
	if s.Status() == StatusInvalid {
		// Preserve INVALID distinctly from PRUNED.
		candidate.Invalidate()
	}
	if s.node.CompareAndSwap(nil, candidate) {
		return candidate
	}
	// Lost the race: our speculative allocation is simply dropped, and we
	// use the winner's node instead.
	return s.node.Load()
}
