// Tree owns the root Node, the tree-size budget, and the single-threaded
// between-searches maintenance operations: re-rooting after a move is
// played, superko pruning, expand-state reset for progressive widening,
// and the reporting helpers supplemented from the original's
// UCTNode::sort_children/print_candidates and UCTNodeRoot helpers
// (original_source/src/UCTNode.{h,cpp}).
package tree

import (
	"sort"
	"sync/atomic"

	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/generics"
)

// nodeCounter is the tree-size budget, owned solely by Tree. Grounded on
// original_source/src/UCTNode.cpp::link_nodelist: the original increments
// its atomic nodecount once per ChildSlot (UCTNodePointer) created during
// expansion, not once per Node allocated at inflation time -- so the
// budget is acquired here, in bulk, by expand() before it commits new
// ChildSlots to a parent, and released in bulk when a discarded subtree
// is pruned away by re-rooting.
type nodeCounter struct {
	count atomic.Int64
	max   int64
}

func newNodeCounter(max int64) *nodeCounter {
	return &nodeCounter{max: max}
}

// tryAcquireN reserves n slots against the budget, atomically: either all
// n are granted or none are. Expansion that fails this call must add no
// children and report TreeFull (spec.md §7).
func (c *nodeCounter) tryAcquireN(n int64) bool {
	for {
		cur := c.count.Load()
		if cur+n > c.max {
			return false
		}
		if c.count.CompareAndSwap(cur, cur+n) {
			return true
		}
	}
}

func (c *nodeCounter) release(n int64) {
	if c.count.Add(-n) < 0 {
		c.count.Store(0)
	}
}

func (c *nodeCounter) Load() int64 { return c.count.Load() }

func (c *nodeCounter) setMax(max int64) { c.max = max }

// Tree is the shared structure searched concurrently by a pool of
// Searchers between the synchronization points of spec.md §5. All of the
// methods in this file other than Root, NodeCount, RootWideningRatio and
// Expand (which Searchers call during search) are single-threaded:
// callers must guarantee no Searcher is active for their duration, exactly
// as the original requires around count_nodes_and_clear_expand_state and
// kill_superkos.
type Tree struct {
	root    *Node
	counter *nodeCounter

	minPriorRatioStep float32
	minLegalChildren  int

	// seenHashes tracks Black-relative position hashes seen along the
	// played game so superko pruning (kill_superkos) can recognize a
	// repeated position reachable from a child.
	seenHashes generics.Set[uint64]
}

// NewTree allocates a fresh Tree rooted at an as-yet-unexpanded position.
// maxNodes bounds the number of ChildSlots the tree may ever hold.
func NewTree(maxNodes int64, minPriorRatioStep float32, minLegalChildren int) *Tree {
	return &Tree{
		root:              NewRoot(),
		counter:           newNodeCounter(maxNodes),
		minPriorRatioStep: minPriorRatioStep,
		minLegalChildren:  minLegalChildren,
		seenHashes:        generics.MakeSet[uint64](),
	}
}

// Root returns the current root Node. Safe to call concurrently with
// search, since the pointer itself is only ever replaced single-threaded
// between searches (NotifyMovePlayed).
func (t *Tree) Root() *Node { return t.root }

// NodeCount reports the current tree-size budget usage.
func (t *Tree) NodeCount() int64 { return t.counter.Load() }

// SetMaxNodes applies a new tree-size budget to the already-running
// counter, used by Controller.SetMaxMemory so a changed memory budget
// takes effect immediately rather than only on a tree built afterward.
// Lowering the budget below the current node count does not evict
// anything retroactively; it simply makes the next expansion's
// tryAcquireN more likely to report TreeFull.
func (t *Tree) SetMaxNodes(max int64) { t.counter.setMax(max) }

// Expand runs n.Expand against the tree's shared node-count budget,
// keeping nodeCounter itself unexported: callers outside this package
// reserve budget only through this method.
func (t *Tree) Expand(n *Node, ev evaluator.NetworkEvaluator, state gamestate.GameState, requestedMinPriorRatio float32, symmetry evaluator.Symmetry) (bool, error) {
	return n.Expand(ev, state, requestedMinPriorRatio, t.counter, symmetry, t.minPriorRatioStep, t.minLegalChildren)
}

// RootWideningRatio returns the min_prior_ratio the next root expansion
// call should request: 0 (full) on the root's first expansion, matching
// the original's create_children(..., min_psa_ratio = 0.0f) default, so a
// single simulation against a fresh root always materializes every legal
// move plus PASS (spec.md §8 scenario 1). Otherwise it returns whatever
// threshold the previous expansion stored for further widening (spec.md
// §4.4 steps 5-6); this only differs from 0 if a caller other than the
// Controller's default rootPrep path ever requests a narrower ratio.
func (t *Tree) RootWideningRatio() float32 {
	if !t.root.HasChildren() {
		return 0
	}
	return t.root.minPriorRatio
}

// NotifyMovePlayed advances the root to the child corresponding to the
// played move, discarding every sibling subtree and releasing its share
// of the node-count budget back to the counter. If the played move has no
// corresponding inflated child (e.g. it was never visited during search),
// a fresh, unexpanded root is installed instead. Mirrors the original's
// root-advance step in GTP.cpp's play-move handling.
func (t *Tree) NotifyMovePlayed(state gamestate.GameState, move gamestate.Vertex) {
	var next *Node
	if t.root.HasChildren() {
		for _, c := range t.root.Children() {
			if c.Move() != move {
				continue
			}
			if n := c.Node(); n != nil {
				next = n
			}
			break
		}
	}
	// Count every ChildSlot under the discarded siblings (and their
	// inflated subtrees) back out of the budget; the surviving subtree
	// keeps its own reservation.
	siblingSlots := int64(0)
	if t.root.HasChildren() {
		for _, c := range t.root.Children() {
			if next != nil && c.Node() == next {
				continue
			}
			siblingSlots++
			if n := c.Node(); n != nil {
				siblingSlots += countDescendantSlots(n)
			}
		}
	}
	t.counter.release(siblingSlots)

	if next == nil {
		next = NewRoot()
	}
	next.SetActive(true)
	t.root = next
	t.seenHashes.Insert(state.Hash())
}

// countDescendantSlots sums every ChildSlot reachable from n, recursing
// only into slots that are themselves inflated -- exactly the shape of
// the original's count_nodes_and_clear_expand_state, reused here for
// budget release instead of widening reset.
func countDescendantSlots(n *Node) int64 {
	if !n.HasChildren() {
		return 0
	}
	total := int64(len(n.children))
	for _, c := range n.children {
		if child := c.Node(); child != nil {
			total += countDescendantSlots(child)
		}
	}
	return total
}

// ClearTree discards the whole tree and starts over from an unexpanded
// root, releasing the entire node-count budget. Grounded on the original's
// exposed clear_tree control surface operation.
func (t *Tree) ClearTree() {
	t.root = NewRoot()
	t.counter = newNodeCounter(t.counter.max)
	t.seenHashes = generics.MakeSet[uint64]()
}

// ResetExpandState walks the tree resetting every still-widenable node's
// expand state back to INITIAL, so the next search's expand() calls can
// widen further (spec.md §4.4 steps 5-6). Grounded on
// original_source/src/UCTNode.cpp::count_nodes_and_clear_expand_state,
// which performs exactly this reset as a side effect of recomputing the
// node count between searches, with no Searcher active. This does not
// violate "expand_state never transitions away from EXPANDED during a
// search": it is only ever called between searches.
func (t *Tree) ResetExpandState() {
	resetExpandStateRec(t.root)
}

func resetExpandStateRec(n *Node) {
	if n.minPriorRatio != 0 && n.ExpandState() == ExpandExpanded {
		n.expandState.Store(int32(ExpandInitial))
	}
	for _, c := range n.children {
		if child := c.Node(); child != nil {
			resetExpandStateRec(child)
		}
	}
}

// PruneSuperko marks every root child whose resulting position's hash has
// already been seen earlier in the played game as Status INVALID, so
// selection and the MoveSelector never choose a move that repeats a prior
// position. Grounded on the original's kill_superkos(const KoState&).
func (t *Tree) PruneSuperko(state gamestate.GameState) {
	if !t.root.HasChildren() {
		return
	}
	for _, c := range t.root.Children() {
		if !c.Valid() || c.Move() == gamestate.PASS {
			continue
		}
		clone := state.Clone()
		if err := clone.Play(state.ToMove(), c.Move()); err != nil {
			continue
		}
		if t.seenHashes.Has(clone.Hash()) {
			c.Invalidate()
		}
	}
}

// CandidateReport is one row of the reporting table supplemented from the
// original's print_candidates: move, visit share, winrate and static
// prior for one root child.
type CandidateReport struct {
	Move        gamestate.Vertex
	Visits      int64
	Winrate     float32
	StaticPrior float32
}

// Candidates returns the root's children sorted by visit count descending,
// mirroring UCTNode::sort_children(color) followed by print_candidates.
// Only children that have actually been visited are reported, exactly as
// the original's "if (child->get_visits() > 0)" guard.
func (t *Tree) Candidates(color gamestate.Color) []CandidateReport {
	if !t.root.HasChildren() {
		return nil
	}
	visited := make([]*ChildSlot, 0, len(t.root.Children()))
	for _, c := range t.root.Children() {
		if c.Visits() > 0 {
			visited = append(visited, c)
		}
	}
	sort.SliceStable(visited, func(i, j int) bool {
		return visited[i].Visits() > visited[j].Visits()
	})
	return generics.SliceMap(visited, func(c *ChildSlot) CandidateReport {
		return CandidateReport{
			Move:        c.Move(),
			Visits:      c.Visits(),
			Winrate:     c.Node().Eval(color),
			StaticPrior: c.StaticPrior(),
		}
	})
}

// BestNonPassChild returns the highest-visit-count root child whose move
// is not PASS, or nil if every visited child is PASS. Grounded on the
// original's get_first_child/get_nopass_child pair: used by the
// MoveSelector's explanation text when the chosen move is PASS but a
// reasonable alternative exists worth naming.
func (t *Tree) BestNonPassChild() *ChildSlot {
	if !t.root.HasChildren() {
		return nil
	}
	var best *ChildSlot
	var bestVisits int64 = -1
	for _, c := range t.root.Children() {
		if c.Move() == gamestate.PASS || !c.Valid() {
			continue
		}
		if v := c.Visits(); v > bestVisits {
			bestVisits = v
			best = c
		}
	}
	return best
}

// SampleRootMoveProportionally samples a root child proportionally to its
// visit count, rather than taking the argmax. Grounded on the original's
// UCTNodeRoot::randomize_first_proportionally; gated by
// Config.SelfPlayRandomization in the search package, since ordinary
// match/GTP play always uses the MoveSelector of spec.md §4.8 instead.
func (t *Tree) SampleRootMoveProportionally(r float32) *ChildSlot {
	if !t.root.HasChildren() {
		return nil
	}
	var total int64
	for _, c := range t.root.Children() {
		if c.Valid() {
			total += c.Visits()
		}
	}
	if total == 0 {
		return t.root.Children()[0]
	}
	threshold := r * float32(total)
	var cumulative float32
	for _, c := range t.root.Children() {
		if !c.Valid() {
			continue
		}
		cumulative += float32(c.Visits())
		if cumulative >= threshold {
			return c
		}
	}
	return t.root.Children()[len(t.root.Children())-1]
}
