package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero-engine/core/internal/gamestate"
)

func TestNewRootStartsActiveWithNoChildren(t *testing.T) {
	root := NewRoot()
	require.True(t, root.Active())
	require.False(t, root.HasChildren())
	require.Equal(t, ExpandInitial, root.ExpandState())
	require.Equal(t, int64(0), root.Visits())
}

func TestUpdateAccumulatesBlackRelativeEval(t *testing.T) {
	n := newChildNode(gamestate.Vertex(0), 0.5, 0.5)
	n.Update(0.8)
	n.Update(0.4)
	require.Equal(t, int64(2), n.Visits())
	require.InDelta(t, 0.6, n.Eval(gamestate.Black), 1e-6)
	require.InDelta(t, 0.4, n.Eval(gamestate.White), 1e-6)
}

func TestVirtualLossShiftsEvalPessimistically(t *testing.T) {
	n := newChildNode(gamestate.Vertex(0), 0.5, 0.5)
	n.Update(1.0)
	require.Equal(t, float32(1.0), n.Eval(gamestate.Black))

	n.AddVirtualLoss()
	// Virtual loss pushes the Black-relative eval down, since it is
	// treated as additional losing (zero-value) visits.
	require.Less(t, n.Eval(gamestate.Black), float32(1.0))

	n.UndoVirtualLoss()
	require.Equal(t, float32(1.0), n.Eval(gamestate.Black))
}

func TestRawEvalWithPendingVirtualLossMatchesManualComputation(t *testing.T) {
	n := newChildNode(gamestate.Vertex(0), 0.5, 0.5)
	n.Update(1.0)
	n.Update(1.0)
	// Two real visits at value 1.0, plus 3 pending (unrecorded) virtual
	// losses: blackEval sum stays 2.0, visits becomes 5.
	got := n.RawEval(gamestate.Black, 3)
	require.InDelta(t, 2.0/5.0, got, 1e-6)
}

func TestNetEvalFlipsForWhite(t *testing.T) {
	n := newChildNode(gamestate.Vertex(0), 0.5, 0.5)
	n.netEval = 0.7
	require.Equal(t, float32(0.7), n.NetEval(gamestate.Black))
	require.InDelta(t, 0.3, n.NetEval(gamestate.White), 1e-6)
}

func TestInvalidateAndStatusTransitions(t *testing.T) {
	n := newChildNode(gamestate.Vertex(0), 0.5, 0.5)
	require.True(t, n.Active())
	require.True(t, n.Valid())

	n.SetActive(false)
	require.False(t, n.Active())
	require.True(t, n.Valid())

	n.Invalidate()
	require.False(t, n.Active())
	require.False(t, n.Valid())
}

func TestSelectChildPrefersHigherPriorWhenUnvisited(t *testing.T) {
	parent := newChildNode(gamestate.Vertex(0), 1, 1)
	parent.netEval = 0.5

	// visited gives the parent a nonzero sum of visits, so the U term of
	// an unvisited-but-high-prior sibling actually rewards its prior
	// instead of every unvisited child tying at U=0.
	visited := newChildSlot(gamestate.Vertex(1), 0.1)
	visited.Inflate().Update(0.5)
	visited.Inflate().Update(0.5)
	visited.Inflate().Update(0.5)
	visited.Inflate().Update(0.5)
	visited.Inflate().Update(0.5)

	highPriorUnvisited := newChildSlot(gamestate.Vertex(2), 0.9)
	parent.children = []*ChildSlot{visited, highPriorUnvisited}
	parent.expandState.Store(int32(ExpandExpanded))

	chosen := parent.SelectChild(gamestate.Black, false, 1.1, 0.25, 0.25)
	require.NotNil(t, chosen)
	require.Equal(t, highPriorUnvisited.Move(), chosen.Move())
}

func TestSelectChildSkipsInactiveChildren(t *testing.T) {
	parent := newChildNode(gamestate.Vertex(0), 1, 1)
	parent.netEval = 0.5
	pruned := newChildSlot(gamestate.Vertex(1), 0.9)
	pruned.SetActive(false)
	active := newChildSlot(gamestate.Vertex(2), 0.1)
	parent.children = []*ChildSlot{pruned, active}
	parent.expandState.Store(int32(ExpandExpanded))

	chosen := parent.SelectChild(gamestate.Black, false, 1.1, 0.25, 0.25)
	require.NotNil(t, chosen)
	require.Equal(t, active.Move(), chosen.Move())
}

func TestSelectChildReturnsNilWithNoActiveChildren(t *testing.T) {
	parent := newChildNode(gamestate.Vertex(0), 1, 1)
	parent.netEval = 0.5
	pruned := newChildSlot(gamestate.Vertex(1), 0.9)
	pruned.SetActive(false)
	parent.children = []*ChildSlot{pruned}
	parent.expandState.Store(int32(ExpandExpanded))

	chosen := parent.SelectChild(gamestate.Black, false, 1.1, 0.25, 0.25)
	require.Nil(t, chosen)
}

func TestWaitExpandedReturnsImmediatelyWhenNotExpanding(t *testing.T) {
	n := NewRoot()
	n.WaitExpanded() // must not block
	n.expandState.Store(int32(ExpandExpanded))
	n.WaitExpanded() // must not block
}
