package gamestatetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozero-engine/core/internal/gamestate"
)

func TestNewBoardEmpty(t *testing.T) {
	b := New(5)
	require.Equal(t, 25, b.NumIntersections())
	require.Equal(t, gamestate.Black, b.ToMove())
	require.Equal(t, 25, len(b.LegalMoves(gamestate.Black)))
	require.True(t, b.IsLegal(gamestate.Black, gamestate.PASS))
}

func TestPlayTogglesSideToMove(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Play(gamestate.Black, gamestate.Vertex(0)))
	require.Equal(t, gamestate.White, b.ToMove())
	require.False(t, b.IsLegal(gamestate.White, gamestate.Vertex(0)))
	require.Equal(t, 0, b.PassCount())
}

func TestPlayIllegalMoveErrors(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Play(gamestate.Black, gamestate.Vertex(3)))
	err := b.Play(gamestate.White, gamestate.Vertex(3))
	require.Error(t, err)
}

func TestPassCountAccumulatesAndResets(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Play(gamestate.Black, gamestate.PASS))
	require.Equal(t, 1, b.PassCount())
	require.NoError(t, b.Play(gamestate.White, gamestate.PASS))
	require.Equal(t, 2, b.PassCount())
	require.NoError(t, b.Play(gamestate.Black, gamestate.Vertex(0)))
	require.Equal(t, 0, b.PassCount())
}

func TestCloneIsIndependent(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Play(gamestate.Black, gamestate.Vertex(0)))
	clone := b.Clone()
	require.NoError(t, clone.Play(gamestate.White, gamestate.Vertex(1)))
	require.True(t, b.IsLegal(gamestate.Black, gamestate.Vertex(1)))
	require.False(t, clone.IsLegal(gamestate.Black, gamestate.Vertex(1)))
}

func TestHashStableAcrossClonesDiffersAcrossPositions(t *testing.T) {
	b := New(5)
	require.NoError(t, b.Play(gamestate.Black, gamestate.Vertex(0)))
	clone := b.Clone()
	require.Equal(t, b.Hash(), clone.Hash())

	other := New(5)
	require.NoError(t, other.Play(gamestate.Black, gamestate.Vertex(1)))
	require.NotEqual(t, b.Hash(), other.Hash())
}

func TestFinalScoreCountsStoneDifference(t *testing.T) {
	b := New(5)
	b.SetStone(gamestate.Vertex(0), gamestate.Black)
	b.SetStone(gamestate.Vertex(1), gamestate.Black)
	b.SetStone(gamestate.Vertex(2), gamestate.White)
	require.Equal(t, float32(1), b.FinalScore())
}
