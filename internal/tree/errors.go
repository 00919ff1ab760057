package tree

import "github.com/pkg/errors"

// TreeFullError is returned by expand() when the node-count budget would be
// exceeded; the Searcher aborts the current simulation and returns to its
// stop-check loop (spec.md §7). It is recovered locally and never stops the
// Controller.
type TreeFullError struct {
	Requested int64
	Budget    int64
}

func (e *TreeFullError) Error() string {
	return errors.Errorf("tree full: requested %d more nodes, budget allows %d", e.Requested, e.Budget).Error()
}

// NoLegalMovesError is returned by expand() when, even after appending PASS,
// the candidate move list is empty -- treated as terminal; the caller should
// back up the position's scored result as the leaf value instead (spec.md
// §7).
type NoLegalMovesError struct {
	Cause error
}

func (e *NoLegalMovesError) Error() string {
	if e.Cause != nil {
		return errors.Wrap(e.Cause, "no legal moves").Error()
	}
	return "no legal moves"
}

func (e *NoLegalMovesError) Unwrap() error { return e.Cause }
