package search

import (
	"github.com/pkg/errors"

	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/tree"
)

// TreeFullError and NoLegalMovesError occur inside Node.Expand; re-exported
// here under the names spec.md §7 uses, since callers of this package
// should not need to import internal/tree to recognize them.
type TreeFullError = tree.TreeFullError
type NoLegalMovesError = tree.NoLegalMovesError

// EvaluatorTransientError wraps a NetworkEvaluator failure that only
// affects the current simulation; the Searcher aborts it and continues
// (spec.md §7 EvaluatorTransient).
type EvaluatorTransientError struct {
	Cause error
}

func (e *EvaluatorTransientError) Error() string {
	return errors.Wrap(e.Cause, "evaluator transient failure").Error()
}

func (e *EvaluatorTransientError) Unwrap() error { return e.Cause }

// EvaluatorFatalError wraps a NetworkEvaluator failure that disables the
// evaluator entirely; the Controller stops every Searcher and surfaces
// this to its caller (spec.md §7 EvaluatorFatal).
type EvaluatorFatalError struct {
	Cause error
}

func (e *EvaluatorFatalError) Error() string {
	return errors.Wrap(e.Cause, "evaluator fatal failure").Error()
}

func (e *EvaluatorFatalError) Unwrap() error { return e.Cause }

// MemoryConfigInvalidError surfaces a bad (max_memory, cache_pct)
// combination at configuration time (spec.md §7 MemoryConfigInvalid).
type MemoryConfigInvalidError struct {
	Cause error
}

func (e *MemoryConfigInvalidError) Error() string {
	return errors.Wrap(e.Cause, "memory configuration invalid").Error()
}

func (e *MemoryConfigInvalidError) Unwrap() error { return e.Cause }

// classifyEvaluatorErr turns a raw error from NetworkEvaluator.Evaluate
// into EvaluatorTransientError or EvaluatorFatalError, defaulting to
// transient when the evaluator didn't bother to wrap its failure in
// evaluator.Error.
func classifyEvaluatorErr(err error) error {
	var evalErr *evaluator.Error
	if errors.As(err, &evalErr) && evalErr.Fatal {
		return &EvaluatorFatalError{Cause: err}
	}
	return &EvaluatorTransientError{Cause: err}
}
