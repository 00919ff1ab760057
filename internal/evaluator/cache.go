package evaluator

import (
	"container/list"
	"sync"

	"github.com/gozero-engine/core/internal/gamestate"
)

// Cache wraps a NetworkEvaluator with a bounded, thread-safe LRU of
// evaluation results keyed by position hash. A cache hit bypasses the
// underlying evaluator entirely; it is otherwise invisible to callers (§5
// "evaluator cache ... bounded by a separate LRU of configurable
// capacity"). Grounded on the teacher's own hand-rolled map+FIFO cache
// (internal/state/cache.go) -- no example repo in the retrieval pack
// imports a third-party LRU package, so this keeps the same shape with
// container/list for recency tracking instead of reaching for one.
type Cache struct {
	inner NetworkEvaluator
	cap   int

	mu    sync.Mutex
	ll    *list.List // front = most recently used
	index map[uint64]*list.Element
}

type cacheEntry struct {
	key  uint64
	eval Evaluation
}

// NewCache wraps inner with an LRU cache of the given capacity. A capacity
// of zero disables caching (every call passes through).
func NewCache(inner NetworkEvaluator, capacity int) *Cache {
	return &Cache{
		inner: inner,
		cap:   capacity,
		ll:    list.New(),
		index: make(map[uint64]*list.Element),
	}
}

var _ NetworkEvaluator = (*Cache)(nil)

// Evaluate implements NetworkEvaluator. Cache keys are the position hash
// only; the hash is assumed (per GameState.Hash's contract) to
// discriminate positions well enough for this purpose, and the chosen
// symmetry is not part of the key because the evaluator's output is value-
// and policy-equivalent (up to the transform the caller applies) across
// symmetries of the same position.
func (c *Cache) Evaluate(state gamestate.GameState, symmetry Symmetry) (Evaluation, error) {
	if c.cap <= 0 {
		return c.inner.Evaluate(state, symmetry)
	}
	key := state.Hash()

	c.mu.Lock()
	if elem, ok := c.index[key]; ok {
		c.ll.MoveToFront(elem)
		eval := elem.Value.(*cacheEntry).eval
		c.mu.Unlock()
		return eval, nil
	}
	c.mu.Unlock()

	eval, err := c.inner.Evaluate(state, symmetry)
	if err != nil {
		return eval, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		// Lost the race with another goroutine evaluating the same
		// position; keep whichever is already cached.
		c.ll.MoveToFront(elem)
		return elem.Value.(*cacheEntry).eval, nil
	}
	elem := c.ll.PushFront(&cacheEntry{key: key, eval: eval})
	c.index[key] = elem
	for c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*cacheEntry).key)
	}
	return eval, nil
}

// Len returns the current number of cached entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Clear empties the cache, used by Controller.ClearTree.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[uint64]*list.Element)
}

// SetCapacity changes the cache's capacity, evicting the least-recently
// used entries immediately if the new capacity is smaller. Used by
// Controller.SetMaxMemory to apply a new memory budget to the already
// running cache rather than only affecting a cache built afterward.
func (c *Cache) SetCapacity(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cap = capacity
	for c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.index, oldest.Value.(*cacheEntry).key)
	}
}
