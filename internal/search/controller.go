// Package search implements the Controller and Searcher pool described in
// spec.md §4.7: N concurrent Searchers sharing one Tree, coordinated
// through a stop predicate and re-rooted after every played move.
// Grounded on the teacher's internal/searchers/mcts package for the
// Searcher/Controller split and on cmd/a0trainer/matches.go for the
// errgroup-based goroutine pool shape.
package search

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	exprand "golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/gozero-engine/core/internal/config"
	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/moveselect"
	"github.com/gozero-engine/core/internal/tree"
)

// Controller owns the shared Tree and drives a pool of Searchers against
// it, implementing the control surface of spec.md §6.
type Controller struct {
	mu    sync.Mutex
	cfg   *config.Config
	ev    evaluator.NetworkEvaluator
	cache *evaluator.Cache
	tr    *tree.Tree

	stopped      atomic.Bool
	playouts     atomic.Int64
	deadline     time.Time
	hasDeadline  bool
	visitLimit   atomic.Int64
	playoutLimit atomic.Int64

	selector *moveselect.MoveSelector
	// noiseRNG is kept independent of the per-Searcher math/rand/v2
	// sources and drives Dirichlet noise injection at the root and the
	// proportional root sampling (self-play only). NewController seeds it
	// from the wall clock and there is no setting for a fixed seed, so
	// these draws differ from run to run.
	noiseRNG *exprand.Rand
}

// NewController builds a Controller over a freshly unexpanded Tree, ready
// for Think or Ponder. cfg must have already survived config.ValidateMemory
// if SetMaxMemory was used to derive MaxTreeNodes/CacheSize.
func NewController(cfg *config.Config, ev evaluator.NetworkEvaluator) *Controller {
	cache := evaluator.NewCache(ev, cfg.CacheSize)
	c := &Controller{
		cfg:      cfg,
		ev:       cache,
		cache:    cache,
		tr:       tree.NewTree(cfg.MaxTreeNodes, cfg.ProgressiveWideningStep, cfg.MinLegalChildren),
		selector: moveselect.New(cfg.Strength),
		noiseRNG: exprand.New(exprand.NewSource(uint64(time.Now().UnixNano()))),
	}
	c.visitLimit.Store(cfg.VisitLimit)
	c.playoutLimit.Store(cfg.PlayoutLimit)
	return c
}

// Think runs a bounded search from state and returns the chosen move plus
// a textual explanation suitable for embedding as a game-record comment
// (spec.md §4.8). It blocks until the stop predicate fires.
func (c *Controller) Think(ctx context.Context, state gamestate.GameState, color gamestate.Color) (gamestate.Vertex, string, error) {
	searchID := uuid.New().String()
	klog.V(1).Infof("search %s: think start, color=%s", searchID, color)

	if err := c.runSearch(ctx, state, color); err != nil {
		return gamestate.PASS, "", err
	}

	root := c.tr.Root()
	if c.cfg.SelfPlayRandomization {
		// Self-play training games sample proportionally to visit count
		// instead of running the strength-control MoveSelector, per the
		// original's UCTNodeRoot::randomize_first_proportionally.
		chosen := c.tr.SampleRootMoveProportionally(c.noiseRNG.Float32())
		if chosen != nil {
			explanation := "self-play: sampled proportionally to visit count"
			klog.V(1).Infof("search %s: chose %s after %d playouts (%s)", searchID, chosen.Move(), c.playouts.Load(), explanation)
			return chosen.Move(), explanation, nil
		}
	}
	choice, explanation := c.selector.Select(root.Children(), color, c.tr.BestNonPassChild())
	klog.V(1).Infof("search %s: chose %s after %d playouts (%s)", searchID, choice, c.playouts.Load(), explanation)
	return choice, explanation, nil
}

// Ponder runs a search on the opponent's time, discarding its own return
// value; the caller stops it via Stop() and then calls NotifyMovePlayed
// once the opponent's actual move is known (spec.md §4.7).
func (c *Controller) Ponder(ctx context.Context, state gamestate.GameState, color gamestate.Color) error {
	return c.runSearch(ctx, state, color)
}

// Stop signals every running Searcher to return at its next stop-predicate
// poll.
func (c *Controller) Stop() {
	c.stopped.Store(true)
}

func (c *Controller) runSearch(ctx context.Context, state gamestate.GameState, color gamestate.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped.Store(false)
	c.playouts.Store(0)
	c.hasDeadline = c.cfg.TimeBudget > 0
	if c.hasDeadline {
		c.deadline = time.Now().Add(c.cfg.TimeBudget)
	}

	// Between-searches maintenance, mirroring the original's
	// count_nodes_and_clear_expand_state call ahead of every new search:
	// any node still short of full widening gets another chance to widen
	// before this search's Searchers start selecting through it.
	c.tr.ResetExpandState()

	if err := c.rootPrep(state, color); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.cfg.NumThreads; i++ {
		threadIdx := i
		g.Go(func() error {
			return c.runSearcher(gctx, state, color, threadIdx)
		})
	}
	return g.Wait()
}

func (c *Controller) runSearcher(ctx context.Context, rootState gamestate.GameState, rootColor gamestate.Color, threadIdx int) error {
	rng := rand.New(rand.NewPCG(uint64(threadIdx)+1, uint64(threadIdx)*2+1))
	for {
		if c.stopPredicate(ctx) {
			return nil
		}
		simErr := exceptions.TryCatch[error](func() {
			simErr := simulate(c.tr, rootState.Clone(), rootColor, c.cfg, c.ev, rng)
			if simErr != nil {
				panic(simErr)
			}
		})
		if simErr != nil {
			var fatal *EvaluatorFatalError
			if asFatal(simErr, &fatal) {
				return fatal
			}
			// TreeFull / EvaluatorTransient: absorbed, doesn't count as a
			// playout (spec.md §7 propagation policy).
			continue
		}
		c.playouts.Add(1)
	}
}

func asFatal(err error, target **EvaluatorFatalError) bool {
	if e, ok := err.(*EvaluatorFatalError); ok {
		*target = e
		return true
	}
	return false
}

func (c *Controller) stopPredicate(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if c.stopped.Load() {
		return true
	}
	if limit := c.playoutLimit.Load(); limit > 0 && c.playouts.Load() >= limit {
		return true
	}
	if limit := c.visitLimit.Load(); limit > 0 && c.tr.Root().Visits() >= limit {
		return true
	}
	if c.hasDeadline && time.Now().After(c.deadline) {
		return true
	}
	return false
}

// rootPrep implements spec.md §4.6: expand the root if needed, prune
// superko, optionally inject Dirichlet noise, and inflate every root
// child so callers can read its statistics.
func (c *Controller) rootPrep(state gamestate.GameState, color gamestate.Color) error {
	root := c.tr.Root()
	if root.ExpandState() == tree.ExpandInitial {
		ratio := c.tr.RootWideningRatio()
		if _, err := c.tr.Expand(root, c.ev, state, ratio, symmetryFor(c.cfg)); err != nil {
			if _, ok := err.(*tree.NoLegalMovesError); !ok {
				return err
			}
		}
	}
	root.WaitExpanded()
	if !root.HasChildren() {
		return nil
	}

	c.tr.PruneSuperko(state)

	if c.cfg.SelfPlayRandomization {
		c.injectDirichletNoise(root)
	}

	for _, child := range root.Children() {
		child.Inflate()
	}
	return nil
}

// injectDirichletNoise mutates every root ChildSlot's search-time prior in
// place, leaving StaticPrior untouched, per spec.md §4.6.
func (c *Controller) injectDirichletNoise(root *tree.Node) {
	children := root.Children()
	noise := sampleDirichlet(c.noiseRNG, len(children), c.cfg.DirichletAlpha)
	eps := c.cfg.DirichletEpsilon
	for i, child := range children {
		child.SetPrior((1-eps)*child.Prior() + eps*noise[i])
	}
}

// NotifyMovePlayed advances the root to the child for move, discarding
// siblings, per spec.md §4.6/§6.
func (c *Controller) NotifyMovePlayed(state gamestate.GameState, move gamestate.Vertex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tr.NotifyMovePlayed(state, move)
}

// ClearTree discards the whole search tree and the evaluator cache
// (spec.md §6 clear_tree): a cleared tree with stale cached evaluations
// would still short-circuit the next search's expansions.
func (c *Controller) ClearTree() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tr.ClearTree()
	c.cache.Clear()
}

// SetVisitLimit and SetPlayoutLimit bound the next search if n > 0; zero
// disables that limit source (spec.md §6).
func (c *Controller) SetVisitLimit(n int64)   { c.visitLimit.Store(n) }
func (c *Controller) SetPlayoutLimit(n int64) { c.playoutLimit.Store(n) }

// SetMaxMemory validates and applies a (bytes, cache_pct) budget,
// surfacing MemoryConfigInvalidError at configuration time rather than
// during search (spec.md §7).
func (c *Controller) SetMaxMemory(maxMemoryBytes int64, cachePct float32) error {
	if err := config.ValidateMemory(maxMemoryBytes, cachePct); err != nil {
		return &MemoryConfigInvalidError{Cause: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	const assumedNodeBytes = 128
	cacheBytes := int64(float32(maxMemoryBytes) * cachePct / 100)
	c.cfg.MaxTreeNodes = (maxMemoryBytes - cacheBytes) / assumedNodeBytes
	c.cfg.CacheSize = int(cacheBytes / 256)
	c.tr.SetMaxNodes(c.cfg.MaxTreeNodes)
	c.cache.SetCapacity(c.cfg.CacheSize)
	return nil
}

// SetOption mutates a single named config field at runtime, the GTP
// lz-setoption equivalent (spec.md §5 supplemented feature).
func (c *Controller) SetOption(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.SetOption(name, value)
}

// Candidates reports the root children's statistics sorted by visit count
// descending (supplemented from the original's print_candidates).
func (c *Controller) Candidates(color gamestate.Color) []tree.CandidateReport {
	return c.tr.Candidates(color)
}
