// Package config holds the read-mostly configuration the search core is
// constructed with, plus a GTP-lz-setoption-style mechanism to mutate it
// at runtime through explicit, named setters. Grounded on the teacher's
// internal/parameters package (a generic Params map[string]string decoder)
// and internal/searchers/mcts/players_params.go (building a searcher's
// tunables from Params).
package config

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gozero-engine/core/internal/parameters"
)

// Config is the full set of tunables for one Controller. The zero value is
// not valid; use Default() and override fields, or NewFromParams from a
// Params string (mirrors the teacher's NewFromConfigString).
type Config struct {
	// NumThreads is the number of concurrent Searchers the Controller
	// runs. Typically one per CPU, or fewer when GPU-bound (§4.7).
	NumThreads int

	// CPuct is the exploration constant in the PUCT formula (§4.2).
	CPuct float32

	// FPUReductionRoot and FPUReduction are the First-Play-Urgency
	// reduction applied at the root and at all other nodes, respectively
	// (§4.2 case 1).
	FPUReductionRoot float32
	FPUReduction     float32

	// MaxTreeNodes bounds the number of ChildSlots the tree holds (each is
	// charged when expansion creates it; inflating a slot to a Node costs
	// nothing extra); expansion refuses to proceed once it would be
	// exceeded (§3, §5).
	MaxTreeNodes int64

	// CacheSize is the capacity of the evaluator result LRU (§5); zero
	// disables caching.
	CacheSize int

	// VisitLimit and PlayoutLimit bound one search if positive; zero
	// means "no limit from this source" (§4.7 stop predicate).
	VisitLimit   int64
	PlayoutLimit int64

	// TimeBudget bounds one search if positive.
	TimeBudget time.Duration

	// DirichletEpsilon and DirichletAlpha parametrize the optional root
	// noise injection used only for self-play (§4.6).
	DirichletEpsilon float32
	DirichletAlpha   float32

	// SelfPlayRandomization enables Dirichlet noise injection and
	// proportional-to-visits root move sampling; both are disabled for
	// ordinary match/GTP play.
	SelfPlayRandomization bool

	// DeterministicSymmetry forces SymmetryIdentity instead of
	// SymmetryRandom for the evaluator call during expansion, used by
	// tests that need reproducible evaluator inputs.
	DeterministicSymmetry bool

	// ProgressiveWideningStep is the amount min_prior_ratio is lowered by
	// on each widening (§4.4 step 5-6); e.g. 0.25 widens in four steps
	// from 1.0 down to 0.
	ProgressiveWideningStep float32

	// MinLegalChildren is the smallest number of materialized children a
	// first expansion must retain regardless of min_prior_ratio, so that
	// a position with one overwhelmingly likely move still considers a
	// second candidate.
	MinLegalChildren int

	// Strength / position control constants (§4.8).
	Strength StrengthConfig
}

// StrengthConfig holds the MoveSelector's tunables, all derived from a
// single scale C per spec.md §4.8 unless overridden individually.
type StrengthConfig struct {
	C    float32
	TMin float32
	TMax float32
	// TUniq and TDif are derived from C (0.08*C, 0.03*C) by
	// DefaultStrengthConfig and kept as explicit fields, so code can set
	// them independently. SetOption has no key for them (nor for the
	// other thresholds below); its strength_scale key sets C alone and
	// does not re-derive TUniq, TDif or D1..D4.
	TUniq float32
	TDif  float32
	// Prior thresholds.
	P1, P2, P3, P4 float32
	// Winrate deltas from the top child, derived from C (0.03, 0.04,
	// 0.06, 0.08 times C).
	D1, D2, D3, D4 float32
	// MinVisitsForCandidate is the minimum visit count a child needs to
	// be considered in cases C and D (spec.md §4.8: "at least 10
	// visits").
	MinVisitsForCandidate int64
}

// DefaultStrengthConfig returns the constants named literally in spec.md
// §4.8.
func DefaultStrengthConfig() StrengthConfig {
	const c = float32(0.8)
	return StrengthConfig{
		C: c, TMin: 0.40, TMax: 0.60,
		TUniq: 0.08 * c, TDif: 0.03 * c,
		P1: 0.05, P2: 0.10, P3: 0.20, P4: 0.40,
		D1: 0.03 * c, D2: 0.04 * c, D3: 0.06 * c, D4: 0.08 * c,
		MinVisitsForCandidate: 10,
	}
}

// Default returns the out-of-the-box Config, matching the defaults the
// teacher's MCTS searcher ships (c_puct=1.1, etc.) where spec.md is silent
// and falling back to conservative values elsewhere.
func Default() *Config {
	return &Config{
		NumThreads:              1,
		CPuct:                   1.1,
		FPUReductionRoot:        0.25,
		FPUReduction:            0.25,
		MaxTreeNodes:            1 << 21,
		CacheSize:               1 << 16,
		VisitLimit:              0,
		PlayoutLimit:            0,
		TimeBudget:              0,
		DirichletEpsilon:        0.25,
		DirichletAlpha:          0.03,
		SelfPlayRandomization:   false,
		DeterministicSymmetry:   false,
		ProgressiveWideningStep: 0.25,
		MinLegalChildren:        2,
		Strength:                DefaultStrengthConfig(),
	}
}

// NewFromParams builds a Config from a Params string as produced by a GTP
// front end's lz-setoption-style configuration, layering overrides on top
// of Default(). Unknown keys are left in params (PopParamOr consumes only
// what it recognizes), mirroring the teacher's NewFromParams constructors.
func NewFromParams(params parameters.Params) (*Config, error) {
	cfg := Default()
	if err := applyParams(cfg, params); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetOption mutates a single named field at runtime, the Go equivalent of
// GTP's "lz-setoption name <name> value <value>" (§5 design notes:
// "runtime mutation via lz-setoption only touches explicit setters").
func (cfg *Config) SetOption(name, value string) error {
	params := parameters.Params{name: value}
	return applyParams(cfg, params)
}

func applyParams(cfg *Config, params parameters.Params) (err error) {
	cfg.NumThreads, err = parameters.PopParamOr(params, "threads", cfg.NumThreads)
	if err != nil {
		return err
	}
	cfg.CPuct, err = parameters.PopParamOr(params, "c_puct", cfg.CPuct)
	if err != nil {
		return err
	}
	if cfg.CPuct < 0 {
		return errors.Errorf("negative c_puct value (%f given) not possible", cfg.CPuct)
	}
	cfg.FPUReductionRoot, err = parameters.PopParamOr(params, "fpu_root_reduction", cfg.FPUReductionRoot)
	if err != nil {
		return err
	}
	cfg.FPUReduction, err = parameters.PopParamOr(params, "fpu_reduction", cfg.FPUReduction)
	if err != nil {
		return err
	}
	maxTreeNodes, err := parameters.PopParamOr(params, "max_tree_nodes", int(cfg.MaxTreeNodes))
	if err != nil {
		return err
	}
	cfg.MaxTreeNodes = int64(maxTreeNodes)
	cfg.CacheSize, err = parameters.PopParamOr(params, "cache_size", cfg.CacheSize)
	if err != nil {
		return err
	}
	visitLimit, err := parameters.PopParamOr(params, "visits", int(cfg.VisitLimit))
	if err != nil {
		return err
	}
	cfg.VisitLimit = int64(visitLimit)
	playoutLimit, err := parameters.PopParamOr(params, "playouts", int(cfg.PlayoutLimit))
	if err != nil {
		return err
	}
	cfg.PlayoutLimit = int64(playoutLimit)
	maxTimeSeconds, err := parameters.PopParamOr(params, "max_time", cfg.TimeBudget.Seconds())
	if err != nil {
		return err
	}
	cfg.TimeBudget = time.Duration(maxTimeSeconds * float64(time.Second))
	cfg.DirichletEpsilon, err = parameters.PopParamOr(params, "dirichlet_epsilon", cfg.DirichletEpsilon)
	if err != nil {
		return err
	}
	cfg.DirichletAlpha, err = parameters.PopParamOr(params, "dirichlet_alpha", cfg.DirichletAlpha)
	if err != nil {
		return err
	}
	cfg.SelfPlayRandomization, err = parameters.PopParamOr(params, "self_play", cfg.SelfPlayRandomization)
	if err != nil {
		return err
	}
	cfg.Strength.C, err = parameters.PopParamOr(params, "strength_scale", cfg.Strength.C)
	if err != nil {
		return err
	}
	return nil
}

// ValidateMemory checks that the requested (max_memory, cache_pct)
// combination leaves a usable amount for both the tree and the cache,
// surfacing MemoryConfigInvalid (§7) at configuration time rather than
// during search.
func ValidateMemory(maxMemoryBytes int64, cachePct float32) error {
	if cachePct < 0 || cachePct > 100 {
		return errors.Errorf("cache percentage %f out of range [0, 100]", cachePct)
	}
	const minNodeBytes = 128
	const minEvalBytes = 256
	cacheBytes := int64(float32(maxMemoryBytes) * cachePct / 100)
	treeBytes := maxMemoryBytes - cacheBytes
	if treeBytes < minNodeBytes {
		return errors.Errorf("memory config invalid: only %d bytes left for the tree after reserving %d for cache", treeBytes, cacheBytes)
	}
	if cachePct > 0 && cacheBytes < minEvalBytes {
		return errors.Errorf("memory config invalid: cache allocation of %d bytes is too small to hold a single entry", cacheBytes)
	}
	return nil
}
