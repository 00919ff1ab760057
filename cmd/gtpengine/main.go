// Command gtpengine wires a search.Controller to a self-contained demo
// GameState/NetworkEvaluator pair and runs a handful of searches against
// it, exercising the ambient stack (flags, klog, profilers, signal
// handling) the way a real GTP front end would before a genuine rules
// engine and network are plugged in. Grounded on cmd/hive/main.go's
// bootstrap shape: flag.Parse, klog.InitFlags, spinning.SafeInterrupt,
// profilers.Setup/OnQuit.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"k8s.io/klog/v2"

	"github.com/gozero-engine/core/internal/config"
	"github.com/gozero-engine/core/internal/evaluator"
	"github.com/gozero-engine/core/internal/gamestate"
	"github.com/gozero-engine/core/internal/gamestate/gamestatetest"
	"github.com/gozero-engine/core/internal/profilers"
	"github.com/gozero-engine/core/internal/search"
	"github.com/gozero-engine/core/internal/ui/spinning"
)

var (
	flagBoardSize = flag.Int("board_size", 13, "Size of the demo square board.")
	flagVisits    = flag.Int64("visits", 400, "Visit limit for each demo search.")
	flagThreads   = flag.Int("threads", 4, "Number of concurrent Searchers.")
	flagCPuct     = flag.Float64("c_puct", 1.1, "PUCT exploration constant.")
	flagMoves     = flag.Int("moves", 10, "Number of demo moves to play before exiting.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	profilers.Setup(ctx)
	defer profilers.OnQuit()

	cfg := config.Default()
	cfg.NumThreads = *flagThreads
	cfg.CPuct = float32(*flagCPuct)
	cfg.VisitLimit = *flagVisits

	ctrl := search.NewController(cfg, &randomEvaluator{boardSize: *flagBoardSize})
	board := gamestatetest.New(*flagBoardSize)

	color := gamestate.Black
	for moveNum := 0; moveNum < *flagMoves; moveNum++ {
		if ctx.Err() != nil {
			break
		}
		move, explanation, err := ctrl.Think(ctx, board, color)
		if err != nil {
			klog.Fatalf("search failed: %v", err)
		}
		klog.Infof("move %d (%s): %s -- %s", moveNum, color, move, explanation)
		if err := board.Play(color, move); err != nil {
			klog.Fatalf("applying chosen move failed: %v", err)
		}
		ctrl.NotifyMovePlayed(board, move)
		if board.PassCount() >= 2 {
			break
		}
		color = color.Other()
	}
	fmt.Println("done")
}

// randomEvaluator is a uniform-policy, random-winrate stand-in for a real
// network, letting this binary run end to end without one, matching the
// role the teacher's dummyScorer plays in internal/searchers/mcts_test.go.
type randomEvaluator struct {
	boardSize int
}

func (r *randomEvaluator) Evaluate(state gamestate.GameState, _ evaluator.Symmetry) (evaluator.Evaluation, error) {
	n := state.NumIntersections()
	policy := make([]float32, n)
	uniform := 1 / float32(n+1)
	for i := range policy {
		policy[i] = uniform
	}
	return evaluator.Evaluation{
		Policy:  policy,
		Pass:    uniform,
		Winrate: rand.Float32(),
	}, nil
}
