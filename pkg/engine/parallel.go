package engine

import (
	"sync"
	"sync/atomic"

	. "github.com/grunsab/Titan/pkg/chess"
)

// splitPoint farms the tail of one node's move list out to idle
// threads. The owner has already searched the first move with the full
// window, so every remaining move is probed with a null window at the
// shared alpha and re-searched by the same worker on improvement.
// A fail high sets abort and the whole subtree drains.
type splitPoint struct {
	engine *Engine
	states []splitState
	depth  int
	height int
	beta   int
	pvNode bool
	abort  atomic.Bool

	mu       sync.Mutex
	cond     sync.Cond
	moves    []Move
	next     int
	alpha    int
	best     int
	bestMove Move
	line     []Move
	workers  int
	finished bool
}

type splitState struct {
	position   Position
	staticEval int
	killer1    Move
	killer2    Move
}

func newSplitPoint(t *thread, moves []Move, alpha, beta, depth, height int, pvNode bool) *splitPoint {
	var sp = &splitPoint{
		engine: t.engine,
		states: make([]splitState, height+1),
		depth:  depth,
		height: height,
		beta:   beta,
		pvNode: pvNode,
		moves:  moves,
		alpha:  alpha,
		best:   -valueInfinity,
	}
	sp.cond.L = &sp.mu
	for i := 0; i <= height; i++ {
		sp.states[i] = splitState{
			position:   t.stack[i].position,
			staticEval: t.stack[i].staticEval,
			killer1:    t.stack[i].killer1,
			killer2:    t.stack[i].killer2,
		}
	}
	return sp
}

// splitSearch runs on the owning thread. It publishes the split point,
// works it like any helper, then waits for the joiners to drain before
// collecting the result.
func (t *thread) splitSearch(moves []Move, alpha, beta, depth, height int, pvNode bool) (best int, bestMove Move, line []Move) {
	var e = t.engine
	var sp = newSplitPoint(t, moves, alpha, beta, depth, height, pvNode)

	for i := 1; i < e.Options.Threads; i++ {
		select {
		case e.splits <- sp:
		default:
		}
	}

	t.aborts = append(t.aborts, &sp.abort)
	sp.work(t)
	t.aborts = t.aborts[:len(t.aborts)-1]

	sp.mu.Lock()
	sp.finished = true
	for sp.workers > 0 {
		sp.cond.Wait()
	}
	best, bestMove, line = sp.best, sp.bestMove, sp.line
	sp.mu.Unlock()
	return best, bestMove, line
}

// join is the helper-side entry. The helper rebuilds the owner's path
// on its own stack, refreshes its evaluator and pulls moves until the
// point drains. A WaitGroup cannot express this rendezvous: joiners
// arrive after the owner has already started waiting.
func (sp *splitPoint) join(t *thread) {
	sp.mu.Lock()
	if sp.finished || sp.abort.Load() || sp.next >= len(sp.moves) {
		sp.mu.Unlock()
		return
	}
	sp.workers++
	sp.mu.Unlock()

	for i, state := range sp.states {
		t.stack[i].position = state.position
		t.stack[i].staticEval = state.staticEval
		t.stack[i].killer1 = state.killer1
		t.stack[i].killer2 = state.killer2
	}
	t.evaluator.Init(&t.stack[sp.height].position)

	t.aborts = append(t.aborts, &sp.abort)
	sp.work(t)
	t.aborts = t.aborts[:len(t.aborts)-1]

	sp.mu.Lock()
	sp.workers--
	if sp.workers == 0 {
		sp.cond.Broadcast()
	}
	sp.mu.Unlock()
}

func (sp *splitPoint) work(t *thread) {
	var height = sp.height
	var options = &t.engine.Options
	var child = &t.stack[height+1].position

	for {
		if t.stopped() {
			return
		}

		sp.mu.Lock()
		if sp.next >= len(sp.moves) {
			sp.mu.Unlock()
			return
		}
		var move = sp.moves[sp.next]
		var moveNumber = sp.next + 2 // the owner searched one serially
		sp.next++
		var alpha = sp.alpha
		sp.mu.Unlock()

		if alpha >= sp.beta {
			return
		}
		if !t.MakeMove(move, height) {
			continue
		}

		var newDepth = sp.depth - 1
		var reduction int
		if options.LateMoveReduction && sp.depth >= 3 &&
			!isCaptureOrPromotion(move) && !child.IsCheck() {
			reduction = options.Lmr(sp.depth, moveNumber)
			if sp.pvNode {
				reduction -= 2
			}
			reduction = Max(0, Min(sp.depth-2, reduction))
		}

		var score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1)
		if score > alpha && reduction > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1)
		}
		if score > alpha && sp.pvNode {
			score = -t.alphaBeta(-sp.beta, -alpha, newDepth, height+1)
		}
		t.UnmakeMove()

		if t.stopped() {
			return
		}

		sp.mu.Lock()
		if score > sp.best {
			sp.best = score
			sp.bestMove = move
			if score > sp.alpha {
				sp.alpha = score
				sp.line = collectLine(move, &t.stack[height+1].pv)
				if score >= sp.beta {
					sp.abort.Store(true)
				}
			}
		}
		sp.mu.Unlock()

		if sp.abort.Load() {
			return
		}
	}
}

func collectLine(move Move, child *pv) []Move {
	var result = make([]Move, 0, child.size+1)
	result = append(result, move)
	result = append(result, child.items[:child.size]...)
	return result
}
