package engine

import (
	"sync/atomic"

	. "github.com/grunsab/Titan/pkg/chess"
)

const pawnValue = 100

func aspirationWindow(t *thread, ml []Move, depth, prevScore int) int {
	if t.engine.Options.AspirationWindows &&
		depth >= 5 && !(prevScore <= valueLoss || prevScore >= valueWin) {
		const window = 25
		var alpha = Max(-valueInfinity, prevScore-window)
		var beta = Min(valueInfinity, prevScore+window)
		var score = searchRoot(t, ml, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
		if score >= beta {
			beta = valueInfinity
		}
		if score <= alpha {
			alpha = -valueInfinity
		}
		score = searchRoot(t, ml, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
	}
	return searchRoot(t, ml, -valueInfinity, valueInfinity, depth)
}

// searchRoot searches the root move list in order. The first move gets
// the full window; the rest are probed with a null window and
// re-searched on improvement. With several threads the tail of the
// list becomes a split point once the first move is done.
func searchRoot(t *thread, ml []Move, alpha, beta, depth int) int {
	const height = 0
	var p = &t.stack[height].position
	t.evaluator.Init(p)
	t.clearPV(height)
	for h := 0; h <= 2; h++ {
		t.stack[h].killer1 = MoveEmpty
		t.stack[h].killer2 = MoveEmpty
	}

	var options = &t.engine.Options
	var best = -valueInfinity
	var movesSearched = 0

	for i, move := range ml {
		if !t.MakeMove(move, height) {
			continue
		}
		movesSearched++

		var newDepth = depth - 1
		var score int
		if movesSearched == 1 {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1)
		} else {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1)
			if score > alpha {
				score = -t.alphaBeta(-beta, -alpha, newDepth, height+1)
			}
		}
		t.UnmakeMove()
		if t.stopped() {
			return best
		}

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}

		var remaining = len(ml) - i - 1
		if options.Threads > 1 && depth >= options.SplitDepth &&
			remaining >= options.SplitMoves && alpha < beta {
			var spBest, _, spLine = t.splitSearch(ml[i+1:], alpha, beta, depth, height, true)
			if t.stopped() {
				return best
			}
			if spBest > best {
				best = spBest
			}
			if spBest > alpha && len(spLine) > 0 {
				t.stack[height].pv.assignSlice(spLine)
			}
			break
		}
	}
	return best
}

// main search method
func (t *thread) alphaBeta(alpha, beta, depth, height int) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, height)
	}
	t.clearPV(height)

	if t.stopped() {
		return valueDraw
	}

	var pvNode = beta != alpha+1
	var position = &t.stack[height].position
	var isCheck = position.IsCheck()

	if height >= maxHeight {
		return t.evaluator.EvaluateQuick(position)
	}
	if t.isRepeat(height) {
		return valueDraw
	}
	if isDraw(position) {
		return valueDraw
	}
	// mate distance pruning
	if winIn(height+1) <= alpha {
		return alpha
	}
	if lossIn(height+2) >= beta && !isCheck {
		return beta
	}

	var ttDepth, ttValue, ttBound, ttMove, ttHit = t.engine.transTable.Read(position.Key)
	if ttHit {
		ttValue = valueFromTT(ttValue, height)
		if ttDepth >= depth && !pvNode && position.LastMove != MoveEmpty {
			if ttValue >= beta && (ttBound&boundLower) != 0 {
				if ttMove != MoveEmpty && !isCaptureOrPromotion(ttMove) {
					t.updateKiller(ttMove, height)
				}
				return ttValue
			}
			if ttValue <= alpha && (ttBound&boundUpper) != 0 {
				return ttValue
			}
		}
	}

	var staticEval = t.evaluator.EvaluateQuick(position)
	t.stack[height].staticEval = staticEval
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	var options = &t.engine.Options
	if height+2 <= maxHeight {
		t.stack[height+2].killer1 = MoveEmpty
		t.stack[height+2].killer2 = MoveEmpty
	}
	var child = &t.stack[height+1].position

	// reverse futility pruning
	if options.ReverseFutility && !pvNode && depth <= 8 && !isCheck {
		if staticEval-pawnValue*depth >= beta {
			return staticEval
		}
	}

	// null-move pruning
	if options.NullMovePruning && !pvNode && depth >= 2 && !isCheck &&
		position.LastMove != MoveEmpty &&
		(height <= 1 || t.stack[height-1].position.LastMove != MoveEmpty) &&
		beta < valueWin &&
		!(ttHit && ttValue < beta && (ttBound&boundUpper) != 0) &&
		!isLateEndgame(position, position.WhiteMove) &&
		staticEval >= beta {
		var reduction = 4 + depth/6 + Min(2, (staticEval-beta)/200)
		t.MakeMove(MoveEmpty, height)
		var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1)
		t.UnmakeMove()
		if score >= beta && !t.stopped() {
			if score >= valueWin {
				score = beta
			}
			return score
		}
	}

	var historyContext = t.getHistoryContext(height)

	var mi = t.initMoveIterator(height, ttMove)
	var killer1 = t.stack[height].killer1
	var killer2 = t.stack[height].killer2

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0

	var quietsSearched = t.stack[height].quietsSearched[:0]
	var bestMove Move

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	var best = -valueInfinity
	var oldAlpha = alpha

	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		var isNoisy = isCaptureOrPromotion(move)
		if !isNoisy {
			quietsSeen++
		}

		if depth <= 8 && best > valueLoss && hasLegalMove && !isCheck {
			// late-move pruning
			if options.Lmp && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				quietsSeen > lmp {
				continue
			}

			// futility pruning
			if options.Futility && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				staticEval+100+pawnValue*depth <= alpha {
				continue
			}

			// SEE pruning
			if options.SeePruning {
				var seeMargin int
				if isNoisy {
					seeMargin = Max(depth, (staticEval+pawnValue-alpha)/pawnValue)
				} else {
					seeMargin = depth / 2
				}
				if !SeeGE(position, move, -seeMargin) {
					continue
				}
			}
		}

		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true
		movesSearched++

		var extension, reduction int

		if options.CheckExtension && child.IsCheck() && depth >= 3 {
			extension = 1
		}

		if options.LateMoveReduction && depth >= 3 && movesSearched > 1 && !isNoisy {
			reduction = options.Lmr(depth, movesSearched)
			if move == killer1 || move == killer2 {
				reduction--
			}
			if !isCheck {
				var history = historyContext.ReadTotal(move)
				reduction -= Max(-2, Min(2, history/5000))
				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || child.IsCheck() {
				reduction--
			}
			reduction = Max(reduction, 0) + extension
			reduction = Max(0, Min(depth-2, reduction))
		}

		if !isNoisy {
			quietsSearched = append(quietsSearched, move)
		}

		var newDepth = depth - 1 + extension

		var score = alpha + 1
		// LMR
		if reduction > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1)
		}
		// PVS
		if score > alpha && beta != alpha+1 && movesSearched > 1 && newDepth > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1)
		}
		// full search
		if score > alpha {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1)
		}

		t.UnmakeMove()
		if t.stopped() {
			return best
		}

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}

		// jamboree: once the first move has been searched serially the
		// rest of the node can be farmed out to idle threads
		if options.Threads > 1 && depth >= options.SplitDepth &&
			!isCheck && alpha < beta &&
			mi.count-mi.index >= options.SplitMoves {
			var rest = make([]Move, 0, mi.count-mi.index)
			for {
				var m = mi.Next()
				if m == MoveEmpty {
					break
				}
				rest = append(rest, m)
			}
			var spBest, spBestMove, spLine = t.splitSearch(rest, alpha, beta, depth, height, pvNode)
			if t.stopped() {
				return best
			}
			if spBest > best {
				best = spBest
				bestMove = spBestMove
				if bestMove != MoveEmpty && !isCaptureOrPromotion(bestMove) {
					quietsSearched = append(quietsSearched, bestMove)
				}
			}
			if spBest > alpha {
				alpha = spBest
				if len(spLine) > 0 {
					t.stack[height].pv.assignSlice(spLine)
				}
			}
			break
		}
	}

	if !hasLegalMove {
		if !isCheck {
			return valueDraw
		}
		return lossIn(height)
	}

	if alpha > oldAlpha && bestMove != MoveEmpty && !isCaptureOrPromotion(bestMove) {
		historyContext.Update(quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, height)
	}

	if !t.stopped() {
		ttBound = 0
		if best > oldAlpha {
			ttBound |= boundLower
		}
		if best < beta {
			ttBound |= boundUpper
		}
		t.engine.transTable.Update(position.Key, depth, valueToTT(best, height), ttBound, bestMove)
	}

	return best
}

func (t *thread) quiescence(alpha, beta, height int) int {
	t.clearPV(height)
	if t.stopped() {
		return valueDraw
	}
	var position = &t.stack[height].position
	if isDraw(position) {
		return valueDraw
	}
	if height >= maxHeight {
		return t.evaluator.EvaluateQuick(position)
	}
	if t.isRepeat(height) {
		return valueDraw
	}

	var _, ttValue, ttBound, _, ttHit = t.engine.transTable.Read(position.Key)
	if ttHit {
		ttValue = valueFromTT(ttValue, height)
		if ttBound == boundExact ||
			ttBound == boundLower && ttValue >= beta ||
			ttBound == boundUpper && ttValue <= alpha {
			return ttValue
		}
	}

	var isCheck = position.IsCheck()
	var best = -valueInfinity
	if !isCheck {
		var eval = t.evaluator.EvaluateQuick(position)
		best = Max(best, eval)
		if eval > alpha {
			alpha = eval
			if alpha >= beta {
				return alpha
			}
		}
	}
	var mi = moveIteratorQS{
		position: position,
		buffer:   t.stack[height].moveList[:],
	}
	mi.Init()
	var hasLegalMove = false
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if !isCheck && !seeGEZero(position, move) {
			continue
		}
		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, height+1)
		t.UnmakeMove()
		best = Max(best, score)
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}
	if isCheck && !hasLegalMove {
		return lossIn(height)
	}
	return best
}

func (t *thread) incNodes() {
	t.nodes++
	if t.nodes&255 == 0 {
		var e = t.engine
		var total = atomic.AddInt64(&e.nodes, 256)
		e.timeManager.OnNodesChanged(int(total))
	}
}

// stopped is the only cancellation mechanism: search polls it at node
// boundaries and unwinds normally. Scores returned after it fires are
// discarded by the callers that observe it.
func (t *thread) stopped() bool {
	if t.engine.stop.Load() {
		return true
	}
	for _, a := range t.aborts {
		if a.Load() {
			return true
		}
	}
	return false
}

func (t *thread) isRepeat(height int) bool {
	var p = &t.stack[height].position

	if p.Rule50 == 0 || p.LastMove == MoveEmpty {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var temp = &t.stack[i].position
		if temp.Key == p.Key {
			return true
		}
		if temp.Rule50 == 0 || temp.LastMove == MoveEmpty {
			return false
		}
	}

	return t.engine.historyKeys[p.Key] >= 2
}

func (t *thread) updateKiller(move Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move Move) {
	t.stack[height].pv.assign(move, &t.stack[height+1].pv)
}

func (t *thread) MakeMove(move Move, height int) bool {
	var pos = &t.stack[height].position
	var child = &t.stack[height+1].position
	if move == MoveEmpty {
		pos.MakeNullMove(child)
	} else {
		if !pos.MakeMove(move, child) {
			return false
		}
	}
	t.evaluator.MakeMove(pos, move)
	t.incNodes()
	return true
}

func (t *thread) UnmakeMove() {
	t.evaluator.UnmakeMove()
}
