package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/grunsab/Titan/pkg/chess"
)

// Engine searches chess positions. One Engine owns a fixed pool of
// worker threads, a shared transposition table and a shared butterfly
// history; it is not safe for concurrent Search calls.
type Engine struct {
	Options     Options
	evalBuilder func() interface{}
	timeManager *timeManager
	transTable  *transTable
	historyKeys map[uint64]int
	mainHistory [mainHistorySize]int32
	threads     []thread
	splits      chan *splitPoint
	progress    func(SearchInfo)
	mainLine    mainLine
	start       time.Time
	nodes       int64
	stop        atomic.Bool
	mu          sync.Mutex
}

type thread struct {
	engine              *Engine
	evaluator           IUpdatableEvaluator
	continuationHistory [contHistorySize][contHistorySize]int16
	nodes               int64
	aborts              []*atomic.Bool
	stack               [stackSize]struct {
		position       Position
		moveList       [MaxMoves]OrderedMove
		quietsSearched [MaxMoves]Move
		pv             pv
		staticEval     int
		killer1        Move
		killer2        Move
	}
}

type pv struct {
	items [stackSize]Move
	size  int
}

type mainLine struct {
	moves []Move
	score int
	depth int
}

type IEvaluator interface {
	Evaluate(p *Position) int
}

// IUpdatableEvaluator is an evaluator that follows the search by
// incremental updates. Init does a full refresh from the position;
// MakeMove/UnmakeMove must pair up exactly.
type IUpdatableEvaluator interface {
	Init(p *Position)
	MakeMove(p *Position, m Move)
	UnmakeMove()
	EvaluateQuick(p *Position) int
}

func NewEngine(evalBuilder func() interface{}) *Engine {
	return &Engine{
		Options:     NewOptions(),
		evalBuilder: evalBuilder,
	}
}

func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.Size() != e.Options.Hash {
		if e.transTable != nil {
			e.transTable = nil
			runtime.GC()
		}
		e.transTable = newTransTable(e.Options.Hash)
	}
	if len(e.threads) != e.Options.Threads {
		e.threads = make([]thread, e.Options.Threads)
		for i := range e.threads {
			var t = &e.threads[i]
			t.engine = e
			t.evaluator = e.buildEvaluator()
		}
	}
}

// Search runs iterative deepening until the limits or ctx expire and
// returns the best line of the last completed iteration.
func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()
	var p = &searchParams.Positions[len(searchParams.Positions)-1]
	e.timeManager = newTimeManager(ctx, e.start, searchParams.Limits,
		time.Duration(e.Options.MoveOverhead)*time.Millisecond, p)
	defer e.timeManager.Close()
	e.transTable.IncDate()
	e.historyKeys = getHistoryKeys(searchParams.Positions)
	e.nodes = 0
	e.stop.Store(false)
	e.mainLine = mainLine{}
	for i := range e.threads {
		var t = &e.threads[i]
		t.nodes = 0
		t.aborts = t.aborts[:0]
		t.stack[0].position = *p
	}
	e.progress = searchParams.Progress

	var watchDone = make(chan struct{})
	go func() {
		select {
		case <-e.timeManager.ctx.Done():
			e.stop.Store(true)
		case <-watchDone:
		}
	}()

	e.iterate()

	close(watchDone)
	for i := range e.threads {
		var t = &e.threads[i]
		atomic.AddInt64(&e.nodes, t.nodes&255)
		t.nodes = 0
	}
	return e.currentSearchResult()
}

func getHistoryKeys(positions []Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	for i := range e.mainHistory {
		atomic.StoreInt32(&e.mainHistory[i], 0)
	}
	for i := range e.threads {
		e.threads[i].clearHistory()
	}
}

func (e *Engine) currentSearchResult() SearchInfo {
	return SearchInfo{
		Depth:    e.mainLine.depth,
		MainLine: e.mainLine.moves,
		Score:    newUciScore(e.mainLine.score),
		Nodes:    atomic.LoadInt64(&e.nodes),
		Time:     time.Since(e.start),
	}
}

// iterate is the iterative-deepening driver. It runs on the calling
// goroutine; the remaining pool threads only ever work on split points.
func (e *Engine) iterate() {
	var t = &e.threads[0]
	var ml = e.genRootMoves()
	if len(ml) != 0 {
		e.mainLine = mainLine{
			depth: 0,
			score: 0,
			moves: []Move{ml[0]},
		}
	}
	if len(ml) <= 1 {
		return
	}

	var helpersDone sync.WaitGroup
	if e.Options.Threads > 1 {
		e.splits = make(chan *splitPoint, e.Options.Threads*2)
		// capture the channel: e.splits is nilled out after close, and a
		// late-starting helper must not range over the nil field
		var splits = e.splits
		for i := 1; i < e.Options.Threads; i++ {
			helpersDone.Add(1)
			go func(t *thread) {
				defer helpersDone.Done()
				for sp := range splits {
					sp.join(t)
				}
			}(&e.threads[i])
		}
	}

	for depth := 1; depth <= maxHeight; depth++ {
		var score = aspirationWindow(t, ml, depth, e.mainLine.score)
		if e.stop.Load() {
			// partial iterations are discarded
			break
		}
		e.mainLine = mainLine{
			depth: depth,
			score: score,
			moves: t.stack[0].pv.toSlice(),
		}
		e.timeManager.OnIterationComplete(e.mainLine)
		if e.progress != nil &&
			atomic.LoadInt64(&e.nodes) >= int64(e.Options.ProgressMinNodes) {
			e.progress(e.currentSearchResult())
		}
		if e.timeManager.IsDone() {
			break
		}
		moveToBegin(ml, findMoveIndex(ml, e.mainLine.moves[0]))
	}

	e.stop.Store(true)
	if e.splits != nil {
		close(e.splits)
		e.splits = nil
		helpersDone.Wait()
	}
}

func (e *Engine) genRootMoves() []Move {
	var t = &e.threads[0]
	const height = 0
	var p = &t.stack[height].position
	_, _, _, transMove, _ := e.transTable.Read(p.Key)

	var mi = t.initMoveIterator(height, transMove)

	var result []Move
	var child = &t.stack[height+1].position
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == MoveEmpty {
			break
		}
		if p.MakeMove(move, child) {
			result = append(result, move)
		}
	}
	return result
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) assignSlice(line []Move) {
	pv.size = len(line)
	copy(pv.items[:], line)
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

type EvaluatorAdapter struct {
	evaluator IEvaluator
}

func (e *EvaluatorAdapter) Init(p *Position) {
}

func (e *EvaluatorAdapter) MakeMove(p *Position, m Move) {
}

func (e *EvaluatorAdapter) UnmakeMove() {
}

func (e *EvaluatorAdapter) EvaluateQuick(p *Position) int {
	return e.evaluator.Evaluate(p)
}

func (e *Engine) buildEvaluator() IUpdatableEvaluator {
	var evaluationService = e.evalBuilder()
	if ue, ok := evaluationService.(IUpdatableEvaluator); ok {
		return ue
	}
	if ev, ok := evaluationService.(IEvaluator); ok {
		return &EvaluatorAdapter{evaluator: ev}
	}
	panic(errors.New("bad eval builder"))
}
