package engine

import (
	"context"
	"testing"
	"time"

	material "github.com/grunsab/Titan/pkg/eval/material"

	. "github.com/grunsab/Titan/pkg/chess"
)

func TestSEE(t *testing.T) {
	var buffer [MaxMoves]OrderedMove
	var child = &Position{}
	for _, test := range testFENs {
		var p, err = NewPositionFromFEN(test)
		if err != nil {
			t.Fatal(err)
		}
		var eval = basicMaterial(&p)
		for _, om := range p.GenerateCaptures(buffer[:]) {
			var move = om.Move
			if move.Promotion() != Empty {
				continue
			}
			if move.MovingPiece() == Pawn && move.To() == p.EpSquare {
				continue
			}
			if !p.MakeMove(move, child) {
				continue
			}
			if child.IsDiscoveredCheck() {
				continue
			}
			var directSEE = -searchSEE(child) - eval
			if !SeeGE(&p, move, directSEE) || SeeGE(&p, move, directSEE+1) {
				t.Error(test, move.String(), directSEE)
			}
		}
	}
}

func basicMaterial(p *Position) int {
	var score = 0
	score += PopCount(p.Pawns&p.White) - PopCount(p.Pawns&p.Black)
	score += 4 * (PopCount(p.Knights&p.White) - PopCount(p.Knights&p.Black))
	score += 4 * (PopCount(p.Bishops&p.White) - PopCount(p.Bishops&p.Black))
	score += 6 * (PopCount(p.Rooks&p.White) - PopCount(p.Rooks&p.Black))
	score += 12 * (PopCount(p.Queens&p.White) - PopCount(p.Queens&p.Black))
	if !p.WhiteMove {
		score = -score
	}
	return score
}

// searchSEE plays out least-valuable recaptures on the square of the
// last move and returns the best material score for the side to move.
func searchSEE(p *Position) int {
	var alpha = basicMaterial(p)
	var buffer [MaxMoves]OrderedMove
	var ml = p.GenerateCaptures(buffer[:])
	var child = &Position{}
	var move = lvaRecapture(p, child, ml, p.LastMove.To())
	if move != MoveEmpty &&
		p.MakeMove(move, child) {
		var score = -searchSEE(child)
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

func lvaRecapture(p, child *Position, ml []OrderedMove, square int) Move {
	var piece = King + 1
	var bestMove = MoveEmpty
	for _, om := range ml {
		var move = om.Move
		if move.Promotion() != Empty {
			continue
		}
		if move.To() == square &&
			move.MovingPiece() < piece &&
			p.MakeMove(move, child) {
			bestMove = move
			piece = move.MovingPiece()
		}
	}
	return bestMove
}

func TestTransTable(t *testing.T) {
	var tt = newTransTable(1)
	var keys = []uint64{0x1234567890abcdef, 0xfedcba0987654321, 0x5555aaaa0000002a}
	var move = NewMove(SquareE2, SquareE4, Pawn, Empty, Empty)
	for i, key := range keys {
		tt.Update(key, 5+i, 100+i, boundExact, move)
	}
	for i, key := range keys {
		var depth, score, bound, ttMove, ok = tt.Read(key)
		if !ok {
			t.Fatalf("entry %v not found", i)
		}
		if depth != 5+i || score != 100+i || bound != boundExact || ttMove != move {
			t.Errorf("entry %v: got %v %v %v %v", i, depth, score, bound, ttMove)
		}
	}
	if _, _, _, _, ok := tt.Read(0x0123456700001111); ok {
		t.Error("read of absent key succeeded")
	}
	tt.Clear()
	if _, _, _, _, ok := tt.Read(keys[0]); ok {
		t.Error("read after clear succeeded")
	}
}

// A shallower bound must not evict a deeper exact score of the same
// generation; once the generation rolls over the slot is fair game.
func TestTransTableKeepsDeeperExact(t *testing.T) {
	var tt = newTransTable(1)
	const key = 0x9e3779b97f4a7c15
	var move = NewMove(SquareE2, SquareE4, Pawn, Empty, Empty)
	tt.Update(key, 10, 50, boundExact, move)
	tt.Update(key, 8, 999, boundLower, MoveEmpty)
	var depth, score, bound, ttMove, ok = tt.Read(key)
	if !ok || depth != 10 || score != 50 || bound != boundExact || ttMove != move {
		t.Errorf("shallow bound store: got %v %v %v %v %v", depth, score, bound, ttMove, ok)
	}
	tt.Update(key, 8, 60, boundExact, move)
	depth, score, bound, _, ok = tt.Read(key)
	if !ok || depth != 8 || score != 60 || bound != boundExact {
		t.Errorf("exact store: got %v %v %v %v", depth, score, bound, ok)
	}
	tt.IncDate()
	tt.Update(key, 6, 70, boundLower, MoveEmpty)
	depth, score, bound, _, ok = tt.Read(key)
	if !ok || depth != 6 || score != 70 || bound != boundLower {
		t.Errorf("stale exact store: got %v %v %v %v", depth, score, bound, ok)
	}
}

func TestMateScoreRoundTrip(t *testing.T) {
	for _, v := range []int{winIn(3), lossIn(5), 120, -75, 0} {
		for _, height := range []int{0, 1, 7} {
			if got := valueFromTT(valueToTT(v, height), height); got != v {
				t.Errorf("value %v height %v: got %v", v, height, got)
			}
		}
	}
}

func newTestEngine(threads int) *Engine {
	var eng = NewEngine(func() interface{} {
		return material.NewEvaluationService()
	})
	eng.Options.Hash = 16
	eng.Options.Threads = threads
	eng.Prepare()
	return eng
}

func searchPosition(t *testing.T, eng *Engine, fen string, limits LimitsType) SearchInfo {
	t.Helper()
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return eng.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    limits,
	})
}

func TestMateInOne(t *testing.T) {
	var eng = newTestEngine(1)
	var si = searchPosition(t, eng, "6k1/5ppp/8/8/8/8/8/4R1K1 w - - 0 1",
		LimitsType{Depth: 5})
	if si.Score.Mate != 1 {
		t.Errorf("mate score: got %+v", si.Score)
	}
	if len(si.MainLine) == 0 || si.MainLine[0].String() != "e1e8" {
		t.Errorf("main line: got %v", si.MainLine)
	}
}

// Morphy's problem: 1.Ra6 and mate next move whatever black plays.
func TestMateInTwo(t *testing.T) {
	const fen = "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1"
	for _, threads := range []int{1, 4} {
		var eng = newTestEngine(threads)
		var si = searchPosition(t, eng, fen, LimitsType{Depth: 8})
		if si.Score.Mate != 2 {
			t.Errorf("threads %v: mate score: got %+v", threads, si.Score)
		}
		if len(si.MainLine) == 0 || si.MainLine[0].String() != "a1a6" {
			t.Errorf("threads %v: main line: got %v", threads, si.MainLine)
		}
	}
}

func TestSearchReportsProgress(t *testing.T) {
	var eng = newTestEngine(1)
	eng.Options.ProgressMinNodes = 0
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	var lastDepth int
	var si = eng.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Depth: 6},
		Progress: func(si SearchInfo) {
			if si.Depth < lastDepth {
				t.Errorf("depth went backwards: %v after %v", si.Depth, lastDepth)
			}
			lastDepth = si.Depth
		},
	})
	if si.Depth != 6 {
		t.Errorf("depth: got %v", si.Depth)
	}
	if si.Nodes <= 0 {
		t.Errorf("nodes: got %v", si.Nodes)
	}
	if len(si.MainLine) == 0 {
		t.Error("empty main line")
	}
	var legal = p.GenerateLegalMoves()
	var found = false
	for _, mv := range legal {
		if mv == si.MainLine[0] {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("illegal best move %v", si.MainLine[0])
	}
}

func TestSearchRespectsCancel(t *testing.T) {
	var eng = newTestEngine(1)
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	var ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var start = time.Now()
	var si = eng.Search(ctx, SearchParams{
		Positions: []Position{p},
		Limits:    LimitsType{Infinite: true},
	})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("search did not stop: %v", elapsed)
	}
	if len(si.MainLine) == 0 {
		t.Error("empty main line after cancel")
	}
}

func TestRepetitionIsDraw(t *testing.T) {
	var eng = newTestEngine(1)
	var p, err = NewPositionFromFEN("6k1/8/8/8/8/8/8/Q5K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	// shuffle the kings so the root position occurs a third time
	var history = []string{"g1f1", "g8f8", "f1g1", "f8g8", "g1f1", "g8f8", "f1g1", "f8g8"}
	var positions = []Position{p}
	for _, lan := range history {
		var parent = positions[len(positions)-1]
		var mv, ok = parent.MakeMoveLAN(lan)
		if !ok {
			t.Fatal(lan)
		}
		var child Position
		if !parent.MakeMove(mv, &child) {
			t.Fatal(lan)
		}
		positions = append(positions, child)
	}
	var si = eng.Search(context.Background(), SearchParams{
		Positions: positions,
		Limits:    LimitsType{Depth: 6},
	})
	// strongest side avoids the repetition, so the score stays winning
	if si.Score.Centipawns <= 0 && si.Score.Mate <= 0 {
		t.Errorf("score: got %+v", si.Score)
	}
}

// disableHeuristics turns off every unsound pruning idea so the search
// returns the plain alpha-beta value with quiescence leaves.
func disableHeuristics(o *Options) {
	o.AspirationWindows = false
	o.NullMovePruning = false
	o.ReverseFutility = false
	o.LateMoveReduction = false
	o.Lmp = false
	o.Futility = false
	o.SeePruning = false
	o.CheckExtension = false
}

func prepareThread(t *testing.T, eng *Engine, fen string) *thread {
	t.Helper()
	var p, err = NewPositionFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	eng.timeManager = newTimeManager(context.Background(), time.Now(),
		LimitsType{Infinite: true}, 0, &p)
	var th = &eng.threads[0]
	th.stack[0].position = p
	th.evaluator.Init(&p)
	return th
}

// minimaxOracle is a brute-force negamax with the same quiescence
// leaves as the real search. No windows, no table, no pruning.
func minimaxOracle(t *thread, depth, height int) int {
	if depth <= 0 {
		return t.quiescence(-valueInfinity, valueInfinity, height)
	}
	var p = &t.stack[height].position
	if t.isRepeat(height) {
		return valueDraw
	}
	if isDraw(p) {
		return valueDraw
	}
	var buffer [MaxMoves]OrderedMove
	var ml = p.GenerateMoves(buffer[:])
	var best = -valueInfinity
	var hasLegalMove = false
	for i := range ml {
		if !t.MakeMove(ml[i].Move, height) {
			continue
		}
		hasLegalMove = true
		var score = -minimaxOracle(t, depth-1, height+1)
		t.UnmakeMove()
		if score > best {
			best = score
		}
	}
	if !hasLegalMove {
		if p.IsCheck() {
			return lossIn(height)
		}
		return valueDraw
	}
	return best
}

func TestSearchMatchesMinimax(t *testing.T) {
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	const depth = 2

	var oracleEng = newTestEngine(1)
	disableHeuristics(&oracleEng.Options)
	var th = prepareThread(t, oracleEng, fen)
	var want = minimaxOracle(th, depth, 0)

	var eng = newTestEngine(1)
	disableHeuristics(&eng.Options)
	var si = searchPosition(t, eng, fen, LimitsType{Depth: depth})
	if si.Score.Mate != 0 || si.Score.Centipawns != want {
		t.Errorf("search %+v, minimax %v", si.Score, want)
	}
}

// A wrong previous score forces the window to fail and widen; the
// re-search must land on the same value as a full-window search.
func TestAspirationWindowResearch(t *testing.T) {
	const fen = "6k1/8/8/8/8/8/3r4/3R2K1 w - - 0 1"
	const depth = 6

	var refEng = newTestEngine(1)
	disableHeuristics(&refEng.Options)
	var refThread = prepareThread(t, refEng, fen)
	var ml = refEng.genRootMoves()
	var want = searchRoot(refThread, ml, -valueInfinity, valueInfinity, depth)

	var eng = newTestEngine(1)
	disableHeuristics(&eng.Options)
	eng.Options.AspirationWindows = true
	var th = prepareThread(t, eng, fen)
	ml = eng.genRootMoves()
	for _, prevScore := range []int{0, want + 500} {
		if got := aspirationWindow(th, ml, depth, prevScore); got != want {
			t.Errorf("prevScore %v: got %v, want %v", prevScore, got, want)
		}
	}
}

// With the unsound pruning off the result is ordering-independent, so
// searching the table move, winning captures and killers first must
// never cost nodes against taking moves as generated.
func TestMoveOrderingReducesNodes(t *testing.T) {
	var fens = []string{
		InitialPositionFen,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1",
	}
	const depth = 4
	var nodes [2]int64
	for i, ordered := range []bool{true, false} {
		for _, fen := range fens {
			var eng = newTestEngine(1)
			disableHeuristics(&eng.Options)
			eng.Options.OrderMoves = ordered
			var si = searchPosition(t, eng, fen, LimitsType{Depth: depth})
			nodes[i] += si.Nodes
		}
	}
	if nodes[0] > nodes[1] {
		t.Errorf("ordered search visited %v nodes, unordered %v", nodes[0], nodes[1])
	}
}

func TestStartposDepthOne(t *testing.T) {
	var eng = newTestEngine(1)
	var si = searchPosition(t, eng, InitialPositionFen, LimitsType{Depth: 1})
	if si.Score.Centipawns != 0 || si.Score.Mate != 0 {
		t.Errorf("score: got %+v", si.Score)
	}
	if si.Depth != 1 {
		t.Errorf("depth: got %v", si.Depth)
	}
}

var testFENs = []string{
	// Initial position
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	// Kiwipete
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"8/7p/p5pb/4k3/P1pPn3/8/P5PP/1rB2RK1 b - d3 0 28",
	"1K1k4/8/5n2/3p4/8/1BN2B2/6b1/7b w - - 0 1",
	"6k1/5ppp/3r4/8/3R2b1/8/5PPP/R3qB1K b - - 0 1",
	"2rqkb1r/p1pnpppp/3p3n/3B4/2BPP3/1QP5/PP3PPP/RN2K1NR w KQk - 0 1",
	"1rr3k1/4ppb1/2q1bnp1/1p2B1Q1/6P1/2p2P2/2P1B2R/2K4R w - - 0 1",
	// swap algorithm classics
	"1k1r4/1pp4p/p7/4p3/8/P5P1/1PP4P/2K1R3 w - - 0 1",
	"1k1r3q/1ppn3p/p4b2/4p3/8/P2N2P1/1PP1R1BP/2K1Q3 w - - 0 1",
	"8/8/3p4/4r3/2RKP3/5k2/8/8 b - - 0 1",
	"r2qk2r/pppb1ppp/2np4/1Bb5/4n3/5N2/PPP2PPP/RNBQR1K1 b kq - 1 1",
	"6k1/Qp1r1pp1/p1rP3p/P3q3/2Bnb1P1/1P3PNP/4p1K1/R1R5 b - - 0 1",
	"3r2k1/2Q2pb1/2n1r3/1p1p4/pB1PP3/n1N2p2/B1q2P1R/6RK b - - 0 1",
	"2r3k1/5p1n/6p1/pp3n2/2BPp2P/4P2P/q1rN1PQb/R1BKR3 b - - 0 1",
	"r3r3/bpp1Nk1p/p1bq1Bp1/5p2/PPP3n1/R7/3QBPPP/5RK1 w - - 0 1",
	"4r1q1/1p4bk/2pp2np/4N2n/2bp2pP/PR3rP1/2QBNPB1/4K2R b K - 0 1",
	"7k/8/8/8/1RRNN3/1BBQQ3/1KQQQ3/1QQQQ3 b - - 0 1",
	"rr2r1k1/ppBb1ppp/8/4p1NQ/8/1qB3B1/PP4PP/R5K1 w - - 0 1",
	"7r/1p2k3/2bpp3/p3np2/P1PR4/2N2PP1/1P4K1/3B4 b - - 0 1",
	"4k3/p1P3p1/2q1np1p/3N4/8/1Q3PP1/6KP/8 w - - 0 1",
	"3q4/pp3pkp/5npN/2bpr1B1/4r3/2P2Q2/PP3PPP/R4RK1 w - - 0 1",
	"4k3/ppp2ppp/3p4/8/8/3B3Q/P3N3/4R2K w - - 0 1",
	"4k3/ppp2ppp/2Rp4/1Q6/8/3B4/P3N3/7K w - - 0 1",
	"r7/1p4p1/2p2kb1/3r4/3N3n/4P2P/1p2BP2/3RK1R1 w - - 0 1",
	"4k3/8/2n5/4b3/8/3N4/8/4K3 w - - 0 1",
	"8/5r1p/5k2/4R3/p1p1KP2/P7/1P1p3P/8 w - - 2 2",
	"8/8/8/1p2q3/1P2rkp1/2P5/5K1Q/8 b - - 6 4",
	"4k3/ppp3pp/8/8/4B3/8/P3R3/1N2K3 w - - 0 1",
	"4k3/ppp3pp/8/8/4N3/8/P3R3/4K3 w - - 0 1",
}
