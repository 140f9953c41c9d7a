package chess

import "testing"

func perft(p *Position, depth int) int {
	var result = 0
	var buffer [MaxMoves]OrderedMove
	var child Position
	for _, om := range p.GenerateMoves(buffer[:]) {
		if p.MakeMove(om.Move, &child) {
			if depth > 1 {
				result += perft(&child, depth-1)
			} else {
				result++
			}
		}
	}
	return result
}

// https://www.chessprogramming.org/Perft_Results
func TestPerft(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping perft in short mode")
	}
	var tests = []struct {
		fen   string
		depth int
		nodes int
	}{
		{InitialPositionFen, 6, 119060324},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 5, 193690690},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 7, 178633661},
		{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 5, 15833292},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 5, 89941194},
		{"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", 5, 164075551},
	}
	for i, test := range tests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(i, err)
		}
		var nodes = perft(&p, test.depth)
		if nodes != test.nodes {
			t.Error(i, test, nodes)
		}
	}
}

func TestFenRoundTrip(t *testing.T) {
	var fens = []string{
		InitialPositionFen,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatalf("%v: %v", fen, err)
		}
		var back, err2 = NewPositionFromFEN(p.String())
		if err2 != nil {
			t.Fatalf("%v: %v", fen, err2)
		}
		if back.Key != p.Key {
			t.Errorf("%v: keys differ after round trip", fen)
		}
	}
}

func TestMakeMoveLAN(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	var mv, ok = p.MakeMoveLAN("e2e4")
	if !ok {
		t.Fatal("e2e4 not found")
	}
	if mv.From() != SquareE2 || mv.To() != SquareE4 || mv.MovingPiece() != Pawn {
		t.Errorf("unexpected move %v", mv)
	}
	if _, ok = p.MakeMoveLAN("e2e5"); ok {
		t.Error("e2e5 should not be legal")
	}
}
