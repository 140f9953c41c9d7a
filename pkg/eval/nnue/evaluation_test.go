package eval

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"

	"github.com/grunsab/Titan/pkg/chess"
)

func randomTestWeights(r *rand.Rand, hidden int) *Weights {
	var w = &Weights{
		HiddenSize:    hidden,
		HiddenWeights: make([]int8, InputSize*hidden),
		HiddenBiases:  make([]int16, hidden),
		OutputWeights: make([]int8, hidden),
		OutputBias:    int16(r.Intn(200) - 100),
		HiddenScale:   64,
		OutputScale:   16,
	}
	for i := range w.HiddenWeights {
		w.HiddenWeights[i] = int8(r.Intn(255) - 127)
	}
	for i := range w.HiddenBiases {
		w.HiddenBiases[i] = int16(r.Intn(2000) - 1000)
	}
	for i := range w.OutputWeights {
		w.OutputWeights[i] = int8(r.Intn(255) - 127)
	}
	return w
}

// Plays random legal moves and checks that the incrementally updated
// accumulator agrees with a full refresh at every step, including
// promotions, castling and en passant when they come up.
func TestIncrementalAccumulator(t *testing.T) {
	var r = rand.New(rand.NewSource(42))
	var w = randomTestWeights(r, 32)
	var incremental = NewEvaluationService(w)
	var fresh = NewEvaluationService(w)

	for game := 0; game < 20; game++ {
		var pos, err = chess.NewPositionFromFEN(chess.InitialPositionFen)
		if err != nil {
			t.Fatal(err)
		}
		incremental.Init(&pos)

		var stack = []chess.Position{pos}
		for ply := 0; ply < 60; ply++ {
			var p = &stack[len(stack)-1]
			var moves = p.GenerateLegalMoves()
			if len(moves) == 0 {
				break
			}
			var move = moves[r.Intn(len(moves))]
			var child chess.Position
			p.MakeMove(move, &child)
			incremental.MakeMove(p, move)
			stack = append(stack, child)

			var got = incremental.EvaluateQuick(&child)
			var want = fresh.Evaluate(&child)
			if got != want {
				t.Fatalf("game %d ply %d move %v: incremental %d, refresh %d",
					game, ply, move, got, want)
			}
		}
		for len(stack) > 1 {
			incremental.UnmakeMove()
			stack = stack[:len(stack)-1]
			var got = incremental.EvaluateQuick(&stack[len(stack)-1])
			var want = fresh.Evaluate(&stack[len(stack)-1])
			if got != want {
				t.Fatalf("game %d unwind at %d: incremental %d, refresh %d",
					game, len(stack), got, want)
			}
		}
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	var r = rand.New(rand.NewSource(1))
	var w = randomTestWeights(r, 16)

	var buf bytes.Buffer
	if err := SaveWeights(&buf, w); err != nil {
		t.Fatal(err)
	}
	var got, err = LoadWeights(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(w, got) {
		t.Error("weights differ after round trip")
	}
}

func TestLoadWeightsRejectsBadHeader(t *testing.T) {
	var r = rand.New(rand.NewSource(2))
	var w = randomTestWeights(r, 16)

	var buf bytes.Buffer
	if err := SaveWeights(&buf, w); err != nil {
		t.Fatal(err)
	}
	var data = buf.Bytes()
	data[0] = 'X'
	if _, err := LoadWeights(bytes.NewReader(data)); err == nil {
		t.Error("expected error for corrupt magic")
	}

	if _, err := LoadWeights(bytes.NewReader(data[:20])); err == nil {
		t.Error("expected error for truncated file")
	}
}
